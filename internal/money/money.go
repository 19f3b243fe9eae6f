// Package money parses and formats locale-formatted currency amounts as exact decimals.
//
// Parsing is best-effort: malformed input yields zero and never fails. The
// Brazilian locale treats "." as the thousands separator and "," as the decimal
// separator unconditionally, so "1.234" is 1234, never 1.234.
package money

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Locale describes how amounts are written for display and in source documents.
type Locale struct {
	Symbol    string
	Thousands string
	Decimal   string
}

// BRL is the Brazilian real locale used by NFS-e documents.
var BRL = Locale{Symbol: "R$", Thousands: ".", Decimal: ","}

// Parse converts raw into an exact decimal using the BRL locale.
func Parse(raw any) decimal.Decimal { return BRL.Parse(raw) }

// Format renders v using the BRL locale; nil renders as zero.
func Format(v *decimal.Decimal) string {
	if v == nil {
		return BRL.Format(decimal.Zero)
	}
	return BRL.Format(*v)
}

// FormatValue renders v using the BRL locale.
func FormatValue(v decimal.Decimal) string { return BRL.Format(v) }

// Parse accepts numeric literals or strings written in this locale.
func (l Locale) Parse(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case string:
		return l.parseString(v)
	case []byte:
		return l.parseString(string(v))
	}
	return decimal.Zero
}

func (l Locale) parseString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if l.Symbol != "" {
		s = strings.TrimPrefix(s, l.Symbol)
	}
	// drop any inner whitespace ("1 234,00", "R$  10,00")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return decimal.Zero
	}
	if l.Thousands != "" {
		s = strings.ReplaceAll(s, l.Thousands, "")
	}
	if l.Decimal != "" && l.Decimal != "." {
		s = strings.ReplaceAll(s, l.Decimal, ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParsePercent reads a tax rate such as "5,00" or "5.00%". Rates are never
// thousands-grouped, so both separators are read as decimal points.
func ParsePercent(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Format renders v as "<symbol> 1.234,56" with two fraction digits.
func (l Locale) Format(v decimal.Decimal) string {
	fixed := v.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")
	intPart, frac, _ := strings.Cut(fixed, ".")
	if intPart == "0" && frac == "00" {
		neg = false
	}

	out := l.Symbol + " " + group(intPart, l.Thousands) + l.Decimal + frac
	if neg {
		return "-" + out
	}
	return out
}

func group(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func fromFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
