package fields

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/nfse-extractor/internal/money"
)

const (
	// labelGap sits between a label and its value: "Label: ", "Label = ", "Label (R$) ".
	labelGap    = `\s*(?:\(R\$\))?[:=\s]*`
	amountGroup = `(\d[\d.,]*)`
)

// amountPattern is a label compiled twice: once expecting "R$" before the
// value and once without it.
type amountPattern struct {
	withSymbol *regexp.Regexp
	bare       *regexp.Regexp
}

func amountPatterns(labels ...string) []amountPattern {
	out := make([]amountPattern, 0, len(labels))
	for _, l := range labels {
		out = append(out, amountPattern{
			withSymbol: regexp.MustCompile(`(?i)` + l + labelGap + `R\$\s*` + amountGroup),
			bare:       regexp.MustCompile(`(?i)` + l + labelGap + amountGroup),
		})
	}
	return out
}

// findAmount returns the first strictly positive amount matched by patterns, in order.
func findAmount(text string, patterns []amountPattern) (decimal.Decimal, bool) {
	for _, p := range patterns {
		for _, re := range []*regexp.Regexp{p.withSymbol, p.bare} {
			m := re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if v := parseAmount(m[1]); v.IsPositive() {
				return v, true
			}
		}
	}
	return decimal.Zero, false
}

// parseAmount drops trailing punctuation picked up from prose ("R$ 750,00.").
func parseAmount(raw string) decimal.Decimal {
	return money.Parse(strings.TrimRight(raw, ".,"))
}

// firstSubmatch returns group 1 of the first pattern that matches.
func firstSubmatch(text string, patterns []*regexp.Regexp) (string, int, bool) {
	for _, re := range patterns {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil || loc[2] < 0 {
			continue
		}
		return text[loc[2]:loc[3]], loc[0], true
	}
	return "", -1, false
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
