package export

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

// Confidence buckets used by the batch report.
const (
	HighConfidence   = 0.8
	MediumConfidence = 0.6
)

// Summary aggregates a batch of analysed invoices.
type Summary struct {
	Invoices          int
	Errors            int
	Overrides         int
	Taxed             int
	Untaxed           int
	ByState           map[string]int
	TotalValue        decimal.Decimal
	TotalISS          decimal.Decimal
	TotalWithholdings decimal.Decimal
	// EffectiveISSRate is TotalISS / TotalValue in percent, zero when there is no value.
	EffectiveISSRate decimal.Decimal
	// AverageConfidence excludes unreadable documents.
	AverageConfidence float64
	High              int
	Medium            int
	Low               int
}

// States returns the state codes in the summary, sorted.
func (s Summary) States() []string {
	out := make([]string, 0, len(s.ByState))
	for k := range s.ByState {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Summarize computes batch statistics. Unreadable documents only count
// towards Invoices, Errors and ByState.
func Summarize(invoices []entity.Invoice) Summary {
	s := Summary{
		ByState:           map[string]int{},
		TotalValue:        decimal.Zero,
		TotalISS:          decimal.Zero,
		TotalWithholdings: decimal.Zero,
		EffectiveISSRate:  decimal.Zero,
	}
	var confSum float64
	var readable int
	for i := range invoices {
		inv := &invoices[i]
		s.Invoices++
		s.ByState[inv.StateCode]++
		if inv.IsError() {
			s.Errors++
			continue
		}
		if inv.IsOverride() {
			s.Overrides++
		}
		if inv.Tax.IsTaxed {
			s.Taxed++
		} else {
			s.Untaxed++
		}
		s.TotalValue = s.TotalValue.Add(inv.TotalValue)
		if inv.Tax.TaxValue != nil {
			s.TotalISS = s.TotalISS.Add(*inv.Tax.TaxValue)
		}
		s.TotalWithholdings = s.TotalWithholdings.Add(inv.Tax.TotalWithholdings())

		readable++
		confSum += inv.Confidence
		switch {
		case inv.Confidence > HighConfidence:
			s.High++
		case inv.Confidence >= MediumConfidence:
			s.Medium++
		default:
			s.Low++
		}
	}
	if readable > 0 {
		s.AverageConfidence = confSum / float64(readable)
	}
	if s.TotalValue.IsPositive() {
		s.EffectiveISSRate = s.TotalISS.Div(s.TotalValue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return s
}

// stateLabel is how the report labels a missing state code.
func stateLabel(code string) string {
	if code == "" {
		return constants.Unknown
	}
	return code
}
