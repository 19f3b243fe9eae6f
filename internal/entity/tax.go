package entity

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/nfse-extractor/constants"
)

// TaxDetails is the tax section of an invoice. Values are snapshots produced
// by TaxBuilder.Build and are not modified afterwards.
type TaxDetails struct {
	IsTaxed            bool                                          `json:"is_taxed"`
	TaxValue           *decimal.Decimal                              `json:"tax_value,omitempty"`
	TaxRate            *decimal.Decimal                              `json:"tax_rate,omitempty"`
	TaxBase            *decimal.Decimal                              `json:"tax_base,omitempty"`
	Withholdings       map[constants.WithholdingKind]decimal.Decimal `json:"withholdings,omitempty"`
	ServiceCode        string                                        `json:"service_code,omitempty"`
	ServiceDescription string                                        `json:"service_description,omitempty"`
	Notes              []string                                      `json:"notes,omitempty"`
}

// Withholding returns the asserted amount for kind, or nil if none was found.
func (t TaxDetails) Withholding(kind constants.WithholdingKind) *decimal.Decimal {
	v, ok := t.Withholdings[kind]
	if !ok {
		return nil
	}
	return &v
}

// TotalWithholdings sums the asserted withholdings. Recomputed on every call.
func (t TaxDetails) TotalWithholdings() decimal.Decimal {
	total := decimal.Zero
	for _, v := range t.Withholdings {
		total = total.Add(v)
	}
	return total
}

// HasNote reports whether note was already recorded.
func (t TaxDetails) HasNote(note string) bool {
	for _, n := range t.Notes {
		if n == note {
			return true
		}
	}
	return false
}

// TaxBuilder accumulates tax fields while a document is being read.
type TaxBuilder struct {
	d TaxDetails
}

func NewTaxBuilder() *TaxBuilder {
	return &TaxBuilder{d: TaxDetails{Withholdings: map[constants.WithholdingKind]decimal.Decimal{}}}
}

// NewTaxBuilderFrom starts a builder from an existing snapshot without aliasing it.
func NewTaxBuilderFrom(t TaxDetails) *TaxBuilder {
	b := &TaxBuilder{d: t.clone()}
	if b.d.Withholdings == nil {
		b.d.Withholdings = map[constants.WithholdingKind]decimal.Decimal{}
	}
	return b
}

func (b *TaxBuilder) SetTaxed(taxed bool) *TaxBuilder {
	b.d.IsTaxed = taxed
	return b
}

func (b *TaxBuilder) SetTaxValue(v decimal.Decimal) *TaxBuilder {
	b.d.TaxValue = &v
	return b
}

func (b *TaxBuilder) SetTaxRate(v decimal.Decimal) *TaxBuilder {
	b.d.TaxRate = &v
	return b
}

func (b *TaxBuilder) SetTaxBase(v decimal.Decimal) *TaxBuilder {
	b.d.TaxBase = &v
	return b
}

// SetWithholding records v for kind only when it is strictly positive.
func (b *TaxBuilder) SetWithholding(kind constants.WithholdingKind, v decimal.Decimal) bool {
	if !v.IsPositive() {
		return false
	}
	b.d.Withholdings[kind] = v
	return true
}

func (b *TaxBuilder) SetService(code, description string) *TaxBuilder {
	b.d.ServiceCode = code
	b.d.ServiceDescription = description
	return b
}

// AddNote appends a note; notes are never removed.
func (b *TaxBuilder) AddNote(note string) *TaxBuilder {
	b.d.Notes = append(b.d.Notes, note)
	return b
}

func (b *TaxBuilder) IsTaxed() bool { return b.d.IsTaxed }

func (b *TaxBuilder) TaxValue() *decimal.Decimal { return b.d.TaxValue }

func (b *TaxBuilder) HasNote(note string) bool { return b.d.HasNote(note) }

// TotalWithholdings is the running total of what has been recorded so far.
func (b *TaxBuilder) TotalWithholdings() decimal.Decimal { return b.d.TotalWithholdings() }

// Build returns an independent snapshot; later builder calls do not affect it.
func (b *TaxBuilder) Build() TaxDetails {
	return b.d.clone()
}

func (t TaxDetails) clone() TaxDetails {
	out := t
	out.TaxValue = copyDec(t.TaxValue)
	out.TaxRate = copyDec(t.TaxRate)
	out.TaxBase = copyDec(t.TaxBase)
	if t.Withholdings != nil {
		out.Withholdings = make(map[constants.WithholdingKind]decimal.Decimal, len(t.Withholdings))
		for k, v := range t.Withholdings {
			out.Withholdings[k] = v
		}
	}
	if t.Notes != nil {
		out.Notes = append([]string(nil), t.Notes...)
	}
	return out
}

func copyDec(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
