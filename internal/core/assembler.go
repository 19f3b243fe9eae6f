package core

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/fields"
	"github.com/joseph-ayodele/nfse-extractor/internal/money"
	"github.com/joseph-ayodele/nfse-extractor/internal/pdftext"
	"github.com/joseph-ayodele/nfse-extractor/internal/region"
)

const unidentifiedType = "NFS-e - Estado não identificado"

// InvoiceType labels an invoice by its jurisdiction.
func InvoiceType(code, municipality string) string {
	if code == "" || code == constants.Unknown {
		return unidentifiedType
	}
	return fmt.Sprintf("NFS-e %s - %s", code, municipality)
}

// WithholdingsNote is the note summarising the withheld total.
func WithholdingsNote(total decimal.Decimal) string {
	return "Total de retenções: " + money.FormatValue(total)
}

// Assemble merges the extraction outputs into an invoice. It is the only
// place defaults are filled in; the inputs are not modified.
func Assemble(g entity.GeneralFields, tax entity.TaxDetails, j region.Result, text pdftext.Result) entity.Invoice {
	inv := entity.Invoice{
		Number:           orUnknown(g.Number),
		VerificationCode: orUnknown(g.VerificationCode),
		Series:           orUnknown(g.Series),
		StateCode:        orUnknown(j.Code),
		Municipality:     orUnknown(j.Municipality),
		ProviderName:     orUnknown(g.ProviderName),
		ProviderTaxID:    g.ProviderTaxID,
		ClientName:       orUnknown(g.ClientName),
		ClientTaxID:      g.ClientTaxID,
		IssueDate:        orUnknown(g.IssueDate),
		DueDate:          g.DueDate,
		CompetencePeriod: g.CompetencePeriod,
		TotalValue:       valueOrZero(g.TotalValue),
		ServiceValue:     valueOrZero(g.ServiceValue),
		NetValue:         valueOrZero(g.NetValue),
		InvoiceType:      InvoiceType(j.Code, j.Municipality),
		Confidence:       text.Confidence,
		DetectedFormat:   text.Backend,
		Description:      g.Description,
	}
	if inv.DetectedFormat == "" {
		inv.DetectedFormat = constants.FormatStandard
	}
	if !g.Bank.IsEmpty() {
		b := *g.Bank
		inv.Bank = &b
	}

	b := entity.NewTaxBuilderFrom(tax)
	if b.IsTaxed() && j.Known() {
		if note := fields.TaxedInNote(inv.Municipality); !b.HasNote(note) {
			b.AddNote(note)
		}
	}
	if total := b.TotalWithholdings(); total.IsPositive() {
		b.AddNote(WithholdingsNote(total))
	}
	inv.Tax = b.Build()
	return inv
}

// ErrorInvoice is the degraded result for a document without usable text.
func ErrorInvoice(fileName string) entity.Invoice {
	return entity.Invoice{
		Number:         constants.ErrorNumber,
		StateCode:      constants.ErrorReading,
		Municipality:   constants.ErrorReading,
		ProviderName:   constants.NotExtracted,
		ClientName:     constants.NotExtracted,
		IssueDate:      constants.ErrorNumber,
		InvoiceType:    "Erro na leitura do PDF",
		DetectedFormat: constants.FormatError,
		Confidence:     0,
		Description:    "Arquivo: " + fileName,
		Tax:            entity.NewTaxBuilder().AddNote("Erro ao extrair dados do PDF").Build(),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return constants.Unknown
	}
	return s
}

func valueOrZero(v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return *v
}
