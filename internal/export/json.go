package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

// JSONTax is the tax section as served to web clients.
type JSONTax struct {
	IsTaxed            bool               `json:"tributado"`
	TaxValue           *float64           `json:"valor_iss"`
	TaxRate            *float64           `json:"aliquota_iss"`
	TaxBase            *float64           `json:"base_calculo"`
	Withholdings       map[string]float64 `json:"retencoes"`
	TotalWithholdings  float64            `json:"total_retencoes"`
	ServiceCode        string             `json:"codigo_servico,omitempty"`
	ServiceDescription string             `json:"descricao_servico,omitempty"`
	Notes              []string           `json:"observacoes"`
}

// JSONInvoice is the boundary view of an invoice. Money becomes float64 here
// and nowhere else.
type JSONInvoice struct {
	Number           string              `json:"numero"`
	VerificationCode string              `json:"codigo_verificacao,omitempty"`
	Series           string              `json:"serie,omitempty"`
	StateCode        string              `json:"estado"`
	Municipality     string              `json:"municipio"`
	ProviderName     string              `json:"prestador"`
	ProviderTaxID    string              `json:"prestador_cnpj,omitempty"`
	ClientName       string              `json:"tomador"`
	ClientTaxID      string              `json:"tomador_cnpj,omitempty"`
	IssueDate        string              `json:"data_emissao"`
	DueDate          string              `json:"vencimento,omitempty"`
	CompetencePeriod string              `json:"competencia,omitempty"`
	TotalValue       float64             `json:"valor_total"`
	ServiceValue     float64             `json:"valor_servicos"`
	NetValue         float64             `json:"valor_liquido"`
	Tax              JSONTax             `json:"dados_tributarios"`
	InvoiceType      string              `json:"tipo_nf"`
	Confidence       float64             `json:"confianca_extracao"`
	DetectedFormat   string              `json:"formato_detectado"`
	Bank             *entity.BankDetails `json:"dados_bancarios,omitempty"`
	Description      string              `json:"discriminacao,omitempty"`
	SourceFile       string              `json:"arquivo,omitempty"`
	AnalyzedAt       *time.Time          `json:"analisado_em,omitempty"`
}

func NewJSONInvoice(inv entity.Invoice) JSONInvoice {
	out := JSONInvoice{
		Number:           inv.Number,
		VerificationCode: inv.VerificationCode,
		Series:           inv.Series,
		StateCode:        inv.StateCode,
		Municipality:     inv.Municipality,
		ProviderName:     inv.ProviderName,
		ProviderTaxID:    inv.ProviderTaxID,
		ClientName:       inv.ClientName,
		ClientTaxID:      inv.ClientTaxID,
		IssueDate:        inv.IssueDate,
		DueDate:          inv.DueDate,
		CompetencePeriod: inv.CompetencePeriod,
		TotalValue:       inv.TotalValue.InexactFloat64(),
		ServiceValue:     inv.ServiceValue.InexactFloat64(),
		NetValue:         inv.NetValue.InexactFloat64(),
		InvoiceType:      inv.InvoiceType,
		Confidence:       inv.Confidence,
		DetectedFormat:   inv.DetectedFormat,
		Bank:             inv.Bank,
		Description:      inv.Description,
		SourceFile:       inv.SourceFile,
		Tax: JSONTax{
			IsTaxed:            inv.Tax.IsTaxed,
			TaxValue:           floatPtr(inv.Tax.TaxValue),
			TaxRate:            floatPtr(inv.Tax.TaxRate),
			TaxBase:            floatPtr(inv.Tax.TaxBase),
			Withholdings:       map[string]float64{},
			TotalWithholdings:  inv.Tax.TotalWithholdings().InexactFloat64(),
			ServiceCode:        inv.Tax.ServiceCode,
			ServiceDescription: inv.Tax.ServiceDescription,
			Notes:              append([]string{}, inv.Tax.Notes...),
		},
	}
	for kind, v := range inv.Tax.Withholdings {
		out.Tax.Withholdings[kind.Label()] = v.InexactFloat64()
	}
	if !inv.AnalyzedAt.IsZero() {
		t := inv.AnalyzedAt
		out.AnalyzedAt = &t
	}
	return out
}

// WriteJSON writes the boundary view of invoices as an indented array.
func WriteJSON(w io.Writer, invoices []entity.Invoice) error {
	out := make([]JSONInvoice, len(invoices))
	for i, inv := range invoices {
		out[i] = NewJSONInvoice(inv)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func floatPtr(v *decimal.Decimal) *float64 {
	if v == nil {
		return nil
	}
	f := v.InexactFloat64()
	return &f
}
