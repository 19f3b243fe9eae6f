package core

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/pdftext"
	"github.com/joseph-ayodele/nfse-extractor/internal/region"
)

func TestAssemble_Defaults(t *testing.T) {
	inv := Assemble(entity.GeneralFields{}, entity.TaxDetails{},
		region.Result{Code: constants.Unknown, Municipality: constants.Unknown, Method: region.MethodNone},
		pdftext.Result{Confidence: constants.FallbackConfidence})

	for field, got := range map[string]string{
		"number":       inv.Number,
		"verification": inv.VerificationCode,
		"series":       inv.Series,
		"state":        inv.StateCode,
		"municipality": inv.Municipality,
		"provider":     inv.ProviderName,
		"client":       inv.ClientName,
		"issue date":   inv.IssueDate,
	} {
		if got != constants.Unknown {
			t.Errorf("%s = %q, want %s", field, got, constants.Unknown)
		}
	}
	if !inv.TotalValue.IsZero() || !inv.NetValue.IsZero() {
		t.Errorf("values = %s / %s", inv.TotalValue, inv.NetValue)
	}
	if inv.DetectedFormat != constants.FormatStandard || inv.Confidence != constants.FallbackConfidence {
		t.Errorf("format = %q confidence = %v", inv.DetectedFormat, inv.Confidence)
	}
	if inv.InvoiceType != unidentifiedType {
		t.Errorf("type = %q", inv.InvoiceType)
	}
	if len(inv.Tax.Notes) != 0 {
		t.Errorf("notes = %v", inv.Tax.Notes)
	}
}

func TestAssemble_Notes(t *testing.T) {
	ba := region.Result{Code: "BA", Municipality: "Salvador", Score: 15, Method: region.MethodPatterns}
	withheld := func() *entity.TaxBuilder {
		b := entity.NewTaxBuilder().SetTaxed(true).SetTaxValue(decimal.RequireFromString("750"))
		b.SetWithholding(constants.SocialIntegration, decimal.RequireFromString("162.50"))
		b.SetWithholding(constants.IncomeTax, decimal.RequireFromString("375"))
		return b
	}

	tests := []struct {
		name string
		tax  entity.TaxDetails
		j    region.Result
		want []string
	}{
		{
			name: "taxed with withholdings",
			tax:  withheld().Build(),
			j:    ba,
			want: []string{"Tributado em Salvador", "Total de retenções: R$ 537,50"},
		},
		{
			name: "taxed note already present",
			tax:  entity.NewTaxBuilder().SetTaxed(true).AddNote("Tributado em Salvador").Build(),
			j:    ba,
			want: []string{"Tributado em Salvador"},
		},
		{
			name: "unknown jurisdiction",
			tax:  entity.NewTaxBuilder().SetTaxed(true).Build(),
			j:    region.Result{Code: constants.Unknown, Municipality: constants.Unknown},
			want: nil,
		},
		{
			name: "not taxed",
			tax:  entity.NewTaxBuilder().AddNote("Não incidência de ISS").Build(),
			j:    ba,
			want: []string{"Não incidência de ISS"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(tt.tax.Notes)
			inv := Assemble(entity.GeneralFields{}, tt.tax, tt.j, pdftext.Result{Backend: "pdf-text"})
			if len(inv.Tax.Notes) != len(tt.want) {
				t.Fatalf("notes = %v, want %v", inv.Tax.Notes, tt.want)
			}
			for i, n := range tt.want {
				if inv.Tax.Notes[i] != n {
					t.Fatalf("note[%d] = %q, want %q", i, inv.Tax.Notes[i], n)
				}
			}
			if len(tt.tax.Notes) != before {
				t.Fatalf("input tax details were modified")
			}
		})
	}
}

func TestAssemble_CopiesFields(t *testing.T) {
	total := decimal.RequireFromString("1000")
	g := entity.GeneralFields{
		Number:       "77",
		ProviderName: "ACME",
		TotalValue:   &total,
		Bank:         &entity.BankDetails{Bank: "Itaú", Branch: "1234"},
	}
	inv := Assemble(g, entity.TaxDetails{}, region.Result{Code: "SP", Municipality: "São Paulo"}, pdftext.Result{Backend: "pdf-rows", Confidence: 0.7})
	if inv.Number != "77" || !inv.TotalValue.Equal(total) || inv.DetectedFormat != "pdf-rows" {
		t.Fatalf("invoice = %+v", inv)
	}
	g.Bank.Bank = "changed"
	if inv.Bank == nil || inv.Bank.Bank != "Itaú" {
		t.Fatalf("bank aliased: %+v", inv.Bank)
	}
}

func TestErrorInvoice(t *testing.T) {
	inv := ErrorInvoice("x.pdf")
	if !inv.IsError() || inv.DetectedFormat != constants.FormatError || inv.ProviderName != constants.NotExtracted {
		t.Fatalf("invoice = %+v", inv)
	}
	if !inv.Tax.HasNote("Erro ao extrair dados do PDF") {
		t.Fatalf("notes = %v", inv.Tax.Notes)
	}
}
