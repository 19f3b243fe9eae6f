package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/nfse-extractor/constants"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/repository"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleInvoices() []entity.Invoice {
	sp := entity.NewTaxBuilder().SetTaxed(true).SetTaxValue(d("500")).SetTaxRate(d("5"))
	sp.SetWithholding(constants.IncomeTax, d("150"))
	ba := entity.NewTaxBuilder().SetTaxed(true).SetTaxValue(d("750"))
	ba.SetWithholding(constants.SocialIntegration, d("162.50"))
	ba.SetWithholding(constants.SocialFinancing, d("750"))
	untaxed := entity.NewTaxBuilder().AddNote("Não incidência de ISS")

	return []entity.Invoice{
		{Number: "1", StateCode: "SP", Municipality: "São Paulo", SourceFile: "sp.pdf", TotalValue: d("10000"), Tax: sp.Build(), Confidence: 0.9, DetectedFormat: "pdf-text"},
		{Number: "4", StateCode: "BA", Municipality: "Salvador", SourceFile: "EBAC.pdf", TotalValue: d("25000"), Tax: ba.Build(), Confidence: 1.0, DetectedFormat: constants.FormatOverride},
		{Number: "7", StateCode: "SP", Municipality: "São Paulo", SourceFile: "rows.pdf", TotalValue: d("5000"), Tax: untaxed.Build(), Confidence: 0.7, DetectedFormat: "pdf-rows"},
		{Number: "9", StateCode: "RJ", Municipality: "Rio de Janeiro", SourceFile: "weak.pdf", TotalValue: d("0"), Tax: entity.NewTaxBuilder().Build(), Confidence: 0.3, DetectedFormat: constants.FormatStandard},
		{Number: constants.ErrorNumber, StateCode: constants.ErrorReading, SourceFile: "bad.pdf", Confidence: 0, DetectedFormat: constants.FormatError},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleInvoices())

	if s.Invoices != 5 || s.Errors != 1 || s.Overrides != 1 {
		t.Fatalf("counts = %+v", s)
	}
	if s.Taxed != 2 || s.Untaxed != 2 {
		t.Fatalf("taxed/untaxed = %d/%d", s.Taxed, s.Untaxed)
	}
	if s.ByState["SP"] != 2 || s.ByState["BA"] != 1 || s.ByState[constants.ErrorReading] != 1 {
		t.Fatalf("by state = %v", s.ByState)
	}
	if !s.TotalValue.Equal(d("40000")) || !s.TotalISS.Equal(d("1250")) || !s.TotalWithholdings.Equal(d("1062.50")) {
		t.Fatalf("sums = %s / %s / %s", s.TotalValue, s.TotalISS, s.TotalWithholdings)
	}
	if !s.EffectiveISSRate.Equal(d("3.13")) {
		t.Fatalf("effective rate = %s", s.EffectiveISSRate)
	}
	// error invoice excluded: (0.9 + 1.0 + 0.7 + 0.3) / 4
	if got := s.AverageConfidence; got < 0.7249 || got > 0.7251 {
		t.Fatalf("average confidence = %f", got)
	}
	if s.High != 2 || s.Medium != 1 || s.Low != 1 {
		t.Fatalf("buckets = %d/%d/%d", s.High, s.Medium, s.Low)
	}
	if got := s.States(); len(got) != 4 || got[0] != "BA" {
		t.Fatalf("states = %v", got)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Invoices != 0 || s.AverageConfidence != 0 || !s.EffectiveISSRate.IsZero() {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestSummarize_MediumBoundary(t *testing.T) {
	s := Summarize([]entity.Invoice{
		{StateCode: "SP", Confidence: 0.8},
		{StateCode: "SP", Confidence: 0.6},
		{StateCode: "SP", Confidence: 0.59},
	})
	if s.High != 0 || s.Medium != 2 || s.Low != 1 {
		t.Fatalf("buckets = %d/%d/%d", s.High, s.Medium, s.Low)
	}
}

func TestBuildXLSX(t *testing.T) {
	data, err := BuildXLSX(sampleInvoices())
	if err != nil {
		t.Fatalf("BuildXLSX: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	cells := map[string]string{
		"A1": "Arquivo",
		"A2": "sp.pdf",
		"B3": "4",
		"C3": "BA",
		"M2": "Sim",
		"M4": "Não",
		"O3": constants.FormatOverride,
		"Q4": "Não incidência de ISS",
		"A6": "bad.pdf",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(invoicesSheet, cell)
		if err != nil || got != want {
			t.Errorf("%s!%s = %q (%v), want %q", invoicesSheet, cell, got, err, want)
		}
	}

	for cell, want := range map[string]string{"A1": "Notas analisadas", "B1": "5", "B2": "1", "B4": "2"} {
		got, err := f.GetCellValue(summarySheet, cell)
		if err != nil || got != want {
			t.Errorf("%s!%s = %q (%v), want %q", summarySheet, cell, got, err, want)
		}
	}
}

type listOnlyRepo struct {
	repository.InvoiceRepository
	recs   []repository.Record
	filter repository.ListFilter
}

func (r *listOnlyRepo) List(_ context.Context, f repository.ListFilter) ([]repository.Record, error) {
	r.filter = f
	return r.recs, nil
}

func TestService_ExportXLSX(t *testing.T) {
	repo := &listOnlyRepo{}
	for _, inv := range sampleInvoices()[:2] {
		repo.recs = append(repo.recs, repository.Record{ID: uuid.New(), Invoice: inv})
	}
	svc := NewService(repo, nil)

	data, err := svc.ExportXLSX(context.Background(), repository.ListFilter{StateCode: "SP"})
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}
	if repo.filter.StateCode != "SP" {
		t.Fatalf("filter not forwarded: %+v", repo.filter)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(invoicesSheet)
	if err != nil || len(rows) != 3 {
		t.Fatalf("rows = %d (%v)", len(rows), err)
	}
}

func TestNewJSONInvoice(t *testing.T) {
	inv := sampleInvoices()[1]
	var buf bytes.Buffer
	if err := WriteJSON(&buf, []entity.Invoice{inv}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d invoices", len(got))
	}
	if got[0]["valor_total"] != 25000.0 {
		t.Fatalf("valor_total = %v", got[0]["valor_total"])
	}
	tax := got[0]["dados_tributarios"].(map[string]any)
	if tax["valor_iss"] != 750.0 || tax["total_retencoes"] != 912.5 {
		t.Fatalf("tax = %v", tax)
	}
	if tax["aliquota_iss"] != nil {
		t.Fatalf("missing rate must stay null, got %v", tax["aliquota_iss"])
	}
	ret := tax["retencoes"].(map[string]any)
	if ret["PIS"] != 162.5 || ret["COFINS"] != 750.0 {
		t.Fatalf("retencoes = %v", ret)
	}
}
