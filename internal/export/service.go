package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/repository"
)

const (
	invoicesSheet = "Notas"
	summarySheet  = "Resumo"
	moneyFormat   = 4 // #,##0.00
)

var invoiceHeaders = []string{
	"Arquivo",
	"Número",
	"Estado",
	"Município",
	"Prestador",
	"CNPJ Prestador",
	"Tomador",
	"Emissão",
	"Vencimento",
	"Valor Total",
	"Valor ISS",
	"Alíquota (%)",
	"Tributado",
	"Retenções",
	"Formato",
	"Confiança",
	"Observações",
}

// Service is a tiny façade over the invoice store that produces XLSX bytes for exports.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// ExportXLSX returns a workbook with every stored invoice matching filter.
func (s *Service) ExportXLSX(ctx context.Context, filter repository.ListFilter) ([]byte, error) {
	start := time.Now()
	recs, err := s.invoices.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	invoices := make([]entity.Invoice, len(recs))
	for i, r := range recs {
		invoices[i] = r.Invoice
	}
	out, err := BuildXLSX(invoices)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"state_code", filter.StateCode,
		"rows", len(invoices),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// BuildXLSX renders invoices on one sheet and their Summarize result on another.
func BuildXLSX(invoices []entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, h := range invoiceHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(invoicesSheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(invoiceHeaders), 1)
	_ = f.SetCellStyle(invoicesSheet, "A1", last, bold)

	for i := range invoices {
		inv := &invoices[i]
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(invoicesSheet, cell, v)
		}
		write(1, inv.SourceFile)
		write(2, inv.Number)
		write(3, inv.StateCode)
		write(4, inv.Municipality)
		write(5, inv.ProviderName)
		write(6, inv.ProviderTaxID)
		write(7, inv.ClientName)
		write(8, inv.IssueDate)
		write(9, inv.DueDate)
		write(10, inv.TotalValue.InexactFloat64())
		if inv.Tax.TaxValue != nil {
			write(11, inv.Tax.TaxValue.InexactFloat64())
		}
		if inv.Tax.TaxRate != nil {
			write(12, inv.Tax.TaxRate.InexactFloat64())
		}
		write(13, yesNo(inv.Tax.IsTaxed))
		write(14, inv.Tax.TotalWithholdings().InexactFloat64())
		write(15, inv.DetectedFormat)
		write(16, inv.Confidence)
		write(17, strings.Join(inv.Tax.Notes, "; "))
	}
	if len(invoices) > 0 {
		from, _ := excelize.CoordinatesToCellName(10, 2)
		to, _ := excelize.CoordinatesToCellName(11, len(invoices)+1)
		_ = f.SetCellStyle(invoicesSheet, from, to, money)
		from, _ = excelize.CoordinatesToCellName(14, 2)
		to, _ = excelize.CoordinatesToCellName(14, len(invoices)+1)
		_ = f.SetCellStyle(invoicesSheet, from, to, money)
	}

	_ = f.SetColWidth(invoicesSheet, "A", "A", 36) // file
	_ = f.SetColWidth(invoicesSheet, "E", "G", 40) // parties
	_ = f.SetColWidth(invoicesSheet, "J", "N", 14) // amounts
	_ = f.SetColWidth(invoicesSheet, "Q", "Q", 60) // notes

	if err := writeSummary(f, Summarize(invoices), money, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, s Summary, money, bold int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	rows := [][2]any{
		{"Notas analisadas", s.Invoices},
		{"Erros de leitura", s.Errors},
		{"Overrides aplicados", s.Overrides},
		{"Tributadas", s.Taxed},
		{"Não tributadas", s.Untaxed},
		{"Valor total", s.TotalValue.InexactFloat64()},
		{"ISS total", s.TotalISS.InexactFloat64()},
		{"Retenções totais", s.TotalWithholdings.InexactFloat64()},
		{"Alíquota efetiva ISS (%)", s.EffectiveISSRate.InexactFloat64()},
		{"Confiança média", s.AverageConfidence},
		{"Confiança alta (>0,8)", s.High},
		{"Confiança média (0,6-0,8)", s.Medium},
		{"Confiança baixa (<0,6)", s.Low},
	}
	for _, code := range s.States() {
		rows = append(rows, [2]any{"Estado " + stateLabel(code), s.ByState[code]})
	}
	for i, r := range rows {
		row := i + 1
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), r[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), r[1])
	}
	_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(rows)), bold)
	_ = f.SetCellStyle(summarySheet, "B6", "B8", money)
	_ = f.SetColWidth(summarySheet, "A", "A", 30)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}
