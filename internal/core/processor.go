package core

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/repository"
)

// Processor analyzes a document and stores the result.
type Processor struct {
	logger   *slog.Logger
	analyzer *Analyzer
	invoices repository.InvoiceRepository
}

func NewProcessor(logger *slog.Logger, analyzer *Analyzer, invoices repository.InvoiceRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, analyzer: analyzer, invoices: invoices}
}

// Process runs the analysis and saves it. Storing the same document again
// replaces the previous invoice under the same ID.
func (p *Processor) Process(ctx context.Context, path, fileName string) (uuid.UUID, entity.Invoice, error) {
	inv, err := p.analyzer.Analyze(ctx, path, fileName)
	if err != nil {
		p.logger.Error("processor.analyze.failed", "path", path, "file", fileName, "err", err)
		return uuid.Nil, entity.Invoice{}, err
	}
	id, err := p.invoices.Save(ctx, &inv)
	if err != nil {
		p.logger.Error("processor.save.failed", "file", inv.SourceFile, "sha256", inv.SourceSHA256, "err", err)
		return uuid.Nil, inv, err
	}
	p.logger.Info("processor.invoice.saved",
		"id", id,
		"file", inv.SourceFile,
		"number", inv.Number,
		"state", inv.State,
		"format", inv.DetectedFormat,
	)
	return id, inv, nil
}
