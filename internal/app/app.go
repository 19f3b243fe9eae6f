// Package app wires configuration into the analyzer and the invoice store
// shared by the command line tools and the daemon.
package app

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/core"
	"github.com/joseph-ayodele/nfse-extractor/internal/overrides"
	"github.com/joseph-ayodele/nfse-extractor/internal/pdftext"
	"github.com/joseph-ayodele/nfse-extractor/internal/region"
	"github.com/joseph-ayodele/nfse-extractor/internal/repository"
)

// NewLogger builds the process logger. format is "json" or "text"; level is
// one of debug, info, warn, error.
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// NewAnalyzer builds the text cascade, the classifier and the override table.
func NewAnalyzer(cfg *common.Config, logger *slog.Logger) (*core.Analyzer, error) {
	table, err := overrides.Load(cfg.Overrides.Path)
	if err != nil {
		logger.Error("app.overrides.failed", "path", cfg.Overrides.Path, "err", err)
		return nil, err
	}
	text := pdftext.NewExtractor(pdftext.Config{
		Pdftotext:       cfg.Extraction.PdftotextBin,
		BackendTimeout:  cfg.Extraction.BackendTimeout,
		RowTolerance:    cfg.Extraction.RowTolerance,
		DisableExternal: cfg.Extraction.DisableExternal,
	}, logger)
	logger.Info("app.analyzer.ready", "backends", text.Backends(), "overrides", table.Len())
	return core.NewAnalyzer(logger, text, region.NewClassifier(nil, logger), table), nil
}

// Store is an invoice repository plus its release function.
type Store struct {
	repository.InvoiceRepository
	Kind  string
	close func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStore opens Postgres when DB_URL is set and the local SQLite file
// otherwise.
func OpenStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Store, error) {
	if cfg.Database.DSN != "" {
		pool, err := repository.OpenPool(ctx, repository.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, common.NewAppError("DB_ERROR", "open postgres", err)
		}
		pg := repository.NewPostgresRepository(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			repository.Close(pool, logger)
			return nil, common.NewAppError("DB_ERROR", "ensure schema", err)
		}
		return &Store{InvoiceRepository: pg, Kind: "postgres", close: func() { repository.Close(pool, logger) }}, nil
	}

	lite, err := repository.OpenSQLite(ctx, cfg.Store.SQLitePath, logger)
	if err != nil {
		return nil, common.NewAppError("DB_ERROR", "open sqlite "+cfg.Store.SQLitePath, err)
	}
	return &Store{InvoiceRepository: lite, Kind: "sqlite", close: func() {
		if err := lite.Close(); err != nil {
			logger.Warn("app.sqlite.close.failed", "err", err)
		}
	}}, nil
}
