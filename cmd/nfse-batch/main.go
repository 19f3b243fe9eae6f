package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/nfse-extractor/internal/app"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/core"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/export"
	"github.com/joseph-ayodele/nfse-extractor/internal/ingest"
	"github.com/joseph-ayodele/nfse-extractor/internal/money"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "directory to scan for invoice PDFs (required)")
		out      = flag.String("out", "", "output XLSX path (defaults to REPORT_DIR/nfse-report.xlsx)")
		jsonOut  = flag.String("json", "", "optional JSON report path")
		workers  = flag.Int("workers", 0, "parallel analyses (defaults to WORKERS)")
		store    = flag.Bool("store", true, "save every invoice in the configured store")
		noBar    = flag.Bool("quiet", false, "disable the progress bar")
		logLevel = flag.String("log-level", "warn", "debug|info|warn|error")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stderr, "json", *logLevel)
	if err := common.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	if *workers > 0 {
		cfg.Batch.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(cfg.Batch.ReportDir, "nfse-report.xlsx")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	paths, stats, err := ingest.ScanDirectory(*dir, true)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("batch.scan.done", "dir", *dir, "matched", stats.Matched, "skipped", stats.Skipped, "failed", stats.Failed)
	if len(paths) == 0 {
		fmt.Printf("No PDF files found in %s\n", *dir)
		return
	}

	analyzer, err := app.NewAnalyzer(cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	analyze := func(ctx context.Context, path string) (entity.Invoice, error) {
		return analyzer.Analyze(ctx, path, "")
	}
	if *store {
		st, err := app.OpenStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer st.Close()
		proc := core.NewProcessor(logger, analyzer, st)
		analyze = func(ctx context.Context, path string) (entity.Invoice, error) {
			_, inv, err := proc.Process(ctx, path, "")
			return inv, err
		}
	}

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Analisando notas"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!*noBar),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	start := time.Now()
	results := make([]entity.Invoice, len(paths))
	var (
		mu       sync.Mutex
		failures []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Batch.Workers)
	for i, path := range paths {
		g.Go(func() error {
			defer func() { _ = bar.Add(1) }()
			jobCtx, cancel := context.WithTimeout(gctx, cfg.Batch.JobTimeout)
			defer cancel()
			inv, err := analyze(jobCtx, path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				inv = core.ErrorInvoice(filepath.Base(path))
				inv.SourceFile = filepath.Base(path)
			}
			results[i] = inv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		printError("\nInterrupted: %v\n", err)
		os.Exit(1)
	}
	_ = bar.Finish()

	xlsx, err := export.BuildXLSX(results)
	if err != nil {
		logger.Error("failed to build report", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write report", "path", *out, "error", err)
		os.Exit(1)
	}
	if *jsonOut != "" {
		if err := writeJSON(*jsonOut, results); err != nil {
			logger.Error("failed to write json report", "path", *jsonOut, "error", err)
			os.Exit(1)
		}
	}

	s := export.Summarize(results)
	fmt.Printf("\nBatch complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("- Notas analisadas: %d (erros de leitura: %d, overrides: %d)\n", s.Invoices, s.Errors, s.Overrides)
	for _, code := range s.States() {
		fmt.Printf("  - %s: %d\n", code, s.ByState[code])
	}
	fmt.Printf("- Tributadas: %d, não tributadas: %d\n", s.Taxed, s.Untaxed)
	fmt.Printf("- Valor total: %s, ISS: %s (%s%%), retenções: %s\n",
		money.FormatValue(s.TotalValue), money.FormatValue(s.TotalISS), s.EffectiveISSRate.StringFixed(2), money.FormatValue(s.TotalWithholdings))
	fmt.Printf("- Confiança média: %.2f (alta %d, média %d, baixa %d)\n", s.AverageConfidence, s.High, s.Medium, s.Low)
	fmt.Printf("- Relatório: %s\n", *out)
	for _, f := range failures {
		fmt.Printf("! %s\n", f)
	}
}

func writeJSON(path string, invoices []entity.Invoice) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteJSON(f, invoices); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
