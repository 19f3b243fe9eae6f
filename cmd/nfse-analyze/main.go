package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joseph-ayodele/nfse-extractor/internal/app"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/core"
	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
	"github.com/joseph-ayodele/nfse-extractor/internal/export"
)

func main() {
	var (
		name     = flag.String("name", "", "name the document was submitted under (defaults to the file name)")
		store    = flag.Bool("store", false, "save the result in the configured store")
		logLevel = flag.String("log-level", "warn", "debug|info|warn|error")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.pdf [file.pdf ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *name != "" && flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Error: --name only applies to a single file")
		os.Exit(2)
	}

	logger := app.NewLogger(os.Stderr, "text", *logLevel)
	if err := common.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	analyzer, err := app.NewAnalyzer(cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	analyze := func(ctx context.Context, path, fileName string) (entity.Invoice, error) {
		return analyzer.Analyze(ctx, path, fileName)
	}
	if *store {
		st, err := app.OpenStore(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to open store", "error", err)
			os.Exit(1)
		}
		defer st.Close()
		proc := core.NewProcessor(logger, analyzer, st)
		analyze = func(ctx context.Context, path, fileName string) (entity.Invoice, error) {
			_, inv, err := proc.Process(ctx, path, fileName)
			return inv, err
		}
	}

	var invoices []entity.Invoice
	failed := 0
	for _, path := range flag.Args() {
		inv, err := analyze(ctx, path, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		invoices = append(invoices, inv)
	}
	if err := export.WriteJSON(os.Stdout, invoices); err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
