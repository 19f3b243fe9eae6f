package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/nfse-extractor/internal/app"
	"github.com/joseph-ayodele/nfse-extractor/internal/async"
	"github.com/joseph-ayodele/nfse-extractor/internal/common"
	"github.com/joseph-ayodele/nfse-extractor/internal/core"
	"github.com/joseph-ayodele/nfse-extractor/internal/export"
	"github.com/joseph-ayodele/nfse-extractor/internal/ingest"
	"github.com/joseph-ayodele/nfse-extractor/internal/server"
)

func main() {
	logger := app.NewLogger(os.Stdout, getenv("LOG_FORMAT", "text"), getenv("LOG_LEVEL", "info"))
	slog.SetDefault(logger)

	if err := common.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	addr := cfg.Server.GRPCAddr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	analyzer, err := app.NewAnalyzer(cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	processor := core.NewProcessor(logger, analyzer, store)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithProcessTimeout(cfg.Batch.JobTimeout),
		async.WithResultHandler(func(o async.Outcome) {
			if o.Err != nil {
				logger.Warn("nfsed.job.failed", "job_id", o.Job.ID, "file", o.Job.FileName, "err", o.Err)
			}
		}),
	)

	if len(cfg.Batch.WatchDirs) > 0 {
		paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       cfg.Batch.WatchDirs,
			InitialScan: true,
			SkipHidden:  true,
		}, logger)
		if err != nil {
			logger.Error("failed to start watcher", "dirs", cfg.Batch.WatchDirs, "error", err)
			os.Exit(1)
		}
		go func() {
			for range errs {
			}
		}()
		go ingest.Forward(ctx, paths, queue, logger)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", addr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(server.LoggingInterceptor(logger)))

	svc := server.NewInvoiceService(processor, store, export.NewService(store, logger), queue, logger)
	server.Register(grpcServer, svc)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("nfsed listening", "addr", addr, "store", store.Kind, "watch_dirs", cfg.Batch.WatchDirs)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
