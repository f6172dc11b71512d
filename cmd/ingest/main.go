// Package main is the entry point for the feedback firehose consumer.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yojanahub/avsar/internal/config"
	"github.com/yojanahub/avsar/internal/db"
	"github.com/yojanahub/avsar/internal/feedback"
	"github.com/yojanahub/avsar/internal/ingest"
	"github.com/yojanahub/avsar/internal/middleware"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to optional YAML config file")
	metricsPort := flag.Int("metrics-port", 9091, "port for the metrics endpoint")
	flag.Parse()

	if *help {
		fmt.Println("Avsar Feedback Firehose Consumer")
		fmt.Println()
		fmt.Println("Usage: ingest [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Fprintln(os.Stderr, "config error:", err)
		}
		os.Exit(1)
	}
	if cfg.FirehoseURL == "" {
		fmt.Fprintln(os.Stderr, "config error: FIREHOSE_URL is required")
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()

	ingestMetrics := ingest.NewMetrics()
	feedbackMetrics := feedback.NewMetrics()
	if err := ingestMetrics.Register(registry); err != nil {
		logger.Error("failed to register ingest metrics", "error", err)
		os.Exit(1)
	}
	if err := feedbackMetrics.Register(registry); err != nil {
		logger.Error("failed to register feedback metrics", "error", err)
		os.Exit(1)
	}

	// Storage and cursor persistence
	var (
		eventStore feedback.EventStore
		cursor     ingest.CursorTracker
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		eventStore = feedback.NewPostgresEventStore(pool, logger)
		cursor = ingest.NewPostgresCursorTracker(pool, logger)
		logger.Info("using postgres event store and cursor")
	} else {
		eventStore = feedback.NewInMemoryEventStore()
		cursor = ingest.NewInMemoryCursorTracker(logger)
		logger.Warn("DATABASE_URL not set; events and cursor will not survive restarts")
	}

	ledger, err := feedback.NewLedger(feedback.LedgerConfig{
		Floor:      cfg.MultiplierFloor,
		Ceiling:    cfg.MultiplierCeiling,
		WindowSize: cfg.FeedbackWindow,
		Logger:     logger,
		Metrics:    feedbackMetrics,
	}, eventStore)
	if err != nil {
		logger.Error("failed to construct feedback ledger", "error", err)
		os.Exit(1)
	}
	if err := ledger.Warm(ctx); err != nil {
		logger.Error("failed to warm feedback ledger", "error", err)
		os.Exit(1)
	}

	handler := ingest.NewHandler(ledger, cursor, logger, ingestMetrics)
	lastSeq, err := handler.Resume(ctx)
	if err != nil {
		logger.Error("failed to resume from persisted cursor", "error", err)
		os.Exit(1)
	}
	logger.Info("resuming firehose consumption", "last_sequence", lastSeq)

	client, err := ingest.NewClient(ingest.DefaultConfig(cfg.FirehoseURL), handler.HandlerFunc(ctx), logger)
	if err != nil {
		logger.Error("failed to construct firehose client", "error", err)
		os.Exit(1)
	}

	// Metrics endpoint for Prometheus scraping
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *metricsPort),
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	defer metricsServer.Close()

	logger.Info("starting firehose consumer", "url", cfg.FirehoseURL)
	if err := client.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("firehose consumer stopped", "error", err)
		os.Exit(1)
	}

	logger.Info("firehose consumer stopped")
}
