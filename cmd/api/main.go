// Package main is the entry point for the ranking API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/yojanahub/avsar/internal/api"
	"github.com/yojanahub/avsar/internal/config"
	"github.com/yojanahub/avsar/internal/db"
	"github.com/yojanahub/avsar/internal/explain"
	"github.com/yojanahub/avsar/internal/feedback"
	"github.com/yojanahub/avsar/internal/health"
	"github.com/yojanahub/avsar/internal/jobs"
	"github.com/yojanahub/avsar/internal/middleware"
	"github.com/yojanahub/avsar/internal/modelscore"
	"github.com/yojanahub/avsar/internal/ranking"
	"github.com/yojanahub/avsar/internal/tracing"
)

func main() {
	help := flag.Bool("help", false, "display help message")
	configPath := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	if *help {
		fmt.Println("Avsar Ranking API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
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

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "summary", cfg.LogSummary())

	ctx := context.Background()

	// Tracing
	tracerProvider, err := tracing.NewProvider(tracing.Config{
		ServiceName:  "avsar-api",
		Enabled:      cfg.TracingEnabled,
		Environment:  cfg.Env,
		ExporterType: cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplingRate: cfg.TracingSampleRate,
		InsecureMode: cfg.TracingInsecure,
	})
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Metrics registry and per-package collectors
	registry := prometheus.NewRegistry()

	httpMetrics := middleware.NewMetrics()
	rankingMetrics := ranking.NewMetrics()
	feedbackMetrics := feedback.NewMetrics()
	jobMetrics := jobs.NewMetrics()
	for name, register := range map[string]func(prometheus.Registerer) error{
		"http":     httpMetrics.Register,
		"ranking":  rankingMetrics.Register,
		"feedback": feedbackMetrics.Register,
		"jobs":     jobMetrics.Register,
	} {
		if err := register(registry); err != nil {
			logger.Error("failed to register metrics", "component", name, "error", err)
			os.Exit(1)
		}
	}

	// Storage: Postgres when configured, in-memory otherwise
	var (
		pool       *sql.DB
		eventStore feedback.EventStore
		dbChecker  api.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		pool, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		eventStore = feedback.NewPostgresEventStore(pool, logger)
		dbChecker = health.NewDBChecker(pool)
		logger.Info("using postgres event store")
	} else {
		eventStore = feedback.NewInMemoryEventStore()
		logger.Info("using in-memory event store")
	}

	// Redis multiplier cache
	var (
		multiplierCache feedback.MultiplierCache
		redisChecker    api.HealthChecker
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		multiplierCache = feedback.NewRedisMultiplierCache(redisClient, feedback.DefaultCacheTTL)
		redisChecker = health.NewRedisChecker(redisClient)
		logger.Info("multiplier cache enabled")
	}

	// Feedback ledger
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

	// Rule weights: defaults, optionally overridden by a calibration file
	weights := ranking.DefaultWeights()
	if cfg.CalibrationPath != "" {
		calibrated, err := ranking.LoadCalibration(cfg.CalibrationPath)
		if err != nil {
			logger.Warn("weight calibration failed, using defaults", "error", err)
		}
		weights = calibrated
	}

	// Learned scorer: probe once at startup, rule scoring is the fallback
	var model ranking.Scorer
	if scorer, err := modelscore.Load(cfg.ModelArtifactPath); err == nil {
		model = scorer
		logger.Info("model scorer loaded", "version", scorer.Version())
	} else {
		logger.Warn("model scorer unavailable, falling back to rule scoring", "error", err)
	}

	engine, err := ranking.NewEngine(ranking.EngineConfig{
		Weights:     *weights,
		Model:       model,
		Multipliers: ledger,
		Explainer:   explain.NewBuilder(nil),
		DefaultTopK: cfg.TopKDefault,
		Logger:      logger,
		Metrics:     rankingMetrics,
		Tracer:      tracerProvider.Tracer("avsar/ranking"),
	})
	if err != nil {
		logger.Error("failed to construct ranking engine", "error", err)
		os.Exit(1)
	}

	// Background multiplier recompute job
	recomputeJob := feedback.NewRecomputeJob(feedback.RecomputeJobConfig{
		Interval:   time.Duration(cfg.RecomputeIntervalSeconds) * time.Second,
		Logger:     logger,
		Metrics:    feedbackMetrics,
		JobMetrics: jobMetrics,
	}, ledger, multiplierCache)
	if err := recomputeJob.Start(ctx); err != nil {
		logger.Error("failed to start recompute job", "error", err)
		os.Exit(1)
	}

	// HTTP handlers and routes
	rankHandlers := api.NewRankHandlers(engine, logger)
	feedbackHandlers := api.NewFeedbackHandlers(ledger, logger)
	healthHandlers := api.NewHealthHandlers(api.HealthHandlersConfig{
		DBChecker:      dbChecker,
		RedisChecker:   redisChecker,
		MetricsEnabled: true,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/rank", rankHandlers.Rank)
	mux.HandleFunc("/v1/feedback", feedbackHandlers.Record)
	mux.HandleFunc("/v1/users/", feedbackHandlers.Multipliers)
	mux.HandleFunc("/health", healthHandlers.Health)
	mux.HandleFunc("/ready", healthHandlers.Ready)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
			api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "The requested resource was not found")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"service":"avsar-api","version":"0.0.1"}`)); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	// Apply middleware: RequestID -> Tracing -> Logging -> HTTPMetrics
	handler := middleware.RequestID(
		middleware.Tracing("avsar-api")(
			middleware.Logging(logger)(
				middleware.HTTPMetrics(httpMetrics)(mux))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	recomputeJob.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shut down tracer provider", "error", err)
	}

	logger.Info("server stopped")
}
