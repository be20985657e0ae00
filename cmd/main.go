package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/creditrisk/internal/adapters/http/api"
	"github.com/okian/creditrisk/internal/adapters/http/swagger"
	"github.com/okian/creditrisk/internal/adapters/worker"
	"github.com/okian/creditrisk/internal/config"
	"github.com/okian/creditrisk/pkg/logger"
	"github.com/okian/creditrisk/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 15 * time.Second
	writeTimeoutMargin        = 3 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsLatencyBuckets),
		metrics.WithConstLabels(map[string]string{"schema": cfg.SchemaVariant}),
	)

	// The model is loaded and checked before anything listens.
	svc, model, err := build(ctx, cfg, log)
	if err != nil {
		log.Fatal(ctx, "failed to load model",
			logger.String("kind", cfg.ModelKind),
			logger.String("path", cfg.ModelPath),
			logger.Error(err),
		)
	}
	defer func() { _ = model.Close() }()
	log.Info(ctx, "model loaded",
		logger.String("kind", model.Kind()),
		logger.String("version", model.Version()),
		logger.Int("features", len(model.FeatureNames())),
		logger.String("schema", cfg.SchemaVariant),
		logger.Float64("threshold", cfg.RiskThreshold),
	)

	go startSystemMetricsUpdater(ctx)

	pool, err := worker.NewPool(svc,
		worker.WithWorkerCount(cfg.BatchWorkers),
		worker.WithMaxBatch(cfg.BatchMaxRecords),
		worker.WithTimeout(batchTimeout(cfg)),
		worker.WithLogger(log.Named("batch")),
	)
	if err != nil {
		log.Fatal(ctx, "failed to create batch pool", logger.Error(err))
	}

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc,
		api.WithLogger(log.Named("api")),
		api.WithBatchRunner(pool),
	).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.RequestID(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      serverWriteTimeout(cfg),
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	log.Info(shutdownCtx, "server stopped")
}

func batchTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.BatchTimeoutMS) * time.Millisecond
}

// serverWriteTimeout keeps the write deadline above the batch bound so a
// batch that hits its deadline can still send the partial result.
func serverWriteTimeout(cfg *config.Config) time.Duration {
	return max(writeTimeout, batchTimeout(cfg)+writeTimeoutMargin)
}

// startSystemMetricsUpdater periodically publishes runtime metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
