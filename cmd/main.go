package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/kaliber/internal/adapters/http/api"
	"github.com/okian/kaliber/internal/adapters/http/swagger"
	"github.com/okian/kaliber/internal/adapters/repository"
	app "github.com/okian/kaliber/internal/app"
	"github.com/okian/kaliber/internal/config"
	"github.com/okian/kaliber/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 15 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Select the feedback store backend.
	var store repository.Store
	switch cfg.Store {
	case config.StoreSQLite:
		sqliteStore, err := repository.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			os.Stderr.WriteString("failed to open sqlite store: " + err.Error() + "\n")
			return
		}
		defer func() {
			if err := sqliteStore.Close(); err != nil {
				loggerInstance.Error(ctx, "failed to close sqlite store", logger.Error(err))
			}
		}()
		store = sqliteStore
		loggerInstance.Info(ctx, "using sqlite feedback store", logger.String("path", cfg.SQLitePath))
	default:
		store = repository.NewMemoryStore()
		loggerInstance.Info(ctx, "using in-memory feedback store")
	}

	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithStore(store),
		app.WithMaturationWindow(time.Duration(cfg.MaturationWindowDays)*24*time.Hour),
		app.WithMaxWindow(time.Duration(cfg.MaxWindowDays)*24*time.Hour),
		app.WithBatchWorkerCount(cfg.BatchWorkerCount),
		app.WithEntityFeedbackLimit(cfg.EntityFeedbackLimit),
		app.WithStrictOutcome(cfg.StrictOutcome),
		app.WithTrainingThreshold(cfg.TrainingThreshold),
	)

	// Background updaters.
	go startServiceMetricsUpdater(ctx, svc)
	if cfg.MaturationIntervalMinutes > 0 {
		go startMaturationScheduler(ctx, svc, time.Duration(cfg.MaturationIntervalMinutes)*time.Minute)
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// API docs under /api-docs, spec under /openapi.yaml
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater refreshes the service gauges periodically.
// GetStats updates the gauges as a side effect of collecting them.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}

// startMaturationScheduler runs the pending-outcome batch scan on a fixed
// interval so executed recommendations get measured without operator action.
func startMaturationScheduler(ctx context.Context, svc *app.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.MeasurePendingOutcomes(ctx); err != nil {
				logger.Get().Error(ctx, "scheduled maturation scan failed", logger.Error(err))
			}
		}
	}
}
