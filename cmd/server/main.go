package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orcafacil/backend/cmd/api"
	"github.com/orcafacil/backend/pkg/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("starting quote import service")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := api.InitDependencies(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Cleanup()

	if err := deps.Scheduler.Start(); err != nil {
		logger.Error("failed to start expiry scheduler", "error", err)
		os.Exit(1)
	}

	if cfg.Observability.MetricsEnabled {
		go startMetricsServer(ctx, cfg, logger)
	}

	// The intake loop is the main workload; it returns when ctx is canceled.
	if err := deps.Intake.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("intake error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// startMetricsServer exposes the prometheus registry on its own port
func startMetricsServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Observability.MetricsPort)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics server started", "addr", addr, "endpoint", "/metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server error", "error", err)
	}
}
