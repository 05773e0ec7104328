// Package main runs the scheduled pipeline service:
// - Pipeline (cron): full refresh on the configured schedule
// - HTTP: /health, /metrics, /status, /runs, /ws/runs
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"defi-cohort-lab/internal/api"
	"defi-cohort-lab/internal/app"
	"defi-cohort-lab/internal/config"
	"defi-cohort-lab/internal/logging"
	"defi-cohort-lab/internal/observability"
	"defi-cohort-lab/internal/orchestrator"
)

func main() {
	// Load .env file if exists
	_ = config.LoadEnvFile(".env")

	configPath := flag.String("config", "", "Path to YAML config file")
	useFixtures := flag.Bool("use-fixtures", false, "Run against the built-in demo dataset")
	bundlePath := flag.String("bundle", "", "Run against a JSON input bundle")
	runOnStart := flag.Bool("run-on-start", true, "Run the pipeline once at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := serve(ctx, cfg, app.StoreOptions{UseFixtures: *useFixtures, BundlePath: *bundlePath}, *runOnStart, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *config.Config, storeOpts app.StoreOptions, runOnStart bool, logger *zap.Logger) error {
	stores, err := app.OpenStores(ctx, cfg, storeOpts, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	opts, err := orchestrator.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	hub := api.NewHub(logger)
	opts.Source = stores.Source
	opts.Sinks = stores.Sinks
	opts.Runs = stores.Runs
	opts.Metrics = observability.NewMetrics("", nil)
	opts.Logger = logger
	opts.OnRun = hub.BroadcastRun

	srv := api.NewServer(ctx, orchestrator.New(opts), stores.Runs, stores.Sinks, hub, logger)

	// Seconds field, optional
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	scheduler := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger)))
	if _, err := scheduler.AddFunc(cfg.Server.Schedule, func() {
		if _, _, err := srv.TriggerRun(ctx); err != nil {
			logger.Error("scheduled run failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Server.Schedule, err)
	}
	scheduler.Start()
	logger.Info("Cron started", zap.String("schedule", cfg.Server.Schedule))
	defer func() { <-scheduler.Stop().Done() }()

	if runOnStart {
		go func() {
			if _, _, err := srv.TriggerRun(ctx); err != nil {
				logger.Error("startup run failed", zap.Error(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
