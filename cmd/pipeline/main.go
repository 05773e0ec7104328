// Package main runs one full refresh of the cohort pipeline.
// Executes: load → clean → cohorts → activity/sybil/revenue → retention/attribution → dimensions → publish
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"defi-cohort-lab/internal/app"
	"defi-cohort-lab/internal/config"
	"defi-cohort-lab/internal/logging"
	"defi-cohort-lab/internal/observability"
	"defi-cohort-lab/internal/orchestrator"
)

func main() {
	// Load .env file if exists
	_ = config.LoadEnvFile(".env")

	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	useFixtures := flag.Bool("use-fixtures", false, "Run against the built-in demo dataset")
	bundlePath := flag.String("bundle", "", "Run against a JSON input bundle")
	exportDir := flag.String("export-dir", "", "Write CSV, Parquet and REPORT.md to this directory")
	noSinks := flag.Bool("no-sinks", false, "Skip database sinks")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *exportDir != "" {
		cfg.Pipeline.OutputDir = *exportDir
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, app.StoreOptions{
		UseFixtures: *useFixtures,
		BundlePath:  *bundlePath,
		NoSinks:     *noSinks,
	}, logger); err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, storeOpts app.StoreOptions, logger *zap.Logger) error {
	stores, err := app.OpenStores(ctx, cfg, storeOpts, logger)
	if err != nil {
		return err
	}
	defer stores.Close()

	opts, err := orchestrator.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	opts.Source = stores.Source
	opts.Sinks = stores.Sinks
	opts.Runs = stores.Runs
	opts.Metrics = observability.NewMetrics("", prometheus.NewRegistry())
	opts.Logger = logger

	result, runErr := orchestrator.New(opts).Run(ctx)
	if result != nil {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return runErr
}
