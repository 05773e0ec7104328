// Package main seeds the raw Postgres tables from a JSON bundle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"defi-cohort-lab/internal/app"
	"defi-cohort-lab/internal/config"
	"defi-cohort-lab/internal/logging"
	"defi-cohort-lab/internal/pipeline"
	pgstore "defi-cohort-lab/internal/storage/postgres"
)

func main() {
	// Load .env file if exists
	_ = config.LoadEnvFile(".env")

	configPath := flag.String("config", "", "Path to YAML config file")
	bundlePath := flag.String("bundle", "", "JSON bundle to load")
	demo := flag.Bool("demo", false, "Load the built-in demo dataset instead of a bundle")
	writeDemo := flag.String("write-demo", "", "Write the demo dataset as a JSON bundle to this path and exit")
	flag.Parse()

	if *writeDemo != "" {
		if err := pipeline.WriteBundle(*writeDemo, pipeline.DemoBundle()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

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

	if *bundlePath == "" && !*demo {
		logger.Fatal("--bundle or --demo is required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bundle := pipeline.DemoBundle()
	if *bundlePath != "" {
		bundle, err = pipeline.LoadBundle(*bundlePath)
		if err != nil {
			logger.Fatal("load bundle", zap.Error(err))
		}
	}

	pool, err := app.OpenPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open postgres", zap.Error(err))
	}
	defer pool.Close()

	counts, err := bundle.Seed(ctx, pgstore.NewSourceStore(pool))
	if err != nil {
		logger.Fatal("seed raw tables", zap.Error(err))
	}
	logger.Info("raw tables loaded", zap.Any("rows", counts))
}
