// Package app wires configured stores and sinks for the binaries.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"defi-cohort-lab/internal/config"
	"defi-cohort-lab/internal/pipeline"
	"defi-cohort-lab/internal/retry"
	"defi-cohort-lab/internal/storage"
	chstore "defi-cohort-lab/internal/storage/clickhouse"
	duckstore "defi-cohort-lab/internal/storage/duckdb"
	"defi-cohort-lab/internal/storage/memory"
	"defi-cohort-lab/internal/storage/migrations"
	pgstore "defi-cohort-lab/internal/storage/postgres"
)

// StoreOptions selects the input source.
// With neither option set, raw inputs are read from Postgres.
type StoreOptions struct {
	UseFixtures bool   // read the deterministic demo dataset
	BundlePath  string // read a JSON bundle
	NoSinks     bool   // skip database sinks; only the memory sink is used
}

// Stores holds the opened source, sinks and run log.
type Stores struct {
	Source   storage.SourceReader
	Sinks    []storage.SnapshotPublisher
	Runs     storage.RunStore
	Snapshot *memory.SnapshotStore // always present; serves the latest snapshot in-process

	closers []func()
}

// Close releases every connection.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenPostgres connects with retry and applies migrations.
func OpenPostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgstore.Pool, error) {
	var pool *pgstore.Pool
	err := retry.WithBackoff(ctx, retryConfig(cfg), logger, "connect postgres", func() error {
		var err error
		pool, err = pgstore.NewPool(ctx, cfg.Database.PostgresDSN)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrations: %w", err)
	}
	for _, m := range applied {
		logger.Info("applied postgres migration", zap.Int("version", m.Version), zap.String("name", m.Name))
	}
	return pool, nil
}

// OpenStores opens the source, sinks and run log described by cfg and opts.
func OpenStores(ctx context.Context, cfg *config.Config, opts StoreOptions, logger *zap.Logger) (*Stores, error) {
	s := &Stores{Snapshot: memory.NewSnapshotStore()}
	s.Sinks = append(s.Sinks, s.Snapshot)

	switch {
	case opts.UseFixtures:
		s.Source = pipeline.DemoSource()
		logger.Info("using demo fixtures as input")
	case opts.BundlePath != "":
		bundle, err := pipeline.LoadBundle(opts.BundlePath)
		if err != nil {
			return nil, err
		}
		src := memory.NewSourceStore()
		if _, err := bundle.Seed(ctx, src); err != nil {
			return nil, err
		}
		s.Source = src
		logger.Info("using JSON bundle as input", zap.String("path", opts.BundlePath))
	}

	needPostgres := s.Source == nil || (!opts.NoSinks && cfg.Database.PostgresDSN != "")
	if needPostgres {
		if cfg.Database.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres dsn is required to read raw inputs")
		}
		pool, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if s.Source == nil {
			s.Source = pgstore.NewSourceStore(pool)
		}
		if !opts.NoSinks {
			s.Sinks = append(s.Sinks, pgstore.NewSnapshotPublisher(pool))
			s.Runs = pgstore.NewRunStore(pool)
		}
		logger.Info("connected to postgres")
	}

	if !opts.NoSinks && cfg.Database.ClickhouseDSN != "" {
		var conn *chstore.Conn
		err := retry.WithBackoff(ctx, retryConfig(cfg), logger, "connect clickhouse", func() error {
			var err error
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Database.ClickhouseDSN)
			return err
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { conn.Close() })
		s.Sinks = append(s.Sinks, chstore.NewSnapshotPublisher(conn))
		logger.Info("connected to clickhouse")
	}

	if !opts.NoSinks && cfg.Database.DuckDBPath != "" {
		db, err := duckstore.Open(ctx, cfg.Database.DuckDBPath)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { db.Close() })
		s.Sinks = append(s.Sinks, duckstore.NewSnapshotPublisher(db))
		logger.Info("opened duckdb", zap.String("path", cfg.Database.DuckDBPath))
	}

	if s.Runs == nil {
		s.Runs = memory.NewRunStore()
	}
	return s, nil
}

func retryConfig(cfg *config.Config) retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxRetries = cfg.Retry.MaxRetries
	if cfg.Retry.InitialDelay > 0 {
		rc.InitialDelay = cfg.Retry.InitialDelay
	}
	if cfg.Retry.MaxDelay > 0 {
		rc.MaxDelay = cfg.Retry.MaxDelay
	}
	return rc
}
