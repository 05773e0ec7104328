// Package duckdb publishes snapshots into a local DuckDB file for ad-hoc analysis.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
)

// DB wraps a DuckDB database handle.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the DuckDB database at path.
// An empty path opens an in-memory database.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &DB{DB: db}, nil
}
