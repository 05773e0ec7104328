package duckdb

import (
	"context"
	"fmt"
	"strings"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
	"defi-cohort-lab/internal/tables"
)

// SnapshotPublisher implements storage.SnapshotPublisher using DuckDB.
// Tables are created on first publish from the shared column encoding.
type SnapshotPublisher struct {
	db *DB
}

// NewSnapshotPublisher creates a new SnapshotPublisher.
func NewSnapshotPublisher(db *DB) *SnapshotPublisher {
	return &SnapshotPublisher{db: db}
}

// Compile-time interface check.
var (
	_ storage.SnapshotPublisher = (*SnapshotPublisher)(nil)
	_ storage.RowCounter        = (*SnapshotPublisher)(nil)
)

// Name identifies the sink.
func (p *SnapshotPublisher) Name() string { return "duckdb" }

// Publish replaces every output table inside a single transaction.
func (p *SnapshotPublisher) Publish(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables.FromSnapshot(snap) {
		if _, err := tx.ExecContext(ctx, createTableSQL(t)); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.Name); err != nil {
			return fmt.Errorf("clear %s: %w", t.Name, err)
		}
		if len(t.Rows) == 0 {
			continue
		}

		stmt, err := tx.PrepareContext(ctx, insertSQL(t))
		if err != nil {
			return fmt.Errorf("prepare insert %s: %w", t.Name, err)
		}
		for _, row := range t.Rows {
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				stmt.Close()
				return fmt.Errorf("insert %s: %w", t.Name, err)
			}
		}
		stmt.Close()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RowCounts returns the number of published rows per table.
// Tables never published report zero.
func (p *SnapshotPublisher) RowCounts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(tables.Names))
	for _, name := range tables.Names {
		var exists int
		err := p.db.QueryRowContext(ctx,
			"SELECT count(*) FROM information_schema.tables WHERE table_name = ?", name,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", name, err)
		}
		if exists == 0 {
			out[name] = 0
			continue
		}

		var n int
		if err := p.db.QueryRowContext(ctx, "SELECT count(*) FROM "+name).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}

func sqlType(t tables.Type) string {
	switch t {
	case tables.Int:
		return "BIGINT"
	case tables.Float, tables.NullableFloat:
		return "DOUBLE"
	case tables.Bool:
		return "BOOLEAN"
	case tables.Date:
		return "DATE"
	case tables.Timestamp:
		return "TIMESTAMP"
	default:
		return "VARCHAR"
	}
}

func createTableSQL(t *tables.Table) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		def := c.Name + " " + sqlType(c.Type)
		if c.Type != tables.NullableFloat {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", "))
}

func insertSQL(t *tables.Table) string {
	placeholders := make([]string, len(t.Columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(t.ColumnNames(), ", "), strings.Join(placeholders, ", "))
}
