package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
	"defi-cohort-lab/internal/tables"
)

// AnalyticsSchema holds the published output tables.
const AnalyticsSchema = "analytics"

// SnapshotPublisher implements storage.SnapshotPublisher over the analytics schema.
// Every table is truncated and refilled with COPY inside one transaction, so
// readers see either the previous run or the new one.
type SnapshotPublisher struct {
	pool *Pool
}

// NewSnapshotPublisher creates a new SnapshotPublisher.
func NewSnapshotPublisher(pool *Pool) *SnapshotPublisher {
	return &SnapshotPublisher{pool: pool}
}

// Compile-time interface check.
var (
	_ storage.SnapshotPublisher = (*SnapshotPublisher)(nil)
	_ storage.RowCounter        = (*SnapshotPublisher)(nil)
)

// Name identifies the sink.
func (p *SnapshotPublisher) Name() string { return "postgres" }

// Publish replaces all analytics tables with the snapshot contents.
func (p *SnapshotPublisher) Publish(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range tables.FromSnapshot(snap) {
		ident := pgx.Identifier{AnalyticsSchema, t.Name}
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+ident.Sanitize()); err != nil {
			return fmt.Errorf("truncate %s: %w", t.Name, err)
		}
		if len(t.Rows) == 0 {
			continue
		}
		if _, err := tx.CopyFrom(ctx, ident, t.ColumnNames(), pgx.CopyFromRows(t.Rows)); err != nil {
			return fmt.Errorf("copy %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RowCounts returns the number of published rows per analytics table.
func (p *SnapshotPublisher) RowCounts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(tables.Names))
	for _, name := range tables.Names {
		var n int
		query := "SELECT count(*) FROM " + pgx.Identifier{AnalyticsSchema, name}.Sanitize()
		if err := p.pool.QueryRow(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}
