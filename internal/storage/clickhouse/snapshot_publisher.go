package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
	"defi-cohort-lab/internal/tables"
)

// stagingSuffix names the shadow table filled before each swap.
const stagingSuffix = "_staging"

// StagingTable returns the shadow table name of an output table.
func StagingTable(name string) string { return name + stagingSuffix }

// ResetStagingTables recreates the staging copy of every output table from the
// live table definition. Run it after any schema change to the live tables.
func ResetStagingTables(ctx context.Context, conn *Conn) error {
	for _, name := range tables.Names {
		staging := StagingTable(name)
		if err := conn.Exec(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
			return fmt.Errorf("drop %s: %w", staging, err)
		}
	}
	return EnsureStagingTables(ctx, conn)
}

// EnsureStagingTables creates any missing staging table.
func EnsureStagingTables(ctx context.Context, conn *Conn) error {
	for _, name := range tables.Names {
		staging := StagingTable(name)
		if err := conn.Exec(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s AS %s", staging, name)); err != nil {
			return fmt.Errorf("create %s: %w", staging, err)
		}
	}
	return nil
}

// SnapshotPublisher implements storage.SnapshotPublisher using ClickHouse.
//
// Every table is first loaded into its staging copy. Only when all staging
// tables are loaded are they swapped in with EXCHANGE TABLES. Each EXCHANGE is
// atomic per table; if one fails, the tables already swapped are exchanged
// back so the live tables keep the previous run.
type SnapshotPublisher struct {
	conn *Conn
}

// NewSnapshotPublisher creates a new SnapshotPublisher.
// The staging tables must exist; see ResetStagingTables.
func NewSnapshotPublisher(conn *Conn) *SnapshotPublisher {
	return &SnapshotPublisher{conn: conn}
}

// Compile-time interface checks.
var (
	_ storage.SnapshotPublisher = (*SnapshotPublisher)(nil)
	_ storage.RowCounter        = (*SnapshotPublisher)(nil)
)

// Name identifies the sink.
func (p *SnapshotPublisher) Name() string { return "clickhouse" }

// Publish replaces all fact and dimension tables with the snapshot contents.
func (p *SnapshotPublisher) Publish(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	tbls := tables.FromSnapshot(snap)
	for _, t := range tbls {
		if err := p.stage(ctx, t); err != nil {
			p.truncateStaging(ctx, tbls)
			return err
		}
	}

	for i, t := range tbls {
		if err := p.exchange(ctx, t.Name); err != nil {
			err = fmt.Errorf("exchange %s: %w", t.Name, err)
			if rbErr := p.rollback(ctx, tbls[:i]); rbErr != nil {
				return errors.Join(err, rbErr)
			}
			p.truncateStaging(ctx, tbls)
			return err
		}
	}

	// Staging tables now hold the previous run
	p.truncateStaging(ctx, tbls)
	return nil
}

// stage empties the staging table of t and loads its rows.
func (p *SnapshotPublisher) stage(ctx context.Context, t *tables.Table) error {
	staging := StagingTable(t.Name)

	if err := p.conn.Exec(ctx, "TRUNCATE TABLE "+staging); err != nil {
		return fmt.Errorf("truncate %s: %w", staging, err)
	}
	if len(t.Rows) == 0 {
		return nil
	}

	batch, err := p.conn.PrepareBatch(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s)", staging, strings.Join(t.ColumnNames(), ", "),
	))
	if err != nil {
		return fmt.Errorf("prepare batch %s: %w", staging, err)
	}

	for _, row := range t.Rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("append to batch %s: %w", staging, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch %s: %w", staging, err)
	}
	return nil
}

func (p *SnapshotPublisher) exchange(ctx context.Context, name string) error {
	return p.conn.Exec(ctx, fmt.Sprintf("EXCHANGE TABLES %s AND %s", StagingTable(name), name))
}

// rollback swaps back tables that were already exchanged, newest first.
// It runs even if ctx was cancelled mid-publish.
func (p *SnapshotPublisher) rollback(ctx context.Context, swapped []*tables.Table) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(swapped) - 1; i >= 0; i-- {
		if err := p.exchange(ctx, swapped[i].Name); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", swapped[i].Name, err))
		}
	}
	return errors.Join(errs...)
}

func (p *SnapshotPublisher) truncateStaging(ctx context.Context, tbls []*tables.Table) {
	for _, t := range tbls {
		_ = p.conn.Exec(context.WithoutCancel(ctx), "TRUNCATE TABLE IF EXISTS "+StagingTable(t.Name))
	}
}

// RowCounts returns the number of published rows per table.
func (p *SnapshotPublisher) RowCounts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(tables.Names))
	for _, name := range tables.Names {
		var n uint64
		if err := p.conn.QueryRow(ctx, "SELECT count() FROM "+name).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out[name] = int(n)
	}
	return out, nil
}
