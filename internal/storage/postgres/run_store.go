package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
)

// RunStore implements storage.RunStore over analytics.pipeline_runs.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

func countsOrEmpty(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

// Insert adds a new run. Returns ErrDuplicateKey if the id exists.
func (s *RunStore) Insert(ctx context.Context, run *domain.PipelineRun) error {
	if run == nil || run.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analytics.pipeline_runs (
			id, status, started_at, completed_at, input_rows, output_rows, data_version, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.StartedAt,
		run.CompletedAt,
		countsOrEmpty(run.InputRows),
		countsOrEmpty(run.OutputRows),
		run.DataVersion,
		run.Error,
	)
	return storageError("insert run", err)
}

// Update overwrites an existing run. Returns ErrNotFound if absent.
func (s *RunStore) Update(ctx context.Context, run *domain.PipelineRun) error {
	if run == nil || run.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE analytics.pipeline_runs SET
			status = $2,
			completed_at = $3,
			input_rows = $4,
			output_rows = $5,
			data_version = $6,
			error_message = $7
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.CompletedAt,
		countsOrEmpty(run.InputRows),
		countsOrEmpty(run.OutputRows),
		run.DataVersion,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if absent.
func (s *RunStore) GetByID(ctx context.Context, id string) (*domain.PipelineRun, error) {
	query := `
		SELECT id, status, started_at, completed_at, input_rows, output_rows, data_version, error_message
		FROM analytics.pipeline_runs
		WHERE id = $1
	`

	run, err := scanRun(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storageError("get run by id", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. limit <= 0 means all.
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.PipelineRun, error) {
	query := `
		SELECT id, status, started_at, completed_at, input_rows, output_rows, data_version, error_message
		FROM analytics.pipeline_runs
		ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// scanRun scans a single row into a PipelineRun.
func scanRun(row pgx.Row) (*domain.PipelineRun, error) {
	var r domain.PipelineRun
	err := row.Scan(
		&r.ID,
		&r.Status,
		&r.StartedAt,
		&r.CompletedAt,
		&r.InputRows,
		&r.OutputRows,
		&r.DataVersion,
		&r.Error,
	)
	if err != nil {
		return nil, err
	}

	r.StartedAt = r.StartedAt.UTC()
	if r.CompletedAt != nil {
		t := r.CompletedAt.UTC()
		r.CompletedAt = &t
	}
	return &r, nil
}
