package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
)

func TestRunStore_InsertUpdateGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)
	started := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	run := &domain.PipelineRun{
		ID:        "run-1",
		Status:    domain.RunStatusRunning,
		StartedAt: started,
		InputRows: map[string]int{"transactions": 120},
	}
	require.NoError(t, store.Insert(ctx, run))
	assert.ErrorIs(t, store.Insert(ctx, run), storage.ErrDuplicateKey)

	done := started.Add(90 * time.Second)
	run.Status = domain.RunStatusSuccess
	run.CompletedAt = &done
	run.OutputRows = map[string]int{domain.TableWalletCohorts: 40}
	run.DataVersion = "abc123"
	require.NoError(t, store.Update(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusSuccess, got.Status)
	assert.True(t, got.StartedAt.Equal(started))
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))
	assert.Equal(t, 120, got.InputRows["transactions"])
	assert.Equal(t, 40, got.OutputRows[domain.TableWalletCohorts])
	assert.Equal(t, "abc123", got.DataVersion)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, &domain.PipelineRun{ID: "missing", Status: domain.RunStatusFailed}), storage.ErrNotFound)
}

func TestRunStore_List(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Insert(ctx, &domain.PipelineRun{
			ID: id, Status: domain.RunStatusFailed, StartedAt: base.Add(time.Duration(i) * time.Hour), Error: "boom",
		}))
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, "boom", runs[0].Error)

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
