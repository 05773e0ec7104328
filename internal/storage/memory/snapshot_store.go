package memory

import (
	"context"
	"sync"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
)

// SnapshotStore is an in-memory snapshot sink.
// Publish swaps the whole snapshot under a lock, so readers never observe a
// partially published run.
type SnapshotStore struct {
	mu     sync.RWMutex
	latest *domain.Snapshot
}

// NewSnapshotStore creates an empty snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Compile-time interface checks.
var (
	_ storage.SnapshotPublisher = (*SnapshotStore)(nil)
	_ storage.SnapshotReader    = (*SnapshotStore)(nil)
	_ storage.RowCounter        = (*SnapshotStore)(nil)
)

// Name identifies the sink.
func (s *SnapshotStore) Name() string { return "memory" }

// Publish replaces the current snapshot.
func (s *SnapshotStore) Publish(ctx context.Context, snap *domain.Snapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cp := *snap

	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &cp
	return nil
}

// Latest returns the most recently published snapshot.
func (s *SnapshotStore) Latest(_ context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return nil, storage.ErrNoSnapshot
	}
	cp := *s.latest
	return &cp, nil
}

// RowCounts returns the row count of every table in the current snapshot.
// An empty store reports nothing.
func (s *SnapshotStore) RowCounts(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.latest == nil {
		return map[string]int{}, nil
	}
	return s.latest.RowCounts(), nil
}
