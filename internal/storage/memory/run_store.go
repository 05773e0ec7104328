package memory

import (
	"context"
	"sort"
	"sync"

	"defi-cohort-lab/internal/domain"
	"defi-cohort-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.PipelineRun
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{data: make(map[string]*domain.PipelineRun)}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

func cloneRun(r *domain.PipelineRun) *domain.PipelineRun {
	cp := *r
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		cp.CompletedAt = &t
	}
	cp.InputRows = cloneCounts(r.InputRows)
	cp.OutputRows = cloneCounts(r.OutputRows)
	return &cp
}

func cloneCounts(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Insert adds a new run. Returns ErrDuplicateKey if the id exists.
func (s *RunStore) Insert(_ context.Context, run *domain.PipelineRun) error {
	if run == nil || run.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.ID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[run.ID] = cloneRun(run)
	return nil
}

// Update overwrites an existing run. Returns ErrNotFound if absent.
func (s *RunStore) Update(_ context.Context, run *domain.PipelineRun) error {
	if run == nil || run.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.ID]; !exists {
		return storage.ErrNotFound
	}
	s.data[run.ID] = cloneRun(run)
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if absent.
func (s *RunStore) GetByID(_ context.Context, id string) (*domain.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneRun(run), nil
}

// List returns up to limit runs ordered by started_at DESC, id DESC.
func (s *RunStore) List(_ context.Context, limit int) ([]*domain.PipelineRun, error) {
	s.mu.RLock()
	out := make([]*domain.PipelineRun, 0, len(s.data))
	for _, r := range s.data {
		out = append(out, cloneRun(r))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].ID > out[j].ID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
