package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/inkwell-labs/storyplan/domain/run"
)

// RunStore is an in-memory implementation of run.Store.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*run.Run
}

// NewRunStore creates an empty in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*run.Run)}
}

// Save creates or updates a run. The stored copy is independent of the
// caller's.
func (s *RunStore) Save(ctx context.Context, r *run.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.runs[r.ID] = &cp
	return nil
}

// Get returns a run by ID.
func (s *RunStore) Get(ctx context.Context, id string) (*run.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", run.ErrRunNotFound, id)
	}
	cp := *r
	return &cp, nil
}

// List returns all run IDs.
func (s *RunStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	return ids, nil
}

var _ run.Store = (*RunStore)(nil)
