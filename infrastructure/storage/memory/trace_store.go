// Package memory provides in-memory implementations of the storage
// interfaces, suitable for tests and single-process runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/inkwell-labs/storyplan/domain/trace"
)

// TraceStore is an in-memory implementation of trace.Store.
type TraceStore struct {
	mu      sync.RWMutex
	entries map[string][]trace.Entry
}

// NewTraceStore creates an empty in-memory trace store.
func NewTraceStore() *TraceStore {
	return &TraceStore{entries: make(map[string][]trace.Entry)}
}

// Append persists trace entries.
func (s *TraceStore) Append(ctx context.Context, entries ...trace.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		if e.RunID == "" {
			return trace.ErrInvalidRunID
		}
		s.entries[e.RunID] = append(s.entries[e.RunID], e)
	}
	return nil
}

// Get returns all entries for a run in append order.
func (s *TraceStore) Get(ctx context.Context, runID string) ([]trace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	entries, ok := s.entries[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", trace.ErrRunNotFound, runID)
	}

	out := make([]trace.Entry, len(entries))
	copy(out, entries)
	return out, nil
}

// Runs returns the known run IDs.
func (s *TraceStore) Runs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]string, 0, len(s.entries))
	for id := range s.entries {
		runs = append(runs, id)
	}
	return runs, nil
}

var _ trace.Store = (*TraceStore)(nil)
