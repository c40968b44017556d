package trace

import "context"

// Store defines the interface for trace persistence. Implementations may
// be in-memory or backed by an embedded database; visualization tooling
// reads through this interface.
type Store interface {
	// Append persists entries for a run in order.
	Append(ctx context.Context, entries ...Entry) error

	// Get returns all entries for a run in sequence order.
	Get(ctx context.Context, runID string) ([]Entry, error)

	// Runs returns the known run IDs.
	Runs(ctx context.Context) ([]string, error)
}
