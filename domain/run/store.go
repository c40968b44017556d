package run

import "context"

// Store persists run records.
type Store interface {
	// Save creates or updates a run.
	Save(ctx context.Context, r *Run) error

	// Get returns a run by ID, or ErrRunNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns all run IDs.
	List(ctx context.Context) ([]string, error)
}
