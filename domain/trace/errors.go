package trace

import "errors"

// Domain errors for trace persistence.
var (
	// ErrRunNotFound indicates no trace exists for the requested run.
	ErrRunNotFound = errors.New("trace not found for run")

	// ErrInvalidRunID indicates an empty or malformed run ID.
	ErrInvalidRunID = errors.New("invalid run ID")
)
