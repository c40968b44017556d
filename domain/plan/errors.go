package plan

import "errors"

// Domain errors for plan construction.
var (
	// ErrUnsoundSequence indicates the action sequence has a precondition
	// that neither the initial state nor any earlier step establishes.
	ErrUnsoundSequence = errors.New("unsound action sequence")
)
