package world

import "errors"

// Domain errors for world state handling.
var (
	// ErrUnsupportedValueType indicates a fact value is not a boolean,
	// number, or string.
	ErrUnsupportedValueType = errors.New("unsupported fact value type")

	// ErrUnknownFact indicates a referenced fact key is not known.
	ErrUnknownFact = errors.New("unknown fact key")
)
