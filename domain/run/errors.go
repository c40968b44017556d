package run

import "errors"

var (
	// ErrInvalidTransition indicates a lifecycle transition the phase
	// graph does not allow.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrUnknownMode indicates an unrecognized dispatch mode name.
	ErrUnknownMode = errors.New("unknown dispatch mode")

	// ErrRunNotFound indicates the requested run does not exist.
	ErrRunNotFound = errors.New("run not found")
)
