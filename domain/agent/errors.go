package agent

import "errors"

// Domain errors for the agent model.
var (
	// ErrInvalidRole indicates the role is not a recognized canonical role.
	ErrInvalidRole = errors.New("invalid agent role")

	// ErrInvalidPoolSize indicates the pool was created with a non-positive size.
	ErrInvalidPoolSize = errors.New("agent pool size must be positive")
)
