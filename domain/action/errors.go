package action

import (
	"errors"
	"fmt"
)

// Domain errors for the action catalog.
var (
	// ErrEmptyID indicates an action was registered without an ID.
	ErrEmptyID = errors.New("action ID cannot be empty")

	// ErrEmptyName indicates an action was registered without a name.
	ErrEmptyName = errors.New("action name cannot be empty")

	// ErrNoEffects indicates an action declares no effects.
	ErrNoEffects = errors.New("action has no effects")

	// ErrNegativeCost indicates an action declares a negative cost.
	ErrNegativeCost = errors.New("action cost cannot be negative")

	// ErrEmptyEffectKey indicates an effect references an empty fact key.
	ErrEmptyEffectKey = errors.New("effect fact key cannot be empty")

	// ErrEmptyPreconditionKey indicates a precondition references an empty fact key.
	ErrEmptyPreconditionKey = errors.New("precondition fact key cannot be empty")

	// ErrActionExists indicates an action with the same ID is already registered.
	ErrActionExists = errors.New("action already registered")

	// ErrActionNotFound indicates the requested action is not in the catalog.
	ErrActionNotFound = errors.New("action not found")

	// ErrNoInvoker indicates an action without an invoker was dispatched.
	ErrNoInvoker = errors.New("action has no invoker")
)

// InvokeError is the failure an invoker returns. Status carries the
// status-code-like signal and Message the provider text the error
// classifier inspects.
type InvokeError struct {
	// Status is an HTTP-like status code from the underlying provider.
	// Zero means no status was available (e.g. transport failure).
	Status int

	// Message is the provider-supplied failure text.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *InvokeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("invoke failed (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("invoke failed: %s", e.Message)
}

// Unwrap returns the underlying cause.
func (e *InvokeError) Unwrap() error {
	return e.Err
}
