package application

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPlanFound indicates the search space was exhausted without
	// reaching the goal. Not retryable: the same catalog and goal will
	// fail again.
	ErrNoPlanFound = errors.New("no plan found")

	// ErrSearchBudgetExceeded indicates the planner hit its node budget
	// before finding a plan.
	ErrSearchBudgetExceeded = errors.New("planning budget exceeded")

	// ErrEmptyGoal indicates a plan was requested with no goal facts.
	ErrEmptyGoal = errors.New("empty goal")

	// ErrNilCatalog indicates the service was constructed without an
	// action catalog.
	ErrNilCatalog = errors.New("action catalog is required")
)

// PlanningError is a fatal planning failure: no execution happens.
type PlanningError struct {
	NodesExpanded int
	Goal          []string
	Err           error
}

func (e *PlanningError) Error() string {
	return fmt.Sprintf("planning failed after %d nodes (goal: %s): %v",
		e.NodesExpanded, strings.Join(e.Goal, ", "), e.Err)
}

func (e *PlanningError) Unwrap() error {
	return e.Err
}

// ActionError is a single step's unrecoverable failure. It is recorded in
// the trace and only surfaces as an ExecutionError when the step is load
// bearing for the rest of the plan.
type ActionError struct {
	ActionID string
	Agent    string
	Kind     string
	Err      error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s failed (%s): %v", e.ActionID, e.Kind, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ExecutionError is a fatal execution failure: a failed step sat on the
// plan's critical path, or aborts left no way to make further progress.
type ExecutionError struct {
	RunID  string
	Failed []string
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("run %s execution failed (steps: %s): %v",
		e.RunID, strings.Join(e.Failed, ", "), e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
