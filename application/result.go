package application

import "github.com/inkwell-labs/storyplan/domain/world"

// ExecutionResult is the outcome of running a plan. It is returned even
// when execution failed partway: completed effects are kept and the goal
// coverage reflects whatever progress was made.
type ExecutionResult struct {
	// FinalState is the world state after folding every completed step.
	FinalState world.State

	// Satisfied and Unsatisfied partition the goal's fact keys.
	Satisfied   []string
	Unsatisfied []string

	// Degraded reports whether any step fell back to template output.
	Degraded bool

	// FailedSteps and AbortedSteps hold action IDs of steps that failed
	// unrecoverably, and of steps skipped because a dependency failed.
	FailedSteps  []string
	AbortedSteps []string
}

// Complete reports whether every goal fact was satisfied.
func (r *ExecutionResult) Complete() bool {
	return len(r.Unsatisfied) == 0
}
