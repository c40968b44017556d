// Package run models the lifecycle of a plan-and-execute run.
package run

import (
	"fmt"
	"time"

	"github.com/inkwell-labs/storyplan/domain/world"
)

// Phase is a stage in the run lifecycle.
type Phase string

const (
	// PhasePending is a run accepted but not yet planned.
	PhasePending Phase = "pending"
	// PhasePlanning is the plan search in progress.
	PhasePlanning Phase = "planning"
	// PhaseExecuting is plan execution in progress.
	PhaseExecuting Phase = "executing"
	// PhaseDone is a run whose goal was fully satisfied.
	PhaseDone Phase = "done"
	// PhasePartial is a run that finished with some goal facts unsatisfied.
	PhasePartial Phase = "partial"
	// PhaseFailed is a run aborted by a fatal error.
	PhaseFailed Phase = "failed"
)

// Terminal reports whether the phase ends the run.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhasePartial || p == PhaseFailed
}

// allowedTransitions is the lifecycle graph. Failure is reachable from any
// non-terminal phase.
var allowedTransitions = map[Phase][]Phase{
	PhasePending:   {PhasePlanning, PhaseFailed},
	PhasePlanning:  {PhaseExecuting, PhaseFailed},
	PhaseExecuting: {PhaseDone, PhasePartial, PhaseFailed},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Phase) bool {
	for _, p := range allowedTransitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Mode selects how plan steps are dispatched to agents.
type Mode string

const (
	// ModeSingle executes steps sequentially in dependency order.
	ModeSingle Mode = "single"
	// ModeParallel dispatches each batch of dependency-ready steps
	// concurrently and waits for the whole batch before recomputing
	// readiness.
	ModeParallel Mode = "parallel"
	// ModeHybrid executes dependency-free steps concurrently and blocks
	// dependent steps until their dependencies complete.
	ModeHybrid Mode = "hybrid"
	// ModeSwarm is hybrid dispatch plus speculative duplicate invocations
	// with first-success-wins.
	ModeSwarm Mode = "swarm"
)

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSingle, ModeParallel, ModeHybrid, ModeSwarm:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Run is one plan-and-execute request.
type Run struct {
	ID        string
	Goal      []world.Fact
	Mode      Mode
	Phase     Phase
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time

	// FailureReason is set when the run enters the failed phase.
	FailureReason string
}

// New creates a pending run.
func New(id string, goal []world.Fact, mode Mode) *Run {
	return &Run{
		ID:        id,
		Goal:      goal,
		Mode:      mode,
		Phase:     PhasePending,
		CreatedAt: time.Now(),
	}
}

// TransitionTo moves the run to the next phase.
func (r *Run) TransitionTo(to Phase) error {
	if !CanTransition(r.Phase, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Phase, to)
	}
	r.Phase = to
	switch to {
	case PhaseExecuting:
		r.StartedAt = time.Now()
	case PhaseDone, PhasePartial, PhaseFailed:
		r.EndedAt = time.Now()
	}
	return nil
}

// Fail moves the run to the failed phase with a reason.
func (r *Run) Fail(reason string) error {
	if err := r.TransitionTo(PhaseFailed); err != nil {
		return err
	}
	r.FailureReason = reason
	return nil
}
