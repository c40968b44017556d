// Package statemachine provides the statekit integration for the run
// lifecycle.
package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/inkwell-labs/storyplan/domain/run"
	"github.com/inkwell-labs/storyplan/domain/trace"
)

// Context carries run state through the state machine.
type Context struct {
	Run      *run.Run
	Recorder *trace.Recorder
}

// NewContext creates a machine context.
func NewContext(r *run.Run, rec *trace.Recorder) *Context {
	return &Context{Run: r, Recorder: rec}
}

// State IDs as StateID type for statekit.
const (
	statePending   statekit.StateID = statekit.StateID(run.PhasePending)
	statePlanning  statekit.StateID = statekit.StateID(run.PhasePlanning)
	stateExecuting statekit.StateID = statekit.StateID(run.PhaseExecuting)
	stateDone      statekit.StateID = statekit.StateID(run.PhaseDone)
	statePartial   statekit.StateID = statekit.StateID(run.PhasePartial)
	stateFailed    statekit.StateID = statekit.StateID(run.PhaseFailed)
)

// NewRunMachine creates the canonical run lifecycle statechart.
func NewRunMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("storyplan-run").
		WithInitial(statePending).
		WithContext(&Context{}).
		WithAction("recordPhase", recordPhase).
		WithGuard("canTransition", guardCanTransition).
		State(statePending).
			On("PLAN").Target(statePlanning).Guard("canTransition").Do("recordPhase").
			On("FAIL").Target(stateFailed).Do("recordPhase").
			Done().
		State(statePlanning).
			On("EXECUTE").Target(stateExecuting).Guard("canTransition").Do("recordPhase").
			On("FAIL").Target(stateFailed).Do("recordPhase").
			Done().
		State(stateExecuting).
			On("COMPLETE").Target(stateDone).Guard("canTransition").Do("recordPhase").
			On("PARTIAL").Target(statePartial).Guard("canTransition").Do("recordPhase").
			On("FAIL").Target(stateFailed).Do("recordPhase").
			Done().
		State(stateDone).
			Final().
			Done().
		State(statePartial).
			Final().
			Done().
		State(stateFailed).
			Final().
			Done().
		Build()
}

// EventForTransition returns the event type for a phase transition.
func EventForTransition(to run.Phase) statekit.EventType {
	switch to {
	case run.PhasePlanning:
		return "PLAN"
	case run.PhaseExecuting:
		return "EXECUTE"
	case run.PhaseDone:
		return "COMPLETE"
	case run.PhasePartial:
		return "PARTIAL"
	case run.PhaseFailed:
		return "FAIL"
	default:
		return statekit.EventType(to)
	}
}

// phaseFromEventType derives the target phase from an event type.
func phaseFromEventType(eventType statekit.EventType) run.Phase {
	switch eventType {
	case "PLAN":
		return run.PhasePlanning
	case "EXECUTE":
		return run.PhaseExecuting
	case "COMPLETE":
		return run.PhaseDone
	case "PARTIAL":
		return run.PhasePartial
	case "FAIL":
		return run.PhaseFailed
	default:
		return run.Phase(eventType)
	}
}
