package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/inkwell-labs/storyplan/domain/run"
)

// guardCanTransition checks the transition against the lifecycle graph.
// Guards receive the context by value; since our context is *Context, the
// guard receives *Context directly.
func guardCanTransition(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.Run == nil {
		return false
	}

	var to run.Phase
	if payload, ok := event.Payload.(TransitionPayload); ok {
		to = payload.ToPhase
	} else {
		to = phaseFromEventType(event.Type)
	}

	return run.CanTransition(ctx.Run.Phase, to)
}
