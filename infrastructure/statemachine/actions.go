package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/inkwell-labs/storyplan/domain/run"
)

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToPhase run.Phase
	Reason  string
}

// recordPhase applies the phase change to the run and records it in the
// trace. Actions receive a pointer to the context; since our context is
// *Context, they receive **Context.
func recordPhase(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil || (*ctx).Run == nil {
		return
	}

	c := *ctx
	from := c.Run.Phase

	var to run.Phase
	var reason string
	if payload, ok := event.Payload.(TransitionPayload); ok {
		to = payload.ToPhase
		reason = payload.Reason
	} else {
		to = phaseFromEventType(event.Type)
	}

	if to == run.PhaseFailed {
		_ = c.Run.Fail(reason)
	} else {
		_ = c.Run.TransitionTo(to)
	}

	if c.Recorder != nil {
		c.Recorder.RecordPhase(string(from), string(to), reason)
	}
}
