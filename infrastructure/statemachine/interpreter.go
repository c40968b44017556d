package statemachine

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/inkwell-labs/storyplan/domain/run"
)

// Interpreter wraps the statekit interpreter with run-specific helpers.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates an interpreter for the run lifecycle machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{interp: interp, ctx: ctx}
}

// Start initializes the interpreter and enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Run.Phase = run.Phase(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Phase returns the current lifecycle phase.
func (i *Interpreter) Phase() run.Phase {
	return run.Phase(i.interp.State().Value)
}

// Transition attempts to move the run to the target phase.
func (i *Interpreter) Transition(to run.Phase, reason string) error {
	if !run.CanTransition(i.ctx.Run.Phase, to) {
		return fmt.Errorf("%w: %s -> %s", run.ErrInvalidTransition, i.ctx.Run.Phase, to)
	}

	i.interp.Send(statekit.Event{
		Type:    EventForTransition(to),
		Payload: TransitionPayload{ToPhase: to, Reason: reason},
	})
	return nil
}

// IsTerminal reports whether the run reached a final phase.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}
