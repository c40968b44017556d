// Package action provides the action definitions the planner searches over:
// preconditions, effects, cost, the authorized agent role, and the
// generation invoker supplied by the content subsystem.
package action

import (
	"context"
	"fmt"

	"github.com/inkwell-labs/storyplan/domain/agent"
	"github.com/inkwell-labs/storyplan/domain/world"
)

// Effect describes one fact an action establishes. Either Value is set
// (static effect) or Compute is set (the value is derived from the world
// state at execution time).
type Effect struct {
	Key     string
	Value   world.Value
	Compute func(world.State) world.Value
}

// Computed reports whether the effect value is derived at execution time.
func (e Effect) Computed() bool {
	return e.Compute != nil
}

// CanSatisfy reports whether the effect can establish the required fact.
// A computed effect is assumed able to satisfy any required value for its
// key; the concrete value is only known at execution time.
func (e Effect) CanSatisfy(f world.Fact) bool {
	if e.Key != f.Key {
		return false
	}
	return e.Computed() || e.Value.Equal(f.Value)
}

// Invocation carries per-call metadata into the invoker.
type Invocation struct {
	// RunID identifies the execution run.
	RunID string

	// ActionID identifies the invoked action.
	ActionID string

	// Agent is the name of the executor the action was dispatched to.
	Agent string

	// Model is the selected model tier for this call.
	Model string

	// Attempt is the zero-based retry attempt number.
	Attempt int

	// ReduceContext asks the invoker to shrink its prompt context. Set on
	// the single retry after a context-too-long failure.
	ReduceContext bool
}

// Invoker is the generation hook supplied per action by the content
// subsystem. It returns the effects patch the call produced, or an error
// carrying enough signal for the error classifier (see InvokeError).
type Invoker func(ctx context.Context, view world.State, inv Invocation) (world.Patch, error)

// Action is an immutable planner-visible operation. Actions are registered
// once at process start and never mutated.
type Action struct {
	ID            string
	Name          string
	Role          agent.Role
	Preconditions []world.Fact
	Effects       []Effect
	Cost          float64
	Invoke        Invoker

	// Prompt is the generation brief for the action. Model selection
	// scores it for length and complexity keywords; empty falls back to
	// Name.
	Prompt string

	// Genre feeds the model selector's genre signal.
	Genre string

	// TargetWords is the requested output length. Zero falls back to a
	// cost-proportional estimate.
	TargetWords int
}

// ApplicableTo reports whether every precondition holds in the state.
func (a Action) ApplicableTo(s world.State) bool {
	for _, p := range a.Preconditions {
		if !s.Holds(p.Key, p.Value) {
			return false
		}
	}
	return true
}

// UnmetPreconditions returns the preconditions that do not hold in the state.
func (a Action) UnmetPreconditions(s world.State) []world.Fact {
	var unmet []world.Fact
	for _, p := range a.Preconditions {
		if !s.Holds(p.Key, p.Value) {
			unmet = append(unmet, p)
		}
	}
	return unmet
}

// Satisfies reports whether any effect can establish the required fact.
func (a Action) Satisfies(f world.Fact) bool {
	for _, e := range a.Effects {
		if e.CanSatisfy(f) {
			return true
		}
	}
	return false
}

// EffectKeys returns the fact keys the action writes.
func (a Action) EffectKeys() []string {
	keys := make([]string, 0, len(a.Effects))
	for _, e := range a.Effects {
		keys = append(keys, e.Key)
	}
	return keys
}

// StaticPatch resolves the declared effects against the state: static
// effects contribute their value, computed effects are evaluated.
func (a Action) StaticPatch(s world.State) world.Patch {
	patch := make(world.Patch, len(a.Effects))
	for _, e := range a.Effects {
		if e.Computed() {
			patch[e.Key] = e.Compute(s)
			continue
		}
		patch[e.Key] = e.Value
	}
	return patch
}

// validate checks structural invariants. Violations are programming errors
// in the catalog definition, not runtime conditions.
func (a Action) validate() error {
	if a.ID == "" {
		return ErrEmptyID
	}
	if a.Name == "" {
		return fmt.Errorf("%w: %s", ErrEmptyName, a.ID)
	}
	if !agent.ValidRole(a.Role) {
		return fmt.Errorf("%w: action %s has role %q", agent.ErrInvalidRole, a.ID, a.Role)
	}
	if len(a.Effects) == 0 {
		return fmt.Errorf("%w: %s", ErrNoEffects, a.ID)
	}
	if a.Cost < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeCost, a.ID)
	}
	for _, e := range a.Effects {
		if e.Key == "" {
			return fmt.Errorf("%w: %s", ErrEmptyEffectKey, a.ID)
		}
	}
	for _, p := range a.Preconditions {
		if p.Key == "" {
			return fmt.Errorf("%w: %s", ErrEmptyPreconditionKey, a.ID)
		}
	}
	return nil
}
