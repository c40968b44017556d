// Package world provides the immutable, versioned fact snapshot that the
// planner searches over and the execution engine folds effects into.
package world

import "sort"

// State is an immutable snapshot of known facts about the authoring context.
// Mutation happens only by deriving a new State via Apply; the snapshot
// handed to the planner never changes underneath it.
type State struct {
	facts   map[string]Value
	version uint64
}

// Patch is a set of fact changes produced by an executed action.
type Patch map[string]Value

// New creates a State from the given facts. The map is copied.
func New(facts map[string]Value) State {
	copied := make(map[string]Value, len(facts))
	for k, v := range facts {
		copied[k] = v
	}
	return State{facts: copied, version: 1}
}

// Empty returns a State with no facts.
func Empty() State {
	return State{facts: map[string]Value{}, version: 1}
}

// Get returns the value for a fact key.
func (s State) Get(key string) (Value, bool) {
	v, ok := s.facts[key]
	return v, ok
}

// Holds reports whether the fact key currently has the given value.
func (s State) Holds(key string, want Value) bool {
	v, ok := s.facts[key]
	return ok && v.Equal(want)
}

// Apply derives a new State with the patch folded in. The receiver is
// unchanged; the version counter advances by one.
func (s State) Apply(patch Patch) State {
	next := make(map[string]Value, len(s.facts)+len(patch))
	for k, v := range s.facts {
		next[k] = v
	}
	for k, v := range patch {
		next[k] = v
	}
	return State{facts: next, version: s.version + 1}
}

// Version returns the snapshot version, starting at 1 and advancing on
// every Apply.
func (s State) Version() uint64 {
	return s.version
}

// Len returns the number of known facts.
func (s State) Len() int {
	return len(s.facts)
}

// Keys returns the fact keys in sorted order, for deterministic iteration.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.facts))
	for k := range s.facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Facts returns a copy of the fact map.
func (s State) Facts() map[string]Value {
	copied := make(map[string]Value, len(s.facts))
	for k, v := range s.facts {
		copied[k] = v
	}
	return copied
}
