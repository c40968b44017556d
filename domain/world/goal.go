package world

import "sort"

// Fact is a single (key, value) requirement.
type Fact struct {
	Key   string `json:"key"`
	Value Value  `json:"value"`
}

// Goal is a set of facts that must all hold for the goal to be satisfied.
// Immutable once created.
type Goal struct {
	facts map[string]Value
}

// NewGoal creates a Goal from the given requirements. The map is copied.
func NewGoal(facts map[string]Value) Goal {
	copied := make(map[string]Value, len(facts))
	for k, v := range facts {
		copied[k] = v
	}
	return Goal{facts: copied}
}

// Empty reports whether the goal has no requirements.
func (g Goal) Empty() bool {
	return len(g.facts) == 0
}

// Len returns the number of required facts.
func (g Goal) Len() int {
	return len(g.facts)
}

// Get returns the required value for a fact key.
func (g Goal) Get(key string) (Value, bool) {
	v, ok := g.facts[key]
	return v, ok
}

// SatisfiedBy reports whether every required fact holds in the state.
func (g Goal) SatisfiedBy(s State) bool {
	for k, v := range g.facts {
		if !s.Holds(k, v) {
			return false
		}
	}
	return true
}

// Unsatisfied returns the required facts that do not hold in the state,
// sorted by key for deterministic ordering.
func (g Goal) Unsatisfied(s State) []Fact {
	var missing []Fact
	for k, v := range g.facts {
		if !s.Holds(k, v) {
			missing = append(missing, Fact{Key: k, Value: v})
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].Key < missing[j].Key })
	return missing
}

// Satisfied returns the required facts that hold in the state, sorted by key.
func (g Goal) Satisfied(s State) []Fact {
	var held []Fact
	for k, v := range g.facts {
		if s.Holds(k, v) {
			held = append(held, Fact{Key: k, Value: v})
		}
	}
	sort.Slice(held, func(i, j int) bool { return held[i].Key < held[j].Key })
	return held
}

// Facts returns the goal requirements sorted by key.
func (g Goal) Facts() []Fact {
	facts := make([]Fact, 0, len(g.facts))
	for k, v := range g.facts {
		facts = append(facts, Fact{Key: k, Value: v})
	}
	sort.Slice(facts, func(i, j int) bool { return facts[i].Key < facts[j].Key })
	return facts
}
