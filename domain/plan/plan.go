// Package plan provides the planner's output: an ordered action sequence
// with the dependency graph the execution engine uses to decide what may
// run concurrently.
package plan

import (
	"fmt"
	"sort"

	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/world"
)

// EdgeKind classifies why one step must wait for another.
type EdgeKind string

const (
	// EdgeEffect means the earlier step's effects satisfy a precondition
	// of the later step.
	EdgeEffect EdgeKind = "effect"

	// EdgeWriteConflict means both steps write the same fact key; the plan
	// order is enforced so the two writes are never concurrently ready.
	EdgeWriteConflict EdgeKind = "write_conflict"

	// EdgeReadOrder means the later step overwrites a fact the earlier
	// step's preconditions read.
	EdgeReadOrder EdgeKind = "read_order"
)

// Edge is a dependency between two steps: To must complete before From
// becomes ready.
type Edge struct {
	From int      `json:"from"`
	To   int      `json:"to"`
	Key  string   `json:"key"`
	Kind EdgeKind `json:"kind"`
}

// Step is one planned action together with the indices of the steps it
// depends on.
type Step struct {
	Action    action.Action
	DependsOn []int
}

// Plan is an ordered, dependency-annotated action sequence. It is created
// by the planner, consumed once by the execution engine, and not persisted.
type Plan struct {
	steps     []Step
	edges     []Edge
	totalCost float64
}

// New builds a plan from forward-ordered actions, deriving the dependency
// graph against the initial state. It fails if any step's precondition is
// neither satisfied by the initial state nor produced by an earlier step:
// that would mean the planner emitted an unsound sequence.
func New(actions []action.Action, initial world.State) (*Plan, error) {
	steps := make([]Step, len(actions))
	var edges []Edge
	var totalCost float64

	// lastWriter tracks, per fact key, the most recent step writing it.
	// lastReaders tracks the steps whose preconditions read it.
	lastWriter := make(map[string]int)
	lastReaders := make(map[string][]int)

	for i, a := range actions {
		totalCost += a.Cost
		deps := make(map[int]struct{})

		for _, p := range a.Preconditions {
			if j, ok := lastWriter[p.Key]; ok {
				if !actions[j].Satisfies(p) {
					return nil, fmt.Errorf("%w: step %d (%s) needs %s=%s but step %d (%s) overwrites it",
						ErrUnsoundSequence, i, a.ID, p.Key, p.Value, j, actions[j].ID)
				}
				if _, dup := deps[j]; !dup {
					deps[j] = struct{}{}
					edges = append(edges, Edge{From: i, To: j, Key: p.Key, Kind: EdgeEffect})
				}
				lastReaders[p.Key] = append(lastReaders[p.Key], i)
				continue
			}
			if !initial.Holds(p.Key, p.Value) {
				return nil, fmt.Errorf("%w: step %d (%s) precondition %s=%s is unsatisfiable",
					ErrUnsoundSequence, i, a.ID, p.Key, p.Value)
			}
			lastReaders[p.Key] = append(lastReaders[p.Key], i)
		}

		for _, key := range a.EffectKeys() {
			// Two writers of the same key are ordered so they can never be
			// concurrently ready.
			if j, ok := lastWriter[key]; ok {
				if _, dup := deps[j]; !dup {
					deps[j] = struct{}{}
					edges = append(edges, Edge{From: i, To: j, Key: key, Kind: EdgeWriteConflict})
				}
			}
			// A writer is ordered after earlier readers of the key so a
			// concurrent overwrite cannot invalidate a precondition.
			for _, r := range lastReaders[key] {
				if r == i {
					continue
				}
				if _, dup := deps[r]; !dup {
					deps[r] = struct{}{}
					edges = append(edges, Edge{From: i, To: r, Key: key, Kind: EdgeReadOrder})
				}
			}
			lastWriter[key] = i
			lastReaders[key] = nil
		}

		ordered := make([]int, 0, len(deps))
		for j := range deps {
			ordered = append(ordered, j)
		}
		sort.Ints(ordered)
		steps[i] = Step{Action: a, DependsOn: ordered}
	}

	return &Plan{steps: steps, edges: edges, totalCost: totalCost}, nil
}

// Steps returns the plan steps in forward execution order.
func (p *Plan) Steps() []Step {
	return p.steps
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	return len(p.steps)
}

// TotalCost returns the summed declared cost of all steps.
func (p *Plan) TotalCost() float64 {
	return p.totalCost
}

// Edges returns the dependency edges, for trace and visualization use.
func (p *Plan) Edges() []Edge {
	out := make([]Edge, len(p.edges))
	copy(out, p.edges)
	return out
}

// ActionIDs returns the action IDs in execution order.
func (p *Plan) ActionIDs() []string {
	ids := make([]string, len(p.steps))
	for i, s := range p.steps {
		ids[i] = s.Action.ID
	}
	return ids
}

// Dependents returns the indices of steps that directly depend on step i,
// in ascending order.
func (p *Plan) Dependents(i int) []int {
	var out []int
	for j, s := range p.steps {
		for _, d := range s.DependsOn {
			if d == i {
				out = append(out, j)
				break
			}
		}
	}
	return out
}

// TransitiveDependents returns every step that directly or indirectly
// depends on step i.
func (p *Plan) TransitiveDependents(i int) map[int]struct{} {
	out := make(map[int]struct{})
	frontier := []int{i}
	for len(frontier) > 0 {
		cur := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, j := range p.Dependents(cur) {
			if _, seen := out[j]; !seen {
				out[j] = struct{}{}
				frontier = append(frontier, j)
			}
		}
	}
	return out
}
