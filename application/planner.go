package application

import (
	"container/heap"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/plan"
	"github.com/inkwell-labs/storyplan/domain/trace"
	"github.com/inkwell-labs/storyplan/domain/world"
	"github.com/inkwell-labs/storyplan/infrastructure/logging"
	"github.com/inkwell-labs/storyplan/infrastructure/telemetry"
)

// Planner searches the action catalog for a sequence that transforms the
// current world state into one satisfying the goal. The search regresses
// from the goal: it repeatedly picks an unsatisfied fact, branches over
// the actions able to establish it, and adopts those actions' own
// preconditions as new subgoals.
type Planner struct {
	catalog  *action.Catalog
	maxNodes int
	metrics  telemetry.Metrics
}

// NewPlanner creates a planner over the given catalog. maxNodes bounds
// search-node expansions; zero or negative selects the default budget.
func NewPlanner(catalog *action.Catalog, maxNodes int, metrics telemetry.Metrics) *Planner {
	if maxNodes <= 0 {
		maxNodes = 10_000
	}
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}
	return &Planner{catalog: catalog, maxNodes: maxNodes, metrics: metrics}
}

// decision records which provider a solution path chose for a fact, for
// the agent-decision trace entries emitted once the plan is found.
type decision struct {
	fact         string
	actionID     string
	alternatives []string
}

// searchNode is one frontier entry: the subgoals still unsatisfied, the
// actions adopted so far (in reverse execution order), and the fact keys
// this path is already pursuing (the cycle guard).
type searchNode struct {
	pending   []world.Fact
	chosen    []action.Action
	decisions []decision
	pursuing  map[string]struct{}
	cost      float64
	seq       int
}

// priority is accumulated cost plus the heuristic: one unit per
// unsatisfied fact. The heuristic never overestimates when every action
// costs at least one unit, and ties break toward cheaper accumulated
// cost, then insertion order, so the search is deterministic.
func (n *searchNode) priority() float64 {
	return n.cost + float64(len(n.pending))
}

type frontier []*searchNode

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	pi, pj := f[i].priority(), f[j].priority()
	if pi != pj {
		return pi < pj
	}
	if f[i].cost != f[j].cost {
		return f[i].cost < f[j].cost
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(*searchNode)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return node
}

// Plan searches for a plan satisfying the goal from the initial state.
// Rejected candidates are recorded on rec as the search encounters them.
// A goal already satisfied by the initial state yields an empty plan.
func (p *Planner) Plan(ctx context.Context, initial world.State, goal world.Goal, rec *trace.Recorder) (*plan.Plan, int, error) {
	start := time.Now()

	pending := goal.Unsatisfied(initial)
	root := &searchNode{pending: pending, pursuing: map[string]struct{}{}}

	front := &frontier{root}
	heap.Init(front)

	// visited keeps the best cost per canonical subgoal set; costlier
	// revisits are pruned.
	visited := map[string]float64{canonicalKey(pending): 0}

	nodes := 0
	seq := 0

	for front.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, nodes, err
		}

		node := heap.Pop(front).(*searchNode)
		nodes++
		if nodes > p.maxNodes {
			p.metrics.RecordPlanFailed(ctx, "budget_exceeded", nodes)
			return nil, nodes, fmt.Errorf("%w: %d nodes", ErrSearchBudgetExceeded, p.maxNodes)
		}

		if len(node.pending) == 0 {
			pl, err := p.finish(node, initial, rec, nodes)
			if err != nil {
				return nil, nodes, err
			}
			p.metrics.RecordPlanCreated(ctx, nodes, pl.TotalCost(), time.Since(start))
			logging.Debug().
				Add(logging.Nodes(nodes)).
				Add(logging.Cost(pl.TotalCost())).
				Add(logging.Int("steps", pl.Len())).
				Msg("plan found")
			return pl, nodes, nil
		}

		target := node.pending[0]
		providers := p.catalog.Providers(target)
		if len(providers) == 0 {
			if rec != nil {
				rec.RecordRejection("", target.Key, trace.RejectPreconditionUnmet,
					fmt.Sprintf("no action provides %s=%s", target.Key, target.Value))
			}
			continue
		}

		for _, provider := range providers {
			if cycleKey, ok := regressionCycle(provider, initial, node.pursuing); ok {
				if rec != nil {
					rec.RecordRejection(provider.ID, target.Key, trace.RejectCycle,
						fmt.Sprintf("precondition %s is already being pursued on this path", cycleKey))
				}
				p.metrics.RecordActionRejected(ctx, provider.ID, string(trace.RejectCycle))
				continue
			}

			child := expand(node, target, provider, providers, initial)
			seq++
			child.seq = seq

			key := canonicalKey(child.pending)
			if best, seen := visited[key]; seen && best <= child.cost {
				if rec != nil {
					rec.RecordRejection(provider.ID, target.Key, trace.RejectCost,
						"a cheaper path reaches the same subgoals")
				}
				continue
			}
			visited[key] = child.cost
			heap.Push(front, child)
		}
	}

	p.metrics.RecordPlanFailed(ctx, "no_plan", nodes)
	return nil, nodes, fmt.Errorf("%w: goal %s is unreachable", ErrNoPlanFound, goalString(goal))
}

// finish reverses the regression path into execution order, builds the
// dependency-annotated plan, and emits decision and plan-created entries.
func (p *Planner) finish(node *searchNode, initial world.State, rec *trace.Recorder, nodes int) (*plan.Plan, error) {
	seq := make([]action.Action, len(node.chosen))
	for i, a := range node.chosen {
		seq[len(node.chosen)-1-i] = a
	}

	pl, err := plan.New(seq, initial)
	if err != nil {
		return nil, err
	}

	if rec != nil {
		for i := len(node.decisions) - 1; i >= 0; i-- {
			d := node.decisions[i]
			rec.RecordDecision(d.actionID, d.fact, d.alternatives, "cheapest complete path")
		}
		rec.RecordPlanCreated(pl.ActionIDs(), pl.TotalCost(), nodes)
	}
	return pl, nil
}

// expand applies provider backward: facts the provider establishes leave
// the pending set, and its unsatisfied preconditions join it.
func expand(node *searchNode, target world.Fact, provider action.Action, providers []action.Action, initial world.State) *searchNode {
	var newPending []world.Fact
	for _, f := range node.pending {
		if !provider.Satisfies(f) {
			newPending = append(newPending, f)
		}
	}
	for _, pre := range provider.Preconditions {
		if initial.Holds(pre.Key, pre.Value) {
			continue
		}
		dup := false
		for _, f := range newPending {
			if f.Key == pre.Key && f.Value.Equal(pre.Value) {
				dup = true
				break
			}
		}
		if !dup {
			newPending = append(newPending, pre)
		}
	}
	sort.Slice(newPending, func(i, j int) bool { return newPending[i].Key < newPending[j].Key })

	pursuing := make(map[string]struct{}, len(node.pursuing)+1)
	for k := range node.pursuing {
		pursuing[k] = struct{}{}
	}
	pursuing[target.Key] = struct{}{}

	chosen := make([]action.Action, len(node.chosen), len(node.chosen)+1)
	copy(chosen, node.chosen)
	chosen = append(chosen, provider)

	var alternatives []string
	for _, alt := range providers {
		if alt.ID != provider.ID {
			alternatives = append(alternatives, alt.ID)
		}
	}
	decisions := make([]decision, len(node.decisions), len(node.decisions)+1)
	copy(decisions, node.decisions)
	decisions = append(decisions, decision{
		fact:         target.Key,
		actionID:     provider.ID,
		alternatives: alternatives,
	})

	return &searchNode{
		pending:   newPending,
		chosen:    chosen,
		decisions: decisions,
		pursuing:  pursuing,
		cost:      node.cost + provider.Cost,
	}
}

// regressionCycle reports whether adopting the provider would pursue a
// fact key this path is already pursuing, which would loop forever.
func regressionCycle(provider action.Action, initial world.State, pursuing map[string]struct{}) (string, bool) {
	for _, pre := range provider.Preconditions {
		if initial.Holds(pre.Key, pre.Value) {
			continue
		}
		if _, ok := pursuing[pre.Key]; ok {
			return pre.Key, true
		}
	}
	return "", false
}

// canonicalKey is a stable identity for a pending subgoal set.
func canonicalKey(pending []world.Fact) string {
	parts := make([]string, len(pending))
	for i, f := range pending {
		parts[i] = f.Key + "=" + f.Value.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

func goalString(goal world.Goal) string {
	facts := goal.Facts()
	parts := make([]string, len(facts))
	for i, f := range facts {
		parts[i] = f.Key + "=" + f.Value.String()
	}
	return strings.Join(parts, ", ")
}
