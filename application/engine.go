package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/agent"
	"github.com/inkwell-labs/storyplan/domain/plan"
	"github.com/inkwell-labs/storyplan/domain/run"
	"github.com/inkwell-labs/storyplan/domain/trace"
	"github.com/inkwell-labs/storyplan/domain/world"
	"github.com/inkwell-labs/storyplan/infrastructure/logging"
	"github.com/inkwell-labs/storyplan/infrastructure/resilience"
	"github.com/inkwell-labs/storyplan/infrastructure/telemetry"
)

// Engine executes a plan against the agent pool. Effects are folded into
// the shared world state in completion order. Every mode gates dispatch
// on the plan's dependency graph; the modes differ only in dispatch
// breadth.
type Engine struct {
	pool     *agent.Pool
	executor *resilience.Executor
	selector *resilience.ModelSelector
	metrics  telemetry.Metrics
}

// NewEngine creates an execution engine.
func NewEngine(pool *agent.Pool, executor *resilience.Executor, selector *resilience.ModelSelector, metrics telemetry.Metrics) *Engine {
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}
	if selector == nil {
		selector = resilience.NewModelSelector(resilience.ModelSelectorConfig{})
	}
	return &Engine{pool: pool, executor: executor, selector: selector, metrics: metrics}
}

// stepStatus tracks one plan step through the scheduler.
type stepStatus int

const (
	stepPending stepStatus = iota
	stepRunning
	stepDone
	stepFailed
	stepAborted
)

// stepResult is a completed worker's report.
type stepResult struct {
	idx     int
	outcome resilience.Outcome
	agent   string
	err     error
}

// Execute runs the plan to completion under the given dispatch mode. The
// returned result is non-nil even on error so partial progress survives.
// The error is non-nil only when a failed step sat on the plan's critical
// path or no step completed at all.
func (e *Engine) Execute(ctx context.Context, runID string, pl *plan.Plan, initial world.State, goal world.Goal, mode run.Mode, rec *trace.Recorder) (*ExecutionResult, error) {
	n := pl.Len()
	status := make([]stepStatus, n)
	failures := make(map[int]*ActionError)
	state := initial
	degraded := false

	results := make(chan stepResult)
	inFlight := 0

	// ready reports whether step i may be dispatched now. Readiness is
	// dependency-gated in every mode; conflicting writers share an edge,
	// so they are never in flight together.
	ready := func(i int) bool {
		if status[i] != stepPending {
			return false
		}
		for _, d := range pl.Steps()[i].DependsOn {
			if status[d] != stepDone {
				return false
			}
		}
		return true
	}

	// abortDependents marks every transitive dependent of i that has not
	// run yet, and returns their action IDs.
	abortDependents := func(i int) []string {
		var aborted []string
		deps := pl.TransitiveDependents(i)
		idxs := make([]int, 0, len(deps))
		for j := range deps {
			idxs = append(idxs, j)
		}
		sort.Ints(idxs)
		for _, j := range idxs {
			if status[j] == stepPending {
				status[j] = stepAborted
				aborted = append(aborted, pl.Steps()[j].Action.ID)
			}
		}
		return aborted
	}

	// collect folds one completed worker's report into the scheduler state.
	collect := func(res stepResult) {
		stepAction := pl.Steps()[res.idx].Action
		if res.err != nil {
			status[res.idx] = stepFailed
			kind := string(resilience.Classify(res.err))
			failures[res.idx] = &ActionError{
				ActionID: stepAction.ID,
				Agent:    res.agent,
				Kind:     kind,
				Err:      res.err,
			}
			aborted := abortDependents(res.idx)
			if rec != nil {
				rec.RecordActionFailed(stepAction.ID, res.agent, kind, res.err, aborted)
			}
			e.metrics.RecordActionExecution(ctx, stepAction.ID, string(stepAction.Role), false, false, res.outcome.Duration)
			return
		}

		// Fold effects in completion order.
		status[res.idx] = stepDone
		state = state.Apply(res.outcome.Patch)
		if res.outcome.Degraded {
			degraded = true
		}
		if rec != nil {
			rec.RecordActionStep(trace.ActionStepDetails{
				ActionID: stepAction.ID,
				Agent:    res.agent,
				Model:    res.outcome.Model,
				Duration: res.outcome.Duration,
				Retries:  res.outcome.Retries,
				Degraded: res.outcome.Degraded,
				Delta:    res.outcome.Patch,
			})
		}
		e.metrics.RecordActionExecution(ctx, stepAction.ID, string(stepAction.Role), true, res.outcome.Degraded, res.outcome.Duration)
	}

	sequential := mode == run.ModeSingle
	// Parallel mode dispatches the whole ready set as one batch and waits
	// for every member before recomputing readiness.
	barrier := mode == run.ModeParallel

	for {
		dispatched := false
		for i := 0; i < n; i++ {
			if !ready(i) {
				continue
			}
			status[i] = stepRunning
			inFlight++
			dispatched = true

			step := pl.Steps()[i]
			view := state
			if mode == run.ModeSwarm {
				go e.runSwarmStep(ctx, runID, i, step.Action, view, rec, results)
			} else {
				go e.runStep(ctx, runID, i, step.Action, view, mode, false, rec, results)
			}

			if sequential {
				break
			}
		}

		if inFlight == 0 && !dispatched {
			break
		}

		collect(<-results)
		inFlight--
		if barrier {
			for inFlight > 0 {
				collect(<-results)
				inFlight--
			}
		}
	}

	result := e.buildResult(pl, state, goal, status, failures, degraded)

	if err := e.fatalError(runID, pl, status, failures); err != nil {
		return result, err
	}
	return result, nil
}

// buildResult assembles the execution result from the scheduler state.
func (e *Engine) buildResult(pl *plan.Plan, state world.State, goal world.Goal, status []stepStatus, failures map[int]*ActionError, degraded bool) *ExecutionResult {
	var satisfied, unsatisfied []string
	for _, f := range goal.Facts() {
		if state.Holds(f.Key, f.Value) {
			satisfied = append(satisfied, f.Key)
		} else {
			unsatisfied = append(unsatisfied, f.Key)
		}
	}
	sort.Strings(satisfied)
	sort.Strings(unsatisfied)

	var failedIDs, abortedIDs []string
	for i, s := range status {
		switch s {
		case stepFailed:
			failedIDs = append(failedIDs, pl.Steps()[i].Action.ID)
		case stepAborted:
			abortedIDs = append(abortedIDs, pl.Steps()[i].Action.ID)
		}
	}

	return &ExecutionResult{
		FinalState:   state,
		Satisfied:    satisfied,
		Unsatisfied:  unsatisfied,
		Degraded:     degraded,
		FailedSteps:  failedIDs,
		AbortedSteps: abortedIDs,
	}
}

// fatalError decides whether the run as a whole failed: a failure on the
// critical path, or a plan where nothing completed.
func (e *Engine) fatalError(runID string, pl *plan.Plan, status []stepStatus, failures map[int]*ActionError) error {
	if len(failures) == 0 {
		return nil
	}

	critical := pl.CriticalPath()
	var failedIDs []string
	var first *ActionError
	onCritical := false
	anyDone := false

	for _, s := range status {
		if s == stepDone {
			anyDone = true
		}
	}
	idxs := make([]int, 0, len(failures))
	for i := range failures {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	for _, i := range idxs {
		failedIDs = append(failedIDs, failures[i].ActionID)
		if first == nil {
			first = failures[i]
		}
		if _, ok := critical[i]; ok {
			onCritical = true
		}
	}

	if onCritical || !anyDone {
		return &ExecutionError{RunID: runID, Failed: failedIDs, Err: first}
	}
	return nil
}

// runStep executes one plan step: acquire an agent of the required role,
// pick a model, invoke through the resilient executor, release.
func (e *Engine) runStep(ctx context.Context, runID string, idx int, act action.Action, view world.State, mode run.Mode, speculative bool, rec *trace.Recorder, results chan<- stepResult) {
	ag, err := e.pool.Acquire(ctx, act.Role)
	if err != nil {
		results <- stepResult{idx: idx, err: err}
		return
	}
	defer e.pool.Release(ag)

	if rec != nil {
		rec.RecordDispatch(act.ID, ag.Name, string(mode), speculative)
	}
	outcome, err := e.invoke(ctx, runID, act, view, ag)
	results <- stepResult{idx: idx, outcome: outcome, agent: ag.Name, err: err}
}

// runSwarmStep dispatches a step speculatively: a primary agent plus, if
// the pool has spare capacity, a duplicate. The first success wins and
// cancels the other; cancellation is cooperative, so a losing call may
// still complete and its result is dropped.
func (e *Engine) runSwarmStep(ctx context.Context, runID string, idx int, act action.Action, view world.State, rec *trace.Recorder, results chan<- stepResult) {
	primary, err := e.pool.Acquire(ctx, act.Role)
	if err != nil {
		results <- stepResult{idx: idx, err: err}
		return
	}

	duplicate, speculating := e.pool.TryAcquire(act.Role)

	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type attempt struct {
		outcome resilience.Outcome
		agent   string
		err     error
	}
	attempts := make(chan attempt, 2)

	launched := 1
	if rec != nil {
		rec.RecordDispatch(act.ID, primary.Name, string(run.ModeSwarm), false)
	}
	go func() {
		defer e.pool.Release(primary)
		out, err := e.invoke(stepCtx, runID, act, view, primary)
		attempts <- attempt{outcome: out, agent: primary.Name, err: err}
	}()
	if speculating {
		launched++
		if rec != nil {
			rec.RecordDispatch(act.ID, duplicate.Name, string(run.ModeSwarm), true)
		}
		go func() {
			defer e.pool.Release(duplicate)
			out, err := e.invoke(stepCtx, runID, act, view, duplicate)
			attempts <- attempt{outcome: out, agent: duplicate.Name, err: err}
		}()
	}

	var winner *attempt
	var firstErr *attempt
	for i := 0; i < launched; i++ {
		a := <-attempts
		if a.err == nil && winner == nil {
			winner = &a
			cancel()
			continue
		}
		if a.err == nil && winner != nil {
			// The slower duplicate completed anyway; drop its result.
			if rec != nil {
				rec.RecordDuplicateDropped(act.ID, a.agent, winner.agent)
			}
			continue
		}
		if firstErr == nil {
			firstErr = &a
		}
	}

	if winner != nil {
		results <- stepResult{idx: idx, outcome: winner.outcome, agent: winner.agent}
		return
	}
	results <- stepResult{idx: idx, outcome: firstErr.outcome, agent: firstErr.agent, err: firstErr.err}
}

// invoke runs the action through model selection and the resilient
// executor.
func (e *Engine) invoke(ctx context.Context, runID string, act action.Action, view world.State, ag agent.Agent) (resilience.Outcome, error) {
	prompt := act.Prompt
	if prompt == "" {
		prompt = act.Name
	}
	target := act.TargetWords
	if target <= 0 {
		target = int(act.Cost * 800)
	}
	selection := e.selector.Select(resilience.TaskProfile{
		Prompt:      prompt,
		PromptWords: len(strings.Fields(prompt)),
		TargetWords: target,
		Genre:       act.Genre,
	}, "")

	start := time.Now()
	outcome, err := e.executor.Execute(ctx, act, view, action.Invocation{
		RunID:    runID,
		ActionID: act.ID,
		Agent:    ag.Name,
		Model:    selection.Model,
	})
	if err != nil {
		logging.Warn().
			Add(logging.RunID(runID)).
			Add(logging.ActionID(act.ID)).
			Add(logging.AgentName(ag.Name)).
			Add(logging.Duration(time.Since(start))).
			Add(logging.ErrorField(err)).
			Msg("step failed")
		return outcome, fmt.Errorf("invoking %s: %w", act.ID, err)
	}
	return outcome, nil
}
