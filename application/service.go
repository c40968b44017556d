// Package application wires the planner, the execution engine, and the
// run lifecycle into the outward-facing service API.
package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/agent"
	"github.com/inkwell-labs/storyplan/domain/plan"
	"github.com/inkwell-labs/storyplan/domain/run"
	"github.com/inkwell-labs/storyplan/domain/trace"
	"github.com/inkwell-labs/storyplan/domain/world"
	"github.com/inkwell-labs/storyplan/infrastructure/config"
	"github.com/inkwell-labs/storyplan/infrastructure/logging"
	"github.com/inkwell-labs/storyplan/infrastructure/resilience"
	"github.com/inkwell-labs/storyplan/infrastructure/statemachine"
	"github.com/inkwell-labs/storyplan/infrastructure/storage/memory"
	"github.com/inkwell-labs/storyplan/infrastructure/telemetry"
	"github.com/felixgeelhaar/statekit"
)

// Service is the outward-facing API: request a plan, run a plan, read a
// trace.
type Service struct {
	catalog     *action.Catalog
	planner     *Planner
	engine      *Engine
	machine     *statekit.MachineConfig[*statemachine.Context]
	runs        run.Store
	traces      trace.Store
	metrics     telemetry.Metrics
	defaultMode run.Mode
}

// NewService assembles a service from configuration and a populated
// action catalog.
func NewService(cfg config.Config, catalog *action.Catalog, opts ...Option) (*Service, error) {
	if catalog == nil {
		return nil, ErrNilCatalog
	}

	s := &Service{catalog: catalog}
	for _, opt := range opts {
		opt(s)
	}

	if s.metrics == nil {
		s.metrics = telemetry.NoopMetrics{}
	}
	if s.traces == nil {
		s.traces = memory.NewTraceStore()
	}
	if s.runs == nil {
		s.runs = memory.NewRunStore()
	}
	if s.defaultMode == "" {
		mode, err := run.ParseMode(cfg.Agents.DefaultMode)
		if err != nil {
			return nil, err
		}
		s.defaultMode = mode
	}

	if s.planner == nil {
		s.planner = NewPlanner(catalog, cfg.Planner.MaxPlanningNodes, s.metrics)
	}
	if s.engine == nil {
		pool, err := agent.NewPool(cfg.Agents.PoolSize)
		if err != nil {
			return nil, err
		}
		window := resilience.NewRateWindow(resilience.RateWindowConfig{
			MaxRequestsPerMinute:  cfg.RateLimits.MaxRequestsPerMinute,
			MaxTokensPerMinute:    cfg.RateLimits.MaxTokensPerMinute,
			MaxConcurrentRequests: cfg.RateLimits.MaxConcurrentRequests,
		})
		executor := resilience.NewExecutor(resilience.ExecutorConfig{
			MaxConcurrent: cfg.RateLimits.MaxConcurrentRequests,
		}, window)
		selector := resilience.NewModelSelector(resilience.ModelSelectorConfig{
			CostSensitive: cfg.ModelSelection.CostSensitive,
		})
		s.engine = NewEngine(pool, executor, selector, s.metrics)
	}

	machine, err := statemachine.NewRunMachine()
	if err != nil {
		return nil, err
	}
	s.machine = machine

	return s, nil
}

// PlanSummary is the response to a plan request.
type PlanSummary struct {
	RunID         string
	ActionIDs     []string
	Edges         []plan.Edge
	TotalCost     float64
	NodesExpanded int
}

// RunResult is the response to a run request. Result is present even
// when Err was returned alongside, carrying partial progress.
type RunResult struct {
	RunID  string
	Phase  run.Phase
	Result *ExecutionResult
}

// RequestPlan searches for a plan without executing it. The planning
// trace, including rejected candidates, is persisted under the returned
// run ID.
func (s *Service) RequestPlan(ctx context.Context, initial world.State, goal world.Goal) (*PlanSummary, error) {
	if goal.Empty() {
		return nil, ErrEmptyGoal
	}

	r := run.New(uuid.New().String(), goal.Facts(), s.defaultMode)
	rec := trace.NewRecorder(r.ID)
	interp := statemachine.NewInterpreter(s.machine, statemachine.NewContext(r, rec))
	interp.Start()

	_ = interp.Transition(run.PhasePlanning, "plan requested")

	pl, nodes, err := s.planner.Plan(ctx, initial, goal, rec)
	if err != nil {
		return nil, s.failRun(ctx, interp, rec, r, nodes, goal, err)
	}

	s.persist(ctx, r, rec)
	return &PlanSummary{
		RunID:         r.ID,
		ActionIDs:     pl.ActionIDs(),
		Edges:         pl.Edges(),
		TotalCost:     pl.TotalCost(),
		NodesExpanded: nodes,
	}, nil
}

// RunPlan plans and executes a goal. An empty mode selects the
// configured default.
func (s *Service) RunPlan(ctx context.Context, initial world.State, goal world.Goal, mode run.Mode) (*RunResult, error) {
	if goal.Empty() {
		return nil, ErrEmptyGoal
	}
	if mode == "" {
		mode = s.defaultMode
	} else if _, err := run.ParseMode(string(mode)); err != nil {
		return nil, err
	}

	r := run.New(uuid.New().String(), goal.Facts(), mode)
	rec := trace.NewRecorder(r.ID)
	interp := statemachine.NewInterpreter(s.machine, statemachine.NewContext(r, rec))
	interp.Start()

	s.metrics.IncrementActiveRuns(ctx)
	defer s.metrics.DecrementActiveRuns(ctx)
	start := time.Now()

	rec.RecordRunStarted(goal.Facts(), string(mode))
	logging.Info().
		Add(logging.RunID(r.ID)).
		Add(logging.Mode(string(mode))).
		Add(logging.Int("goal_facts", goal.Len())).
		Msg("run started")

	_ = interp.Transition(run.PhasePlanning, "")

	pl, nodes, err := s.planner.Plan(ctx, initial, goal, rec)
	if err != nil {
		return nil, s.failRun(ctx, interp, rec, r, nodes, goal, err)
	}

	_ = interp.Transition(run.PhaseExecuting, "")

	result, execErr := s.engine.Execute(ctx, r.ID, pl, initial, goal, mode, rec)
	if execErr != nil {
		_ = interp.Transition(run.PhaseFailed, execErr.Error())
		rec.RecordRunFailed(execErr.Error())
		s.metrics.RecordRunDuration(ctx, time.Since(start), string(run.PhaseFailed))
		s.persist(ctx, r, rec)
		return &RunResult{RunID: r.ID, Phase: r.Phase, Result: result}, execErr
	}

	phase := run.PhaseDone
	if !result.Complete() {
		phase = run.PhasePartial
	}
	_ = interp.Transition(phase, "")
	rec.RecordRunCompleted(result.Satisfied, result.Unsatisfied, result.Degraded)
	s.metrics.RecordRunDuration(ctx, time.Since(start), string(phase))

	logging.Info().
		Add(logging.RunID(r.ID)).
		Add(logging.Str("phase", string(phase))).
		Add(logging.Degraded(result.Degraded)).
		Add(logging.Duration(time.Since(start))).
		Msg("run finished")

	s.persist(ctx, r, rec)
	return &RunResult{RunID: r.ID, Phase: r.Phase, Result: result}, nil
}

// GetTrace returns the persisted trace for a run.
func (s *Service) GetTrace(ctx context.Context, runID string) ([]trace.Entry, error) {
	return s.traces.Get(ctx, runID)
}

// GetRun returns a run record.
func (s *Service) GetRun(ctx context.Context, runID string) (*run.Run, error) {
	return s.runs.Get(ctx, runID)
}

// ListRuns returns all known run IDs.
func (s *Service) ListRuns(ctx context.Context) ([]string, error) {
	return s.runs.List(ctx)
}

// failRun moves a run to the failed phase and wraps the planner error.
func (s *Service) failRun(ctx context.Context, interp *statemachine.Interpreter, rec *trace.Recorder, r *run.Run, nodes int, goal world.Goal, err error) error {
	_ = interp.Transition(run.PhaseFailed, err.Error())
	rec.RecordRunFailed(err.Error())
	s.persist(ctx, r, rec)

	keys := make([]string, 0, goal.Len())
	for _, f := range goal.Facts() {
		keys = append(keys, f.Key)
	}
	return &PlanningError{NodesExpanded: nodes, Goal: keys, Err: err}
}

// persist writes the run record and its trace. Persistence failures are
// logged, not surfaced: the run outcome is already decided.
func (s *Service) persist(ctx context.Context, r *run.Run, rec *trace.Recorder) {
	if err := s.traces.Append(ctx, rec.Entries()...); err != nil {
		logging.Error().
			Add(logging.RunID(r.ID)).
			Add(logging.ErrorField(err)).
			Msg("persisting trace failed")
	}
	if err := s.runs.Save(ctx, r); err != nil {
		logging.Error().
			Add(logging.RunID(r.ID)).
			Add(logging.ErrorField(err)).
			Msg("persisting run failed")
	}
}
