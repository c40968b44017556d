package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/inkwell-labs/storyplan/application"
	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/agent"
	"github.com/inkwell-labs/storyplan/domain/run"
	"github.com/inkwell-labs/storyplan/domain/trace"
	"github.com/inkwell-labs/storyplan/domain/world"
	"github.com/inkwell-labs/storyplan/infrastructure/config"
)

func newTestService(t *testing.T, c *action.Catalog) *application.Service {
	t.Helper()
	svc, err := application.NewService(config.Default(), c)
	if err != nil {
		t.Fatalf("NewService() = %v", err)
	}
	return svc
}

func draftGoal() world.Goal {
	return world.NewGoal(map[string]world.Value{"draft.polished": world.Bool(true)})
}

func TestServiceRunPlanEndToEnd(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, writingCatalog(t))
	ctx := context.Background()

	res, err := svc.RunPlan(ctx, world.Empty(), draftGoal(), run.ModeHybrid)
	if err != nil {
		t.Fatalf("RunPlan() = %v", err)
	}
	if res.Phase != run.PhaseDone {
		t.Errorf("Phase = %s, want %s", res.Phase, run.PhaseDone)
	}
	if !res.Result.Complete() {
		t.Errorf("Complete() = false, unsatisfied %v", res.Result.Unsatisfied)
	}

	r, err := svc.GetRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetRun() = %v", err)
	}
	if r.Phase != run.PhaseDone {
		t.Errorf("stored phase = %s, want %s", r.Phase, run.PhaseDone)
	}
	if r.EndedAt.IsZero() {
		t.Error("EndedAt not set on a terminal run")
	}

	entries, err := svc.GetTrace(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetTrace() = %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("trace is empty")
	}
	if entries[0].Type != trace.EntryRunStarted {
		t.Errorf("first entry = %s, want %s", entries[0].Type, trace.EntryRunStarted)
	}
	byType := make(map[trace.EntryType]int)
	for _, e := range entries {
		byType[e.Type]++
	}
	if byType[trace.EntryPlanCreated] != 1 {
		t.Errorf("plan_created entries = %d, want 1", byType[trace.EntryPlanCreated])
	}
	if byType[trace.EntryActionStep] != 3 {
		t.Errorf("action_step entries = %d, want 3", byType[trace.EntryActionStep])
	}
	if byType[trace.EntryRunCompleted] != 1 {
		t.Errorf("run_completed entries = %d, want 1", byType[trace.EntryRunCompleted])
	}
	if byType[trace.EntryPhaseTransition] < 3 {
		t.Errorf("phase_transition entries = %d, want at least 3", byType[trace.EntryPhaseTransition])
	}
}

func TestServiceRequestPlanDoesNotExecute(t *testing.T) {
	t.Parallel()

	invoked := false
	c := action.NewCatalog()
	a := action.Action{
		ID: "outline_story", Name: "Outline the story", Role: agent.RoleArchitect, Cost: 1,
		Effects: []action.Effect{{Key: "outline.ready", Value: world.Bool(true)}},
	}
	a.Invoke = func(_ context.Context, view world.State, _ action.Invocation) (world.Patch, error) {
		invoked = true
		return a.StaticPatch(view), nil
	}
	if err := c.Register(a); err != nil {
		t.Fatalf("Register() = %v", err)
	}

	svc := newTestService(t, c)
	ctx := context.Background()
	goal := world.NewGoal(map[string]world.Value{"outline.ready": world.Bool(true)})

	summary, err := svc.RequestPlan(ctx, world.Empty(), goal)
	if err != nil {
		t.Fatalf("RequestPlan() = %v", err)
	}
	if invoked {
		t.Error("RequestPlan must not invoke actions")
	}
	if len(summary.ActionIDs) != 1 || summary.ActionIDs[0] != "outline_story" {
		t.Errorf("ActionIDs = %v, want [outline_story]", summary.ActionIDs)
	}
	if summary.TotalCost != 1 {
		t.Errorf("TotalCost = %v, want 1", summary.TotalCost)
	}
	if summary.NodesExpanded == 0 {
		t.Error("NodesExpanded = 0, want nonzero")
	}

	entries, err := svc.GetTrace(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("GetTrace() = %v", err)
	}
	for _, e := range entries {
		if e.Type == trace.EntryActionStep {
			t.Fatal("trace contains an execution entry for a plan-only request")
		}
	}
}

func TestServiceRejectsEmptyGoal(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, writingCatalog(t))
	ctx := context.Background()
	empty := world.NewGoal(nil)

	if _, err := svc.RequestPlan(ctx, world.Empty(), empty); !errors.Is(err, application.ErrEmptyGoal) {
		t.Errorf("RequestPlan() = %v, want ErrEmptyGoal", err)
	}
	if _, err := svc.RunPlan(ctx, world.Empty(), empty, ""); !errors.Is(err, application.ErrEmptyGoal) {
		t.Errorf("RunPlan() = %v, want ErrEmptyGoal", err)
	}
}

func TestServiceRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, writingCatalog(t))

	_, err := svc.RunPlan(context.Background(), world.Empty(), draftGoal(), run.Mode("turbo"))
	if !errors.Is(err, run.ErrUnknownMode) {
		t.Errorf("RunPlan() = %v, want ErrUnknownMode", err)
	}
}

func TestServicePlanningFailure(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, writingCatalog(t))
	ctx := context.Background()
	goal := world.NewGoal(map[string]world.Value{"sequel.ready": world.Bool(true)})

	_, err := svc.RunPlan(ctx, world.Empty(), goal, "")
	var planErr *application.PlanningError
	if !errors.As(err, &planErr) {
		t.Fatalf("RunPlan() = %v, want *PlanningError", err)
	}
	if !errors.Is(err, application.ErrNoPlanFound) {
		t.Errorf("PlanningError should wrap ErrNoPlanFound, got %v", err)
	}

	runs, err := svc.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns() = %v, want one run", runs)
	}
	r, err := svc.GetRun(ctx, runs[0])
	if err != nil {
		t.Fatalf("GetRun() = %v", err)
	}
	if r.Phase != run.PhaseFailed {
		t.Errorf("stored phase = %s, want %s", r.Phase, run.PhaseFailed)
	}
	if r.FailureReason == "" {
		t.Error("FailureReason not recorded")
	}
}

func TestServiceExecutionFailureKeepsPartialResult(t *testing.T) {
	t.Parallel()

	c := action.NewCatalog()
	outline := action.Action{
		ID: "outline_story", Name: "Outline the story", Role: agent.RoleArchitect, Cost: 1,
		Effects: []action.Effect{{Key: "outline.ready", Value: world.Bool(true)}},
	}
	outline.Invoke = func(_ context.Context, view world.State, _ action.Invocation) (world.Patch, error) {
		return outline.StaticPatch(view), nil
	}
	draft := action.Action{
		ID: "draft_chapter", Name: "Draft the chapter", Role: agent.RoleWriter, Cost: 2,
		Preconditions: []world.Fact{{Key: "outline.ready", Value: world.Bool(true)}},
		Effects:       []action.Effect{{Key: "draft.ready", Value: world.Bool(true)}},
		Invoke:        failingInvoker(401, "invalid api key"),
	}
	if err := c.Register(outline); err != nil {
		t.Fatalf("Register() = %v", err)
	}
	if err := c.Register(draft); err != nil {
		t.Fatalf("Register() = %v", err)
	}

	svc := newTestService(t, c)
	ctx := context.Background()
	goal := world.NewGoal(map[string]world.Value{"draft.ready": world.Bool(true)})

	res, err := svc.RunPlan(ctx, world.Empty(), goal, run.ModeSingle)
	var execErr *application.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("RunPlan() = %v, want *ExecutionError", err)
	}
	if res == nil || res.Result == nil {
		t.Fatal("partial result missing alongside the error")
	}
	if !res.Result.FinalState.Holds("outline.ready", world.Bool(true)) {
		t.Error("completed step's effect missing from partial final state")
	}
	if res.Phase != run.PhaseFailed {
		t.Errorf("Phase = %s, want %s", res.Phase, run.PhaseFailed)
	}

	entries, err := svc.GetTrace(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetTrace() = %v", err)
	}
	sawFailed := false
	for _, e := range entries {
		if e.Type == trace.EntryRunFailed {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Error("trace has no run_failed entry")
	}
}

func TestServiceGetTraceUnknownRun(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, writingCatalog(t))

	if _, err := svc.GetTrace(context.Background(), "no-such-run"); err == nil {
		t.Error("GetTrace() = nil error for an unknown run")
	}
}

func TestServiceNilCatalog(t *testing.T) {
	t.Parallel()

	if _, err := application.NewService(config.Default(), nil); !errors.Is(err, application.ErrNilCatalog) {
		t.Errorf("NewService() = %v, want ErrNilCatalog", err)
	}
}
