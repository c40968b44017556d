package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/storyplan/application"
	"github.com/inkwell-labs/storyplan/domain/run"
	storagebadger "github.com/inkwell-labs/storyplan/infrastructure/storage/badger"
	"github.com/inkwell-labs/storyplan/infrastructure/telemetry"
)

// runOptions holds options for the run command.
type runOptions struct {
	scenarioPath string
	mode         string
	jsonOutput   bool
	showTrace    bool
	metrics      bool
	timeout      time.Duration
}

// newRunCmd creates the run command.
func (a *App) newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan and execute a scenario",
		Long: `Plan the scenario's goal and execute the resulting steps. Scenario
actions have no generation backend, so each step applies its declared
effects; the command exercises the full planning, dispatch, and trace
pipeline.

Examples:
  # Run with the configured default dispatch mode
  storyplan run -f chapter.yaml

  # Run everything concurrently where dependencies allow
  storyplan run -f chapter.yaml --mode hybrid

  # Dump the run trace after execution
  storyplan run -f chapter.yaml --show-trace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScenario(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scenarioPath, "file", "f", "", "Path to scenario file (required)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Dispatch mode (single, parallel, hybrid, swarm)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVar(&opts.showTrace, "show-trace", false, "Print the run trace after execution")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "Emit metrics to stdout while running")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Execution timeout")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// runScenario loads, plans, and executes the scenario.
func (a *App) runScenario(ctx context.Context, opts *runOptions) error {
	sc, err := LoadScenario(opts.scenarioPath)
	if err != nil {
		return err
	}
	catalog, initial, goal, err := sc.Build()
	if err != nil {
		return fmt.Errorf("building scenario: %w", err)
	}

	var svcOpts []application.Option

	if opts.metrics {
		shutdown, err := telemetry.InitStdoutExporter(10 * time.Second)
		if err != nil {
			return fmt.Errorf("starting metrics exporter: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
		svcOpts = append(svcOpts, application.WithMetrics(telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())))
	}

	if a.cfg.Storage.TracePath != "" {
		store, err := storagebadger.NewTraceStore(storagebadger.Config{Dir: a.cfg.Storage.TracePath})
		if err != nil {
			return fmt.Errorf("opening trace store: %w", err)
		}
		defer func() { _ = store.Close() }()
		svcOpts = append(svcOpts, application.WithTraceStore(store))
	}

	svc, err := application.NewService(a.cfg, catalog, svcOpts...)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	start := time.Now()
	res, runErr := svc.RunPlan(ctx, initial, goal, run.Mode(opts.mode))
	duration := time.Since(start)

	if runErr != nil && res == nil {
		return fmt.Errorf("run failed: %w", runErr)
	}

	if opts.jsonOutput {
		if err := a.printRunJSON(sc, res, runErr, duration); err != nil {
			return err
		}
	} else {
		a.printRunText(sc, res, runErr, duration)
	}

	if opts.showTrace {
		if err := a.printTrace(ctx, svc, res.RunID, opts.jsonOutput); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("run failed: %w", runErr)
	}
	return nil
}

func (a *App) printRunJSON(sc *Scenario, res *application.RunResult, runErr error, duration time.Duration) error {
	output := map[string]any{
		"run_id":   res.RunID,
		"scenario": sc.Name,
		"phase":    string(res.Phase),
		"duration": duration.String(),
	}
	if res.Result != nil {
		output["satisfied"] = res.Result.Satisfied
		output["unsatisfied"] = res.Result.Unsatisfied
		output["degraded"] = res.Result.Degraded
		output["failed_steps"] = res.Result.FailedSteps
		output["aborted_steps"] = res.Result.AbortedSteps
	}
	if runErr != nil {
		output["error"] = runErr.Error()
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func (a *App) printRunText(sc *Scenario, res *application.RunResult, runErr error, duration time.Duration) {
	fmt.Fprintf(a.stdout, "Run finished\n")
	fmt.Fprintf(a.stdout, "  Scenario: %s\n", sc.Name)
	fmt.Fprintf(a.stdout, "  Run ID: %s\n", res.RunID)
	fmt.Fprintf(a.stdout, "  Phase: %s\n", res.Phase)
	fmt.Fprintf(a.stdout, "  Duration: %s\n", duration)

	if res.Result != nil {
		r := res.Result
		fmt.Fprintf(a.stdout, "  Satisfied: %s\n", joinOrDash(r.Satisfied))
		if len(r.Unsatisfied) > 0 {
			fmt.Fprintf(a.stdout, "  Unsatisfied: %s\n", strings.Join(r.Unsatisfied, ", "))
		}
		if r.Degraded {
			fmt.Fprintf(a.stdout, "  Degraded: some steps produced placeholder output\n")
		}
		if len(r.FailedSteps) > 0 {
			fmt.Fprintf(a.stdout, "  Failed steps: %s\n", strings.Join(r.FailedSteps, ", "))
		}
		if len(r.AbortedSteps) > 0 {
			fmt.Fprintf(a.stdout, "  Aborted steps: %s\n", strings.Join(r.AbortedSteps, ", "))
		}
	}
	if runErr != nil {
		fmt.Fprintf(a.stdout, "  Error: %v\n", runErr)
	}
}

// printTrace dumps the persisted trace for a run.
func (a *App) printTrace(ctx context.Context, svc *application.Service, runID string, jsonOutput bool) error {
	entries, err := svc.GetTrace(ctx, runID)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Fprintf(a.stdout, "\nTrace (%d entries):\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(a.stdout, "  %4d  %-20s %s\n", e.Sequence, e.Type, compactDetails(e.Details))
	}
	return nil
}

// compactDetails renders entry details on one line.
func compactDetails(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
