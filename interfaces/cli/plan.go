package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/storyplan/application"
)

// planOptions holds options for the plan command.
type planOptions struct {
	scenarioPath string
	jsonOutput   bool
}

// newPlanCmd creates the plan command.
func (a *App) newPlanCmd() *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Search for a plan without executing it",
		Long: `Search the scenario's action catalog for the cheapest sequence that
satisfies the goal, and print it without dispatching any work.

Examples:
  # Plan a scenario
  storyplan plan -f chapter.yaml

  # Machine-readable output
  storyplan plan -f chapter.yaml --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.planScenario(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scenarioPath, "file", "f", "", "Path to scenario file (required)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the plan as JSON")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// planScenario loads the scenario and requests a plan.
func (a *App) planScenario(ctx context.Context, opts *planOptions) error {
	sc, err := LoadScenario(opts.scenarioPath)
	if err != nil {
		return err
	}
	catalog, initial, goal, err := sc.Build()
	if err != nil {
		return fmt.Errorf("building scenario: %w", err)
	}

	svc, err := application.NewService(a.cfg, catalog)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	summary, err := svc.RequestPlan(ctx, initial, goal)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run_id":         summary.RunID,
			"actions":        summary.ActionIDs,
			"total_cost":     summary.TotalCost,
			"nodes_expanded": summary.NodesExpanded,
		})
	}

	fmt.Fprintf(a.stdout, "Plan for %s\n", sc.Name)
	fmt.Fprintf(a.stdout, "  Run ID: %s\n", summary.RunID)
	fmt.Fprintf(a.stdout, "  Steps: %s\n", strings.Join(summary.ActionIDs, " -> "))
	fmt.Fprintf(a.stdout, "  Total cost: %.2f\n", summary.TotalCost)
	fmt.Fprintf(a.stdout, "  Nodes expanded: %d\n", summary.NodesExpanded)
	return nil
}
