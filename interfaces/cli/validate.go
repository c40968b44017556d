package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkwell-labs/storyplan/domain/action"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	scenarioPath string
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a scenario file",
		Long: `Validate a scenario file for correctness.

This command checks:
  - File format and required fields
  - Action structure (IDs, roles, costs, effects)
  - That every goal fact has at least one providing action
  - Fact keys referenced but never established

Examples:
  storyplan validate -f chapter.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validateScenario(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scenarioPath, "file", "f", "", "Path to scenario file (required)")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// validateScenario validates the scenario file.
func (a *App) validateScenario(opts *validateOptions) error {
	sc, err := LoadScenario(opts.scenarioPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	catalog, initial, goal, err := sc.Build()
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Every goal fact needs a provider or a matching initial fact.
	var unreachable []string
	for _, f := range goal.Facts() {
		if initial.Holds(f.Key, f.Value) {
			continue
		}
		if len(catalog.Providers(f)) == 0 {
			unreachable = append(unreachable, fmt.Sprintf("%s=%s", f.Key, f.Value))
		}
	}
	if len(unreachable) > 0 {
		return fmt.Errorf("validation failed: no action provides %s", strings.Join(unreachable, ", "))
	}

	fmt.Fprintf(a.stdout, "Scenario is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Fprintf(a.stdout, "  Description: %s\n", sc.Description)
	}
	fmt.Fprintf(a.stdout, "  Actions: %d\n", catalog.Len())
	for _, rc := range sortedRoleCounts(catalog) {
		fmt.Fprintf(a.stdout, "    - %s: %d\n", rc.role, rc.count)
	}
	fmt.Fprintf(a.stdout, "  Goal facts: %d\n", goal.Len())
	fmt.Fprintf(a.stdout, "  Initial facts: %d\n", initial.Len())

	// Dangling preconditions are legal but worth surfacing: the planner
	// can only satisfy them from the initial state.
	if dangling := danglingPreconditions(catalog); len(dangling) > 0 {
		fmt.Fprintf(a.stdout, "  Note: preconditions no action establishes: %s\n", strings.Join(dangling, ", "))
	}

	return nil
}

type roleCount struct {
	role  string
	count int
}

func sortedRoleCounts(catalog *action.Catalog) []roleCount {
	counts := make(map[string]int)
	for _, a := range catalog.Actions() {
		counts[string(a.Role)]++
	}
	out := make([]roleCount, 0, len(counts))
	for role, n := range counts {
		out = append(out, roleCount{role: role, count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].role < out[j].role })
	return out
}

// danglingPreconditions returns precondition keys with no providing action.
func danglingPreconditions(catalog *action.Catalog) []string {
	established := make(map[string]struct{})
	for _, a := range catalog.Actions() {
		for _, key := range a.EffectKeys() {
			established[key] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	var dangling []string
	for _, a := range catalog.Actions() {
		for _, p := range a.Preconditions {
			if _, ok := established[p.Key]; ok {
				continue
			}
			if _, dup := seen[p.Key]; dup {
				continue
			}
			seen[p.Key] = struct{}{}
			dangling = append(dangling, p.Key)
		}
	}
	sort.Strings(dangling)
	return dangling
}
