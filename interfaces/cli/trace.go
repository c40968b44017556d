package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	storagebadger "github.com/inkwell-labs/storyplan/infrastructure/storage/badger"
)

// traceOptions holds options for the trace command.
type traceOptions struct {
	jsonOutput bool
	list       bool
}

// newTraceCmd creates the trace command.
func (a *App) newTraceCmd() *cobra.Command {
	opts := &traceOptions{}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Inspect persisted run traces",
		Long: `Read a run's trace from the configured trace database.

Requires storage.trace_path to be set in the configuration file, and a
run executed with that configuration.

Examples:
  # List recorded runs
  storyplan trace -c config.yaml --list

  # Show one run's trace
  storyplan trace -c config.yaml 7d68f5a2-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.list {
				return a.listTraces(cmd, opts)
			}
			if len(args) == 0 {
				return fmt.Errorf("a run ID is required (or use --list)")
			}
			return a.showTrace(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.list, "list", false, "List recorded run IDs")

	return cmd
}

// openTraceStore opens the configured trace database.
func (a *App) openTraceStore() (*storagebadger.TraceStore, error) {
	if a.cfg.Storage.TracePath == "" {
		return nil, fmt.Errorf("no trace database configured (set storage.trace_path)")
	}
	store, err := storagebadger.NewTraceStore(storagebadger.Config{Dir: a.cfg.Storage.TracePath})
	if err != nil {
		return nil, fmt.Errorf("opening trace store: %w", err)
	}
	return store, nil
}

// listTraces prints every recorded run ID.
func (a *App) listTraces(cmd *cobra.Command, opts *traceOptions) error {
	store, err := a.openTraceStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Runs(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintf(a.stdout, "No recorded runs.\n")
		return nil
	}
	for _, id := range runs {
		fmt.Fprintln(a.stdout, id)
	}
	return nil
}

// showTrace prints one run's entries.
func (a *App) showTrace(cmd *cobra.Command, runID string, opts *traceOptions) error {
	store, err := a.openTraceStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.Get(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	fmt.Fprintf(a.stdout, "Trace for %s (%d entries):\n", runID, len(entries))
	for _, e := range entries {
		fmt.Fprintf(a.stdout, "  %4d  %s  %-20s %s\n",
			e.Sequence, e.Timestamp.Format("15:04:05.000"), e.Type, compactDetails(e.Details))
	}
	return nil
}
