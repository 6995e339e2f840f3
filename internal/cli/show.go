package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a recorded run and its rewrites",
		Long: `Print one recorded run: input, outcome, counters and every rule
application in order.

Examples:
  dsimp show --db ./runs.db 01929c3e-...
  dsimp show --db ./runs.db 01929c3e-... --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, runID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.ReadRun(cmd.Context(), runID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = formatter.Error("NOT_FOUND", fmt.Sprintf("run not found: %s", runID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runID))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if formatter.Format == "json" {
		return formatter.encode(CLIResponse{Status: "ok", Data: run, RunID: run.ID})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run:      %s (seq %d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "Program:  %s\n", run.ProgramID)
	fmt.Fprintf(w, "Input:    %s\n", run.Input)
	if run.ErrorCode != "" {
		fmt.Fprintf(w, "Status:   %s [%s] %s\n", run.Status, run.ErrorCode, run.ErrorMessage)
		keys := make([]string, 0, len(run.ErrorDetails))
		for k := range run.ErrorDetails {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "          %s=%s\n", k, run.ErrorDetails[k])
		}
	} else {
		fmt.Fprintf(w, "Status:   %s\n", run.Status)
		fmt.Fprintf(w, "Output:   %s\n", run.Output)
	}
	fmt.Fprintf(w, "Steps:    %d / %d (%d restarts, %d cache hits)\n", run.Steps, run.MaxSteps, run.Restarts, run.CacheHits)

	if len(run.Rewrites) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Rewrites:")
		for _, rw := range run.Rewrites {
			fmt.Fprintf(w, "  [%d] %s: %s => %s\n", rw.Seq, rw.Rule, rw.Before, rw.After)
		}
	}
	return nil
}
