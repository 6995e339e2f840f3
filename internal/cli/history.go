package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisHughes24/lean/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit     int
	ProgramID string
	Rules     bool
}

// HistoryResult holds the listed runs, or per-rule counts with --rules.
type HistoryResult struct {
	Runs       []store.Run       `json:"runs,omitempty"`
	RuleCounts []store.RuleCount `json:"rule_counts,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with "simplify --record", newest first.

With --rules, print how often each rule fired across all recorded runs
instead.

Examples:
  dsimp history --db ./runs.db
  dsimp history --db ./runs.db --limit 5 --format json
  dsimp history --db ./runs.db --rules`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 = all)")
	cmd.Flags().StringVar(&opts.ProgramID, "program", "", "only list runs of this rule set id")
	cmd.Flags().BoolVar(&opts.Rules, "rules", false, "count rewrites per rule instead of listing runs")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--limit must be non-negative, got %d", opts.Limit))
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	var result HistoryResult
	if opts.Rules {
		if result.RuleCounts, err = st.CountRewritesByRule(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to count rewrites", err)
		}
	} else {
		result.Runs, err = st.ListRuns(ctx, store.ListOptions{Limit: opts.Limit, ProgramID: opts.ProgramID})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if opts.Rules {
		if len(result.RuleCounts) == 0 {
			fmt.Fprintln(w, "No rewrites recorded.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "RULE\tCOUNT")
		for _, rc := range result.RuleCounts {
			fmt.Fprintf(tw, "%s\t%d\n", rc.Rule, rc.Count)
		}
		return tw.Flush()
	}

	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSTATUS\tSTEPS\tINPUT\tOUTPUT")
	for _, r := range result.Runs {
		out := r.Output
		if r.Status != store.StatusOK {
			out = r.ErrorCode
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", r.Seq, r.ID, r.Status, r.Steps, r.Input, out)
	}
	return tw.Flush()
}

// openStore opens the run log named by --db. Reading commands never
// create a database, so a missing file is a command error.
func openStore(opts *RootOptions) (*store.Store, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
