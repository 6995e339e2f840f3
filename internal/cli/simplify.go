package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ChrisHughes24/lean/internal/canon"
	"github.com/ChrisHughes24/lean/internal/compiler"
	"github.com/ChrisHughes24/lean/internal/engine"
	"github.com/ChrisHughes24/lean/internal/expr"
	"github.com/ChrisHughes24/lean/internal/metrics"
	"github.com/ChrisHughes24/lean/internal/store"
	"github.com/ChrisHughes24/lean/internal/tctx"
)

// SimplifyOptions holds flags for the simplify command.
type SimplifyOptions struct {
	*RootOptions
	MaxSteps       int
	VisitInstances bool
	Record         bool
	Metrics        bool
	Timeout        time.Duration
}

// SimplifyResult is the payload of a simplify run.
type SimplifyResult struct {
	Input     string             `json:"input"`
	Output    string             `json:"output,omitempty"`
	Status    string             `json:"status"`
	Steps     int                `json:"steps"`
	Restarts  int                `json:"restarts"`
	CacheHits int                `json:"cache_hits"`
	Rewrites  []store.Rewrite    `json:"rewrites"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// NewSimplifyCommand creates the simplify command.
func NewSimplifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimplifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simplify <program.cue> <expr>",
		Short: "Simplify an expression under a program's rules",
		Long: `Simplify an expression to a fixed point under the rewrite rules of a program.

The expression uses the s-expression syntax of rule patterns, e.g.
  (add (succ zero) zero)
  (fun (x : Nat) (add x zero))

Exit codes:
  0 - Simplification finished
  1 - Simplification failed (step ceiling, cancellation)
  2 - Command error (bad program, unparsable expression, database error)

Examples:
  dsimp simplify ./nat.cue "(double (succ zero))"
  dsimp simplify ./nat.cue "(add zero zero)" --max-steps 50 --format json
  dsimp simplify ./nat.cue "(add zero zero)" --record --db ./runs.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimplify(cmd.Context(), opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "step ceiling for the run")
	cmd.Flags().BoolVar(&opts.VisitInstances, "visit-instances", false, "simplify instance arguments instead of canonicalizing them")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record the run in the database (requires --db)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "include run counters in the output")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "cancel the run after this duration (0 = no timeout)")

	return cmd
}

func runSimplify(ctx context.Context, opts *SimplifyOptions, programPath, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := opts.logger()

	if opts.MaxSteps <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--max-steps must be positive, got %d", opts.MaxSteps))
	}
	if opts.Record && opts.Database == "" {
		return NewExitError(ExitCommandError, "--record requires --db")
	}

	_, env, set, err := compiler.LoadFile(programPath)
	if err != nil {
		_ = formatter.Error("LOAD_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load program", err)
	}
	formatter.VerboseLog("Loaded %d declaration(s) and %d rule(s) from %s", env.Len(), set.Len(), programPath)

	e, err := expr.Parse(input)
	if err != nil {
		_ = formatter.Error("PARSE_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to parse expression", err)
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up metrics", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var rewrites []store.Rewrite
	engineOpts := []engine.Option{
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithVisitInstances(opts.VisitInstances),
		engine.WithLogger(logger),
		engine.WithMetrics(collector),
		engine.WithRewriteObserver(func(rule string, before, after expr.Expr) {
			rewrites = append(rewrites, store.Rewrite{
				Seq:    len(rewrites) + 1,
				Rule:   rule,
				Before: expr.Print(before),
				After:  expr.Print(after),
			})
		}),
	}
	if opts.Verbose {
		engineOpts = append(engineOpts, engine.WithTracer(engine.SlogTracer{Logger: logger}))
	}

	tc := tctx.New(env, tctx.WithNameGenerator(tctx.UUIDNames{}), tctx.WithLogger(logger))
	core := engine.NewCore(tc, canon.New(tc, canon.WithLogger(logger)), engine.NewRuleApplicator(set), engineOpts...)

	start := time.Now()
	out, simplifyErr := core.Simplify(ctx, e)
	stats := core.Stats()
	status := runStatus(simplifyErr)
	collector.ObserveRun(status)
	logger.Debug("simplify finished",
		"status", status,
		"steps", stats.Steps,
		"restarts", stats.Restarts,
		"duration", time.Since(start),
	)

	if simplifyErr != nil && engine.ErrorCode(simplifyErr) == "" {
		_ = formatter.Error("INTERNAL", simplifyErr.Error(), nil)
		return WrapExitError(ExitFailure, "simplification failed", simplifyErr)
	}

	result := SimplifyResult{
		Input:     expr.Print(e),
		Status:    status,
		Steps:     stats.Steps,
		Restarts:  stats.Restarts,
		CacheHits: stats.CacheHits,
		Rewrites:  rewrites,
	}
	if result.Rewrites == nil {
		result.Rewrites = []store.Rewrite{}
	}
	if simplifyErr == nil {
		result.Output = expr.Print(out)
	}
	if opts.Metrics {
		if result.Metrics, err = metrics.Snapshot(reg); err != nil {
			return WrapExitError(ExitCommandError, "failed to gather metrics", err)
		}
	}

	var runID string
	if opts.Record {
		runID, err = recordRun(ctx, opts, set.ID, e, result, simplifyErr)
		if err != nil {
			_ = formatter.Error("STORE_ERROR", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		formatter.VerboseLog("Recorded run %s", runID)
	}

	if simplifyErr != nil {
		return outputSimplifyFailure(formatter, result, runID, simplifyErr)
	}
	return outputSimplifySuccess(formatter, result, runID)
}

// runStatus maps a Simplify error to a run status label.
func runStatus(err error) string {
	switch {
	case err == nil:
		return store.StatusOK
	case engine.IsStepsExceededError(err):
		return store.StatusStepsExceeded
	case engine.IsCancelled(err):
		return store.StatusCancelled
	default:
		return store.StatusError
	}
}

// errorDetails flattens the context of an engine error into string pairs.
func errorDetails(err error) map[string]string {
	var se *engine.StepsExceededError
	if errors.As(err, &se) {
		return map[string]string{
			"steps": strconv.Itoa(se.Steps),
			"limit": strconv.Itoa(se.Limit),
		}
	}
	var re *engine.RuntimeError
	if errors.As(err, &re) && len(re.Details) > 0 {
		return re.Details
	}
	return nil
}

func recordRun(ctx context.Context, opts *SimplifyOptions, programID func() (string, error), input expr.Expr, result SimplifyResult, simplifyErr error) (string, error) {
	pid, err := programID()
	if err != nil {
		return "", fmt.Errorf("rule set id: %w", err)
	}
	inputID, err := expr.ID(input)
	if err != nil {
		return "", fmt.Errorf("input id: %w", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run := store.Run{
		ProgramID: pid,
		Input:     result.Input,
		InputID:   inputID,
		Output:    result.Output,
		Status:    result.Status,
		MaxSteps:  opts.MaxSteps,
		Steps:     result.Steps,
		Restarts:  result.Restarts,
		CacheHits: result.CacheHits,
		Rewrites:  result.Rewrites,
	}
	if simplifyErr != nil {
		run.ErrorCode = string(engine.ErrorCode(simplifyErr))
		run.ErrorMessage = simplifyErr.Error()
		run.ErrorDetails = errorDetails(simplifyErr)
	}

	// A cancelled run is still recorded; the write must not inherit the
	// cancellation.
	written, err := st.WriteRun(context.WithoutCancel(ctx), run)
	if err != nil {
		return "", err
	}
	return written.ID, nil
}

func outputSimplifySuccess(formatter *OutputFormatter, result SimplifyResult, runID string) error {
	if formatter.Format == "json" {
		return formatter.encode(CLIResponse{Status: "ok", Data: result, RunID: runID})
	}

	w := formatter.Writer
	fmt.Fprintln(w, result.Output)
	formatter.VerboseLog("%d step(s), %d restart(s), %d cache hit(s), %d rewrite(s)",
		result.Steps, result.Restarts, result.CacheHits, len(result.Rewrites))
	for _, rw := range result.Rewrites {
		formatter.VerboseLog("  [%d] %s: %s => %s", rw.Seq, rw.Rule, rw.Before, rw.After)
	}
	writeMetricsText(formatter, result.Metrics)
	if runID != "" {
		fmt.Fprintf(w, "run: %s\n", runID)
	}
	return nil
}

func outputSimplifyFailure(formatter *OutputFormatter, result SimplifyResult, runID string, simplifyErr error) error {
	code := string(engine.ErrorCode(simplifyErr))
	var details any
	if d := errorDetails(simplifyErr); len(d) > 0 {
		details = d
	}
	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    code,
				Message: simplifyErr.Error(),
				Details: details,
			},
			RunID: runID,
		}); err != nil {
			return err
		}
	} else {
		_ = formatter.Error(code, simplifyErr.Error(), details)
		writeMetricsText(formatter, result.Metrics)
		if runID != "" {
			fmt.Fprintf(formatter.Writer, "run: %s\n", runID)
		}
	}
	return WrapExitError(ExitFailure, "simplification failed", simplifyErr)
}

func writeMetricsText(formatter *OutputFormatter, m map[string]float64) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(formatter.Writer, "%s %g\n", k, m[k])
	}
}
