package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ChrisHughes24/lean/internal/canon"
	"github.com/ChrisHughes24/lean/internal/compiler"
	"github.com/ChrisHughes24/lean/internal/engine"
	"github.com/ChrisHughes24/lean/internal/expr"
	"github.com/ChrisHughes24/lean/internal/rules"
	"github.com/ChrisHughes24/lean/internal/tctx"
	"github.com/ChrisHughes24/lean/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each run gets its own type context, canonizer and clock. Setup failures
// (program compilation, input parsing) are returned as errors; a failing
// simplification is an outcome, recorded in the result and checked
// against the scenario's expectations.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	env, set, err := loadProgram(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	input, err := expr.Parse(scenario.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	tc := tctx.New(env, tctx.WithNameGenerator(tctx.NewSeqNames("")), tctx.WithLogger(logger))
	clock := testutil.NewDeterministicClock()
	result := NewResult()

	maxSteps := scenario.MaxSteps
	if maxSteps == 0 {
		maxSteps = engine.DefaultMaxSteps
	}

	core := engine.NewCore(tc, canon.New(tc, canon.WithLogger(logger)), engine.NewRuleApplicator(set),
		engine.WithMaxSteps(maxSteps),
		engine.WithVisitInstances(scenario.VisitInstances),
		engine.WithLogger(logger),
		engine.WithRewriteObserver(func(rule string, before, after expr.Expr) {
			result.AddRewrite(rule, expr.Print(before), expr.Print(after), clock.Next())
		}),
	)

	out, err := core.Simplify(ctx, input)
	result.Stats = core.Stats()
	if err != nil {
		code := engine.ErrorCode(err)
		if code == "" {
			return nil, fmt.Errorf("simplify: %w", err)
		}
		result.ErrorCode = string(code)
	} else {
		result.Output = expr.Print(out)
	}

	logger.Info("scenario completed",
		"scenario", scenario.Name,
		"steps", result.Stats.Steps,
		"rewrites", len(result.Trace),
	)

	for _, msg := range Check(scenario, result) {
		result.AddError(msg)
	}
	return result, nil
}

func loadProgram(s *Scenario) (*tctx.Env, *rules.Set, error) {
	var err error
	var env *tctx.Env
	var set *rules.Set
	if s.Program != "" {
		_, env, set, err = compiler.LoadSource(s.Name+".cue", s.Program)
	} else {
		_, env, set, err = compiler.LoadFile(s.ProgramFile)
	}
	return env, set, err
}
