package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisHughes24/lean/internal/compiler"
)

// Command-level error codes.
const (
	ErrCodeCompile = "E001" // CUE syntax or program shape error
	ErrCodeRead    = "E005" // program file missing or unreadable
)

// CheckResult holds the outcome of checking a program.
type CheckResult struct {
	Valid     bool                       `json:"valid"`
	RuleSetID string                     `json:"rule_set_id,omitempty"`
	Decls     int                        `json:"decls"`
	Rules     int                        `json:"rules"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
	Warnings  []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <program.cue>",
		Short: "Validate a program without simplifying anything",
		Long: `Compile and validate a program's declarations and rules.

Reports undeclared constants, malformed rule heads and unbound pattern
variables. Rules that can rewrite into each other are reported as loop
warnings; they do not fail the check.

Exit codes:
  0 - Program is valid
  1 - Validation errors found
  2 - Program could not be read or compiled`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, programPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(programPath); err != nil {
		_ = formatter.Error(ErrCodeRead, err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %v", ErrCodeRead, err))
	}

	p, err := compiler.CompileFile(programPath)
	if err != nil {
		var details any
		var cErr *compiler.CompileError
		if errors.As(err, &cErr) {
			d := map[string]any{"field": cErr.Field}
			if cErr.Pos.IsValid() {
				d["line"] = cErr.Pos.Line()
			}
			details = d
		}
		_ = formatter.Error(ErrCodeCompile, err.Error(), details)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %v", ErrCodeCompile, err))
	}
	formatter.VerboseLog("Compiled %d declaration(s) and %d rule(s)", len(p.Decls), len(p.Rules))

	result := CheckResult{
		Decls:    len(p.Decls),
		Rules:    len(p.Rules),
		Errors:   compiler.Validate(p),
		Warnings: compiler.AnalyzeCycles(p.Rules),
	}
	if len(result.Errors) > 0 {
		return outputCheckErrors(formatter, result)
	}

	_, set, err := p.Build()
	if err != nil {
		_ = formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build program", err)
	}
	if result.RuleSetID, err = set.ID(); err != nil {
		return WrapExitError(ExitCommandError, "failed to hash rule set", err)
	}
	result.Valid = true

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Program valid (%d decls, %d rules)\n", result.Decls, result.Rules)
	writeWarningsText(formatter, result.Warnings)
	formatter.VerboseLog("Rule set: %s", result.RuleSetID)
	return nil
}

func outputCheckErrors(formatter *OutputFormatter, result CheckResult) error {
	errs := result.Errors
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return failure
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(w, "line %d\n", e.Line)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	writeWarningsText(formatter, result.Warnings)
	return failure
}

func writeWarningsText(formatter *OutputFormatter, warnings []compiler.CycleWarning) {
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "⚠ %s\n", w.Message)
	}
}
