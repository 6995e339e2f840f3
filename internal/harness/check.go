package harness

import (
	"fmt"
	"slices"
	"strings"
)

// MismatchError describes one failed expectation.
type MismatchError struct {
	Field    string       // output, error or rewrites
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "expectation failed: %s\n", e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s: %s => %s\n", ev.Seq, ev.Rule, ev.Before, ev.After)
		}
	}
	return buf.String()
}

// Check compares a result against the scenario's expectations and returns
// one message per mismatch.
func Check(s *Scenario, r *Result) []string {
	var errs []string
	add := func(field, expected, actual string) {
		errs = append(errs, (&MismatchError{
			Field:    field,
			Expected: expected,
			Actual:   actual,
			Trace:    r.Trace,
		}).Error())
	}

	if s.Expect.Error != "" {
		if r.ErrorCode != s.Expect.Error {
			add("error", s.Expect.Error, describeOutcome(r))
		}
	} else if r.ErrorCode != "" || r.Output != s.Expect.Output {
		add("output", s.Expect.Output, describeOutcome(r))
	}

	if s.Expect.Rewrites != nil {
		if got := r.Rules(); !slices.Equal(got, s.Expect.Rewrites) {
			add("rewrites", fmt.Sprintf("%v", s.Expect.Rewrites), fmt.Sprintf("%v", got))
		}
	}
	return errs
}

func describeOutcome(r *Result) string {
	if r.ErrorCode != "" {
		return "error " + r.ErrorCode
	}
	return r.Output
}
