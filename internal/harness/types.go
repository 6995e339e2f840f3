package harness

import "github.com/ChrisHughes24/lean/internal/engine"

// TraceEvent is one rule application observed during a scenario run.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Rule   string `json:"rule"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause matches.
	Pass bool `json:"pass"`

	// Output is the printed simplified expression. Empty when the run failed.
	Output string `json:"output,omitempty"`

	// ErrorCode is the engine error code of a failed run.
	ErrorCode string `json:"error_code,omitempty"`

	// Trace contains all rule applications in order, including those made
	// before a failure.
	Trace []TraceEvent `json:"trace"`

	// Stats are the engine counters of the run.
	Stats engine.Stats `json:"stats"`

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an expectation mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddRewrite appends a rule application to the trace.
func (r *Result) AddRewrite(rule, before, after string, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    seq,
		Rule:   rule,
		Before: before,
		After:  after,
	})
}

// Rules returns the rule names of the trace in order.
func (r *Result) Rules() []string {
	names := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		names[i] = ev.Rule
	}
	return names
}
