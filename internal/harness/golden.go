package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// TraceSnapshot captures the observable outcome of a scenario execution.
// It is serialized as canonical JSON for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Output       string       `json:"output,omitempty"`
	Error        string       `json:"error,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts a TraceSnapshot to the generic tree accepted by
// expr.MarshalCanonical.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		traceList[i] = map[string]any{
			"seq":    ev.Seq,
			"rule":   ev.Rule,
			"before": ev.Before,
			"after":  ev.After,
		}
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.Output != "" {
		result["output"] = s.Output
	}
	if s.Error != "" {
		result["error"] = s.Error
	}
	return result
}

// Snapshot builds the golden snapshot of a result.
func Snapshot(name string, r *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		Output:       r.Output,
		Error:        r.ErrorCode,
		Trace:        r.Trace,
	}
}

// MarshalSnapshot renders a snapshot as canonical JSON.
func MarshalSnapshot(s TraceSnapshot) ([]byte, error) {
	return expr.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot be run. Expectation mismatches
// and golden differences fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Error(msg)
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(Snapshot(name, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
