package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordRuns simplifies each input against nat.cue into db and returns
// the run ids in order.
func recordRuns(t *testing.T, db string, inputs ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		out, err := executeRoot(t, "--format", "json", "--db", db, "simplify", natProgram, in, "--record")
		require.NoError(t, err)
		resp := decodeResponse(t, out)
		require.NotEmpty(t, resp.RunID)
		ids = append(ids, resp.RunID)
	}
	return ids
}

func TestHistoryNewestFirst(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	ids := recordRuns(t, db, "(double zero)", "(add zero zero)", "(succ zero)")

	out, err := executeRoot(t, "--format", "json", "--db", db, "history")
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	runs := data["runs"].([]any)
	require.Len(t, runs, 3)
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		assert.Equal(t, want, runs[i].(map[string]any)["id"])
	}
}

func TestHistoryLimit(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	ids := recordRuns(t, db, "(double zero)", "(add zero zero)")

	out, err := executeRoot(t, "--format", "json", "--db", db, "history", "--limit", "1")
	require.NoError(t, err)

	runs := decodeResponse(t, out).Data.(map[string]any)["runs"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[1], runs[0].(map[string]any)["id"])
}

func TestHistoryProgramFilter(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, db, "(double zero)")

	out, err := executeRoot(t, "--format", "json", "--db", db, "history", "--program", "no-such-rule-set")
	require.NoError(t, err)
	data := decodeResponse(t, out).Data.(map[string]any)
	assert.Empty(t, data["runs"])

	out, err = executeRoot(t, "--format", "json", "check", natProgram)
	require.NoError(t, err)
	ruleSetID := decodeResponse(t, out).Data.(map[string]any)["rule_set_id"].(string)

	out, err = executeRoot(t, "--format", "json", "--db", db, "history", "--program", ruleSetID)
	require.NoError(t, err)
	runs := decodeResponse(t, out).Data.(map[string]any)["runs"].([]any)
	assert.Len(t, runs, 1)
}

func TestHistoryText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	ids := recordRuns(t, db, "(double zero)")

	out, err := executeRoot(t, "--db", db, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, ids[0])
	assert.Contains(t, out, "(double zero)")
}

func TestHistoryRuleCounts(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, db, "(double zero)", "(add zero zero)")

	out, err := executeRoot(t, "--format", "json", "--db", db, "history", "--rules")
	require.NoError(t, err)

	counts := decodeResponse(t, out).Data.(map[string]any)["rule_counts"].([]any)
	require.Len(t, counts, 2)
	first := counts[0].(map[string]any)
	assert.Equal(t, "add_zero", first["rule"])
	assert.EqualValues(t, 2, first["count"])
	second := counts[1].(map[string]any)
	assert.Equal(t, "double_def", second["rule"])
	assert.EqualValues(t, 1, second["count"])
}

func TestHistoryNoRewrites(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, db, "zero")

	out, err := executeRoot(t, "--db", db, "history", "--rules")
	require.NoError(t, err)
	assert.Contains(t, out, "No rewrites recorded.")
}

func TestHistoryMissingDatabase(t *testing.T) {
	_, err := executeRoot(t, "--db", filepath.Join(t.TempDir(), "missing.db"), "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestHistoryRequiresDB(t *testing.T) {
	_, err := executeRoot(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShowText(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	ids := recordRuns(t, db, "(double zero)")

	out, err := executeRoot(t, "--db", db, "show", ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, "Input:    (double zero)")
	assert.Contains(t, out, "Output:   zero")
	assert.Contains(t, out, "[1] double_def: (double zero) => (add zero zero)")
	assert.Contains(t, out, "[2] add_zero: (add zero zero) => zero")
}

func TestShowNotFound(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	recordRuns(t, db, "zero")

	out, err := executeRoot(t, "--db", db, "show", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "run not found")
}
