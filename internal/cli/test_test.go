package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	scenariosDir  = filepath.Join("..", "..", "testdata", "scenarios")
	harnessGolden = filepath.Join("..", "harness", "testdata", "golden")
)

func TestTestCommandAllPass(t *testing.T) {
	out, err := executeRoot(t, "test", scenariosDir, "--golden", harnessGolden)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ nat_double")
	assert.Contains(t, out, "✓ step_ceiling")
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandWithoutGoldenFiles(t *testing.T) {
	// scenarios/golden does not exist: expectations only.
	out, err := executeRoot(t, "test", scenariosDir)
	require.NoError(t, err)
	assert.Contains(t, out, "5 passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := executeRoot(t, "--format", "json", "test", scenariosDir, "--filter", "nat_*")
	require.NoError(t, err)

	data := decodeResponse(t, out).Data.(map[string]any)
	assert.EqualValues(t, 3, data["total"])
	assert.EqualValues(t, 3, data["passed"])
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := executeRoot(t, "test", scenariosDir, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	golden := t.TempDir()

	out, err := executeRoot(t, "test", scenariosDir, "--golden", golden, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ nat_add_zero (golden updated)")

	for _, name := range []string{"nat_add_zero", "nat_add_succ", "nat_double", "under_binder", "step_ceiling"} {
		got, err := os.ReadFile(filepath.Join(golden, name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join(harnessGolden, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}

	// The regenerated files now match.
	_, err = executeRoot(t, "test", scenariosDir, "--golden", golden)
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "nat_double.golden"), []byte(`{"trace":[]}`), 0o644))

	out, err := executeRoot(t, "test", scenariosDir, "--golden", golden)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ nat_double")
	assert.Contains(t, out, "trace does not match golden file")
	assert.Contains(t, out, "4 passed, 1 failed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	program, err := filepath.Abs(natProgram)
	require.NoError(t, err)
	scenario := `name: wrong_output
description: "expects the wrong normal form"
program_file: ` + program + `
input: "(double zero)"
expect:
  output: "(succ zero)"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_output.yaml"), []byte(scenario), 0o644))

	out, err := executeRoot(t, "--format", "json", "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)

	scenarios := resp.Data.(map[string]any)["scenarios"].([]any)
	require.Len(t, scenarios, 1)
	first := scenarios[0].(map[string]any)
	assert.Equal(t, "wrong_output", first["name"])
	assert.Equal(t, false, first["pass"])
	assert.NotEmpty(t, first["errors"])
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: broken\n"), 0o644))

	out, err := executeRoot(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandEmptyDirectory(t *testing.T) {
	out, err := executeRoot(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandMissingDirectory(t *testing.T) {
	_, err := executeRoot(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
