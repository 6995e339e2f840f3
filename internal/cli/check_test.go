package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisHughes24/lean/internal/compiler"
)

func TestCheckValidProgram(t *testing.T) {
	out, err := executeRoot(t, "check", natProgram)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Program valid (5 decls, 3 rules)")
}

func TestCheckValidProgramJSON(t *testing.T) {
	out, err := executeRoot(t, "--format", "json", "check", natProgram)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.EqualValues(t, 5, data["decls"])
	assert.EqualValues(t, 3, data["rules"])
	assert.NotEmpty(t, data["rule_set_id"])
}

func TestCheckRuleSetIDIsStable(t *testing.T) {
	first, err := executeRoot(t, "--format", "json", "check", natProgram)
	require.NoError(t, err)
	second, err := executeRoot(t, "--format", "json", "check", natProgram)
	require.NoError(t, err)

	a := decodeResponse(t, first).Data.(map[string]any)["rule_set_id"]
	b := decodeResponse(t, second).Data.(map[string]any)["rule_set_id"]
	assert.Equal(t, a, b)
}

func TestCheckValidationErrors(t *testing.T) {
	program := writeProgram(t, `
decls: A: type: "Type"
rules: bad: {lhs: "(g ?x)", rhs: "?y"}
`)

	out, err := executeRoot(t, "check", program)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, compiler.ErrRuleHeadNotDeclared)
	assert.Contains(t, out, compiler.ErrUnboundPatternVar)
}

func TestCheckValidationErrorsJSON(t *testing.T) {
	program := writeProgram(t, `
decls: A: type: "Type"
rules: bad: {lhs: "(g ?x)", rhs: "?x"}
`)

	out, err := executeRoot(t, "--format", "json", "check", program)
	require.Error(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	data := resp.Data.(map[string]any)
	assert.Equal(t, false, data["valid"])
	assert.NotEmpty(t, data["errors"])
}

func TestCheckLoopWarning(t *testing.T) {
	program := writeProgram(t, loopProgram)

	out, err := executeRoot(t, "check", program)
	require.NoError(t, err, "loops are warnings, not failures")
	assert.Contains(t, out, "⚠ rule loop can rewrite its own output")
}

func TestCheckCompileError(t *testing.T) {
	program := writeProgram(t, `decls: {`)

	out, err := executeRoot(t, "check", program)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeCompile)
}

func TestCheckMissingFile(t *testing.T) {
	_, err := executeRoot(t, "check", "/nonexistent/program.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeRead)
}
