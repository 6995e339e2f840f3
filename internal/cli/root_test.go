package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var natProgram = filepath.Join("..", "..", "testdata", "programs", "nat.cue")

// executeRoot runs the full command tree and returns stdout.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dsimp", cmd.Use)
	assert.Contains(t, cmd.Long, "DSIMP_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"simplify", "check", "history", "show", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestSimplifyCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	simplifyCmd, _, err := cmd.Find([]string{"simplify"})
	require.NoError(t, err)

	maxSteps := simplifyCmd.Flags().Lookup("max-steps")
	require.NotNil(t, maxSteps)
	assert.Equal(t, "10000", maxSteps.DefValue)

	for _, name := range []string{"visit-instances", "record", "metrics", "timeout"} {
		assert.NotNil(t, simplifyCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := executeRoot(t, "--format", "yaml", "check", natProgram)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestEnvironmentSetsFlags(t *testing.T) {
	t.Setenv("DSIMP_FORMAT", "json")
	t.Setenv("DSIMP_MAX_STEPS", "1")

	out, err := executeRoot(t, "simplify", natProgram, "(double zero)")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "STEPS_EXCEEDED", resp.Error.Code)
}

func TestExplicitFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("DSIMP_FORMAT", "json")

	out, err := executeRoot(t, "--format", "text", "simplify", natProgram, "(double zero)")
	require.NoError(t, err)
	assert.Equal(t, "zero\n", out)
}

func TestInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("DSIMP_MAX_STEPS", "many")

	_, err := executeRoot(t, "simplify", natProgram, "(double zero)")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid environment")
}
