package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a successful run with the given rewrites.
func createTestRun(programID, input, output string, rewrites ...Rewrite) Run {
	return Run{
		ProgramID: programID,
		Input:     input,
		InputID:   "id-" + input,
		Output:    output,
		Status:    StatusOK,
		MaxSteps:  100,
		Steps:     7,
		Rewrites:  rewrites,
	}
}
