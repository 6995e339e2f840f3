package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a simplification scenario: a program, an input
// expression and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is inline CUE source with decls and rules.
	Program string `yaml:"program,omitempty"`

	// ProgramFile is a path to a .cue program, used when Program is empty.
	// Relative paths are resolved against the scenario file's directory.
	ProgramFile string `yaml:"program_file,omitempty"`

	// Input is the expression to simplify, in expr text syntax.
	Input string `yaml:"input"`

	// MaxSteps is the step ceiling. Zero means engine.DefaultMaxSteps.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// VisitInstances descends into instance-implicit arguments instead of
	// canonicalizing them.
	VisitInstances bool `yaml:"visit_instances,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect specifies the expected outcome of a scenario.
type Expect struct {
	// Output is the expected printed result.
	Output string `yaml:"output,omitempty"`

	// Error is the expected engine error code (e.g. "STEPS_EXCEEDED").
	Error string `yaml:"error,omitempty"`

	// Rewrites is the expected sequence of applied rule names.
	// Nil means the trace is not checked.
	Rewrites []string `yaml:"rewrites,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.ProgramFile != "" && !filepath.IsAbs(scenario.ProgramFile) {
		scenario.ProgramFile = filepath.Join(filepath.Dir(path), scenario.ProgramFile)
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes scenario YAML without validating it.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Program == "" && s.ProgramFile == "":
		return fmt.Errorf("one of program or program_file is required")
	case s.Program != "" && s.ProgramFile != "":
		return fmt.Errorf("program and program_file are mutually exclusive")
	case s.ProgramFile != "":
		if _, err := os.Stat(s.ProgramFile); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", s.ProgramFile)
		}
	}

	if s.Input == "" {
		return fmt.Errorf("input is required")
	}

	if s.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative")
	}

	if (s.Expect.Output == "") == (s.Expect.Error == "") {
		return fmt.Errorf("expect: exactly one of output or error is required")
	}

	return nil
}
