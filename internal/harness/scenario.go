package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a pipeline conformance scenario.
// A scenario runs one compiled pipeline over a fixed input and checks the
// output, the error code, or a set of assertions.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs lists CUE files declaring pipelines.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs"`

	// Pipeline names the pipeline to run.
	Pipeline string `yaml:"pipeline"`

	// Input is an inline list of items.
	Input []any `yaml:"input,omitempty"`

	// InputFile is a JSON or YAML file holding the input list.
	// Mutually exclusive with Input.
	InputFile string `yaml:"input_file,omitempty"`

	// Expect is the exact expected output, compared canonically.
	Expect []any `yaml:"expect,omitempty"`

	// ExpectError is the expected error code. Sequence codes
	// (NEGATIVE_COUNT, MIXED_KEY_KINDS, ...) take precedence over the
	// engine's own codes (STEP_FAILED, INVALID_PIPELINE, ...).
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate properties of the output.
	// Supported types: count, contains, ordered_by
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run ID.
	// If empty, defaults to "test-run-default" for deterministic golden file comparison.
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates a property of the pipeline output.
type Assertion struct {
	// Type specifies the assertion type:
	// - "count": Check the number of output items
	// - "contains": Check some output item has the given fields
	// - "ordered_by": Check the output is sorted by a field
	Type string `yaml:"type"`

	// Count is the expected number of items (used by count).
	Count *int `yaml:"count,omitempty"`

	// Item holds the expected fields (used by contains).
	// Subset match - only specified fields are validated.
	Item map[string]any `yaml:"item,omitempty"`

	// Field is the sort key path (used by ordered_by).
	Field string `yaml:"field,omitempty"`

	// Descending flips the expected order (used by ordered_by).
	Descending bool `yaml:"descending,omitempty"`
}

// Assertion type constants.
const (
	AssertCount     = "count"
	AssertContains  = "contains"
	AssertOrderedBy = "ordered_by"
)

// LoadScenario reads and parses a scenario YAML file.
// Relative spec and input paths resolve against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec and input paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve paths BEFORE validation so existence checks see real files
	for i, specPath := range scenario.Specs {
		scenario.Specs[i] = resolvePath(basePath, specPath)
	}
	if scenario.InputFile != "" {
		scenario.InputFile = resolvePath(basePath, scenario.InputFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) || basePath == "" {
		return p
	}
	return filepath.Join(basePath, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	if s.Pipeline == "" {
		return fmt.Errorf("pipeline is required")
	}

	switch {
	case s.Input != nil && s.InputFile != "":
		return fmt.Errorf("input and input_file are mutually exclusive")
	case s.Input == nil && s.InputFile == "":
		return fmt.Errorf("input or input_file is required (use an empty list for no items)")
	}

	if s.Expect != nil && s.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}
	if s.ExpectError != "" && len(s.Assertions) > 0 {
		return fmt.Errorf("assertions cannot be combined with expect_error")
	}
	if s.Expect == nil && s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("one of expect, expect_error or assertions is required")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}
	if s.InputFile != "" {
		if _, err := os.Stat(s.InputFile); os.IsNotExist(err) {
			return fmt.Errorf("input file not found: %s", s.InputFile)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCount:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertContains:
		if len(a.Item) == 0 {
			return fmt.Errorf("assertions[%d]: item is required for contains", index)
		}
	case AssertOrderedBy:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for ordered_by", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
