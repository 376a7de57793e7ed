package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/jk/internal/engine"
	"github.com/roach88/jk/internal/ir"
)

// OutputSnapshot captures the observable outcome of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type OutputSnapshot struct {
	ScenarioName string             `json:"scenario_name"`
	RunID        string             `json:"run_id,omitempty"`
	Columns      []string           `json:"columns,omitempty"`
	Output       []ir.Value         `json:"output"`
	Steps        []engine.StepTrace `json:"steps,omitempty"`
	ErrorCode    string             `json:"error_code,omitempty"`
}

// toCanonicalMap converts an OutputSnapshot to a map[string]any for canonical JSON serialization.
// Output is always present (an empty list when the pipeline failed).
func (s *OutputSnapshot) toCanonicalMap() map[string]any {
	output := ir.Array(s.Output)
	if output == nil {
		output = ir.Array{}
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"output":        output,
	}
	if s.RunID != "" {
		result["run_id"] = s.RunID
	}
	if len(s.Columns) > 0 {
		columns := make([]any, len(s.Columns))
		for i, c := range s.Columns {
			columns[i] = c
		}
		result["columns"] = columns
	}
	if len(s.Steps) > 0 {
		steps := make([]any, len(s.Steps))
		for i, st := range s.Steps {
			steps[i] = map[string]any{
				"seq":   st.Seq,
				"index": st.Index,
				"op":    st.Op,
				"in":    st.In,
				"out":   st.Out,
			}
		}
		result["steps"] = steps
	}
	if s.ErrorCode != "" {
		result["error_code"] = s.ErrorCode
	}
	return result
}

func snapshotOf(name string, result *Result) OutputSnapshot {
	return OutputSnapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		Columns:      result.Columns,
		Output:       result.Output,
		Steps:        result.Steps,
		ErrorCode:    result.ErrorCode,
	}
}

// SnapshotBytes returns the golden file content for a result: canonical
// JSON followed by a newline.
func SnapshotBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := snapshotOf(scenarioName, result)
	data, err := ir.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares the outcome against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails. The returned Result carries
// Pass and Errors so callers can also check expectations.
// Test failure (via goldie) occurs if the outcome doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotBytes(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
