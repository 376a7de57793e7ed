package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jk/internal/ir"
)

func intPtr(n int) *int { return &n }

func TestRun_InlineInput(t *testing.T) {
	spec := createTestSpec(t, t.TempDir())

	result, err := Run(&Scenario{
		Name:     "inline",
		Specs:    []string{spec},
		Pipeline: "adults",
		Input: []any{
			map[string]any{"name": "carol", "age": 52},
			map[string]any{"name": "Bob", "age": 17},
			map[string]any{"name": "alice", "age": 34},
		},
		Expect: []any{
			map[string]any{"name": "alice", "age": 34},
			map[string]any{"name": "carol", "age": 52},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "test-run-default", result.RunID)
	assert.Len(t, result.Output, 2)
	require.Len(t, result.Steps, 2)
	assert.Equal(t, "where", result.Steps[0].Op)
	assert.Equal(t, "orderBy", result.Steps[1].Op)
}

func TestRun_OutputMismatch(t *testing.T) {
	spec := createTestSpec(t, t.TempDir())

	result, err := Run(&Scenario{
		Name:     "mismatch",
		Specs:    []string{spec},
		Pipeline: "page",
		Input:    []any{1, 2, 3},
		Expect:   []any{2},
	})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "output mismatch")
	assert.Contains(t, result.Errors[0], "expected: [2]")
	assert.Contains(t, result.Errors[0], "actual:   [2,3]")
}

func TestRun_FixedRunID(t *testing.T) {
	spec := createTestSpec(t, t.TempDir())

	result, err := Run(&Scenario{
		Name:       "run_id",
		Specs:      []string{spec},
		Pipeline:   "page",
		Input:      []any{},
		RunID:      "run-42",
		Assertions: []Assertion{{Type: AssertCount, Count: intPtr(0)}},
	})
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.Equal(t, "run-42", result.RunID)
}

func TestRun_ExpectedError(t *testing.T) {
	spec := createTestSpec(t, t.TempDir())
	input := []any{map[string]any{"v": 1}, map[string]any{"v": "two"}}

	tests := []struct {
		name     string
		expected string
		pass     bool
	}{
		{"sequence code", "MIXED_KEY_KINDS", true},
		{"engine code", "STEP_FAILED", true},
		{"wrong code", "NEGATIVE_COUNT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Run(&Scenario{
				Name:        "err",
				Specs:       []string{spec},
				Pipeline:    "by_v",
				Input:       input,
				ExpectError: tt.expected,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.pass, result.Pass, "errors: %v", result.Errors)
			assert.Equal(t, "MIXED_KEY_KINDS", result.ErrorCode)
			assert.Nil(t, result.Output)
		})
	}
}

func TestRun_UnexpectedFailure(t *testing.T) {
	spec := createTestSpec(t, t.TempDir())

	result, err := Run(&Scenario{
		Name:     "fails",
		Specs:    []string{spec},
		Pipeline: "by_v",
		Input:    []any{map[string]any{"v": []any{}}, map[string]any{"v": 1}},
		Expect:   []any{},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, "UNSUPPORTED_KEY_KIND", result.ErrorCode)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "pipeline failed")
}

func TestRun_ErrorExpectedButSucceeded(t *testing.T) {
	spec := createTestSpec(t, t.TempDir())

	result, err := Run(&Scenario{
		Name:        "no_error",
		Specs:       []string{spec},
		Pipeline:    "page",
		Input:       []any{1, 2, 3},
		ExpectError: "NEGATIVE_COUNT",
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error NEGATIVE_COUNT, pipeline returned 2 items")
}

func TestRun_PipelineNotFound(t *testing.T) {
	spec := createTestSpec(t, t.TempDir())

	_, err := Run(&Scenario{Name: "x", Specs: []string{spec}, Pipeline: "nope", Input: []any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `pipeline "nope" not found`)
	assert.Contains(t, err.Error(), "adults, by_v, page")
}

func TestRun_CompileFailure(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, writeFileBytes(bad, "package pipelines\n\npipeline: bad: steps: [{skip: -1}]\n"))

	_, err := Run(&Scenario{Name: "x", Specs: []string{bad}, Pipeline: "bad", Input: []any{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile")
	assert.Contains(t, err.Error(), "count must be >= 0")
}

func TestDecodeItems(t *testing.T) {
	fromJSON, err := DecodeItems([]byte(`[{"a": 1}, "x"]`), ".JSON")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.Object{"a": ir.Int(1)}, ir.String("x")}, fromJSON)

	fromYAML, err := DecodeItems([]byte("- {a: 1}\n- x\n- 2.5\n"), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, []ir.Value{ir.Object{"a": ir.Int(1)}, ir.String("x"), ir.Float(2.5)}, fromYAML)

	_, err = DecodeItems([]byte(`{"a": 1}`), ".json")
	assert.Error(t, err)

	_, err = DecodeItems([]byte("a: [unclosed"), ".yml")
	assert.Error(t, err)
}
