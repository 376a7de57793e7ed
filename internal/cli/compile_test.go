package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCommand_Text(t *testing.T) {
	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), testSpecsDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 6 pipeline(s)")
	assert.Contains(t, out, "adults: where → orderBy → distinct → select")
	assert.Contains(t, out, "oldest_two: orderByDescending → take")
	assert.Contains(t, out, "page: skip → take")
}

func TestCompileCommand_JSON(t *testing.T) {
	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), testSpecsDir)
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Pipelines, 6)

	first := resp.Data.Pipelines[0]
	assert.Equal(t, "adults", first.Name)
	assert.Equal(t, "Adults by name, one row per person", first.Description)
	assert.Equal(t, []string{"where", "orderBy", "distinct", "select"}, first.Steps)
}

func TestCompileCommand_OutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.json")

	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), testSpecsDir, "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "written to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var written CompilationResult
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Len(t, written.Pipelines, 6)
}

func TestCompileCommand_OutputFileUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "pipelines.json")

	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), testSpecsDir, "-o", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeWriteFailed+"]")
}

func TestCompileCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", invalidSpecs)

	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "compilation failed with 3 error(s)")
	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "pipeline.two_ops")
}

func TestCompileCommand_ErrorsJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", invalidSpecs)

	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)

	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string            `json:"code"`
			Details []ValidationIssue `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeInvalidFilter, resp.Error.Code)
	assert.Len(t, resp.Error.Details, 3)
}

func TestCompileCommand_NotFound(t *testing.T) {
	out, _, err := execute(t, NewCompileCommand(&RootOptions{Format: "text"}), "/nonexistent/specs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error ["+ErrCodeNotFound+"]")
}
