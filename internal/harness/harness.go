package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/jk/internal/compiler"
	"github.com/roach88/jk/internal/engine"
	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/queryir"
	"github.com/roach88/jk/internal/seq"
	"github.com/roach88/jk/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Compile the CUE specs and pick the named pipeline
// 2. Load the input items
// 3. Execute the pipeline with a fixed run ID and a fresh clock
// 4. Compare output or error code, then evaluate assertions
//
// A pipeline failure is a scenario outcome, not a harness error: it fails
// the result unless expect_error names its code. Run returns an error only
// when the scenario cannot be set up.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	pipeline, err := loadPipeline(scenario.Specs, scenario.Pipeline)
	if err != nil {
		return nil, err
	}

	items, err := loadInput(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}

	eng := engine.New(
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(scenario.RunID)),
	)

	result := NewResult()
	res, execErr := eng.Execute(ctx, *pipeline, items)
	if execErr != nil {
		result.ErrorCode = ErrorCode(execErr)
		checkError(scenario, execErr, result)
		return result, nil
	}

	result.RunID = res.RunID
	result.Output = res.Items
	result.Columns = res.Columns
	result.Steps = res.Trace

	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected error %s, pipeline returned %d items",
			scenario.ExpectError, len(res.Items)))
		return result, nil
	}

	if scenario.Expect != nil {
		checkOutput(scenario.Expect, res.Items, result)
	}

	for _, errMsg := range EvaluateAssertions(res.Items, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// ErrorCode extracts the most specific code from a pipeline error.
func ErrorCode(err error) string {
	if code := seq.CodeOf(err); code != "" {
		return string(code)
	}
	var rtErr *engine.RuntimeError
	if errors.As(err, &rtErr) {
		return string(rtErr.Code)
	}
	return ""
}

// checkError compares a pipeline failure with the scenario's expect_error.
// Either the sequence code or the engine code may be named.
func checkError(scenario *Scenario, err error, result *Result) {
	if scenario.ExpectError == "" {
		result.AddError(fmt.Sprintf("pipeline failed: %v", err))
		return
	}

	var rtErr *engine.RuntimeError
	if errors.As(err, &rtErr) && string(rtErr.Code) == scenario.ExpectError {
		return
	}
	if result.ErrorCode != scenario.ExpectError {
		result.AddError(fmt.Sprintf("expected error %s, got %s: %v",
			scenario.ExpectError, result.ErrorCode, err))
	}
}

// checkOutput compares the output canonically with the expected list.
func checkOutput(expect []any, output []ir.Value, result *Result) {
	want, err := ir.MarshalCanonical(expect)
	if err != nil {
		result.AddError(fmt.Sprintf("invalid expect: %v", err))
		return
	}
	got, err := ir.MarshalCanonical(ir.Array(output))
	if err != nil {
		result.AddError(fmt.Sprintf("output cannot be serialized: %v", err))
		return
	}
	if string(want) != string(got) {
		result.AddError(fmt.Sprintf("output mismatch:\n  expected: %s\n  actual:   %s", want, got))
	}
}

// loadPipeline compiles every spec file and returns the named pipeline.
func loadPipeline(specs []string, name string) (*queryir.Pipeline, error) {
	var all []queryir.Pipeline
	for _, path := range specs {
		pipelines, errs := compiler.CompileFile(path)
		if len(errs) > 0 {
			return nil, fmt.Errorf("failed to compile %s: %w", path, errors.Join(errs...))
		}
		all = append(all, pipelines...)
	}

	byName, names := compiler.Index(all)
	p, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("pipeline %q not found in specs (have: %s)", name, strings.Join(names, ", "))
	}
	return &p, nil
}

// loadInput returns the inline input or decodes the input file.
// Files ending in .json are read as JSON; anything else as YAML.
func loadInput(s *Scenario) ([]ir.Value, error) {
	if s.InputFile == "" {
		return ir.FromGoSlice(s.Input)
	}

	data, err := os.ReadFile(s.InputFile)
	if err != nil {
		return nil, err
	}
	return DecodeItems(data, filepath.Ext(s.InputFile))
}

// DecodeItems decodes a JSON or YAML list of items. ext selects the
// format: ".json" for JSON, anything else for YAML.
func DecodeItems(data []byte, ext string) ([]ir.Value, error) {
	if strings.EqualFold(ext, ".json") {
		return ir.UnmarshalArray(data)
	}

	var raw []any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return ir.FromGoSlice(raw)
}
