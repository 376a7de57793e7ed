package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/queryir"
)

func compileString(t *testing.T, src, path string) (*queryir.Pipeline, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return CompilePipeline(v.LookupPath(cue.ParsePath(path)))
}

func TestCompilePipelineAllSteps(t *testing.T) {
	p, err := compileString(t, `
		pipeline: adults: {
			description: "Adults by name"
			steps: [
				{where: "age >= 18"},
				{order_by: "name", descending: true},
				{distinct: true},
				{skip: 1},
				{take: 10},
				{select: {name: "name", years: "age"}},
				{first: "years > 20"},
			]
		}
	`, "pipeline.adults")
	require.NoError(t, err)

	assert.Equal(t, "adults", p.Name)
	assert.Equal(t, "Adults by name", p.Description)
	assert.Equal(t, []queryir.Step{
		queryir.Where{Filter: queryir.Compare{Field: "age", Op: queryir.OpGreaterEqual, Value: ir.Int(18)}},
		queryir.OrderBy{Field: "name", Descending: true},
		queryir.Distinct{},
		queryir.Skip{N: 1},
		queryir.Take{N: 10},
		queryir.Select{Fields: []queryir.FieldBinding{
			{Source: "name", As: "name"},
			{Source: "age", As: "years"},
		}},
		queryir.First{Filter: queryir.Compare{Field: "years", Op: queryir.OpGreater, Value: ir.Int(20)}},
	}, p.Steps)
}

func TestCompilePipelineQuotedName(t *testing.T) {
	p, err := compileString(t, `
		pipeline: "top-10": steps: [{take: 10}]
	`, `pipeline."top-10"`)
	require.NoError(t, err)
	assert.Equal(t, "top-10", p.Name)
}

func TestCompilePipelineSelectList(t *testing.T) {
	p, err := compileString(t, `
		pipeline: names: steps: [{select: ["name", "city"]}, {first: true}]
	`, "pipeline.names")
	require.NoError(t, err)

	assert.Equal(t, queryir.Select{Fields: []queryir.FieldBinding{
		{Source: "name", As: "name"},
		{Source: "city", As: "city"},
	}}, p.Steps[0])
	assert.Equal(t, queryir.First{}, p.Steps[1])
}

func TestCompilePipelineOrderByDefaultsAscending(t *testing.T) {
	p, err := compileString(t, `pipeline: p: steps: [{order_by: "age"}]`, "pipeline.p")
	require.NoError(t, err)
	assert.Equal(t, queryir.OrderBy{Field: "age"}, p.Steps[0])
}

func TestCompilePipelineErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{"missing steps", `pipeline: p: description: "x"`, "steps", "steps is required"},
		{"empty steps", `pipeline: p: steps: []`, "steps", "at least one step"},
		{"no operation", `pipeline: p: steps: [{descending: true}]`, "step", "step needs one of"},
		{"two operations", `pipeline: p: steps: [{skip: 1, take: 2}]`, "step", `both "skip" and "take"`},
		{"unknown field", `pipeline: p: steps: [{take: 2, limit: 3}]`, "take", `unexpected field "limit"`},
		{"descending without order_by", `pipeline: p: steps: [{take: 2, descending: true}]`, "take", `unexpected field "descending"`},
		{"negative skip", `pipeline: p: steps: [{skip: -1}]`, "skip", "count must be >= 0, got -1"},
		{"bad filter", `pipeline: p: steps: [{where: "age >"}]`, "where", "missing value"},
		{"empty filter", `pipeline: p: steps: [{where: "  "}]`, "where", "filter expression is empty"},
		{"distinct false", `pipeline: p: steps: [{distinct: false}]`, "distinct", "distinct must be true"},
		{"first false", `pipeline: p: steps: [{first: false}]`, "first", "first must be true"},
		{"empty select", `pipeline: p: steps: [{select: {}}]`, "select", "at least one field"},
		{"select scalar", `pipeline: p: steps: [{select: "name"}]`, "select", "struct or a list"},
		{"empty order_by", `pipeline: p: steps: [{order_by: ""}]`, "order_by", "field name is empty"},
		{"first not last", `pipeline: p: steps: [{first: true}, {take: 1}]`, "steps", "first must be the last step"},
		{"step not struct", `pipeline: p: steps: ["take"]`, "step", "step must be a struct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src, "pipeline.p")
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestCompilePipelineTypeError(t *testing.T) {
	_, err := compileString(t, `pipeline: p: steps: [{take: "ten"}]`, "pipeline.p")
	require.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "where", Message: "bad"}
	assert.Equal(t, "where: bad", err.Error())
}
