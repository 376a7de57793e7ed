package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/queryir"
	"github.com/roach88/jk/internal/seq"
	"github.com/roach88/jk/internal/testutil"
)

func newTestEngine(t *testing.T, opts ...EngineOption) (*Engine, *testutil.LogRecorder) {
	t.Helper()
	logger, rec := testutil.NewLogger()
	base := []EngineOption{
		WithLogger(logger),
		WithRunIDGenerator(testutil.NewFixedRunIDGenerator("run-1")),
	}
	return New(append(base, opts...)...), rec
}

func TestExecute_FullPipeline(t *testing.T) {
	e, _ := newTestEngine(t)
	items := testutil.People(t)

	p := queryir.Pipeline{
		Name: "adults",
		Steps: []queryir.Step{
			queryir.Where{Filter: MustParseFilter("age >= 18")},
			queryir.Distinct{},
			queryir.OrderBy{Field: "name"},
			queryir.Select{Fields: []queryir.FieldBinding{
				{Source: "name", As: "name"},
				{Source: "age", As: "years"},
			}},
		},
	}

	res, err := e.Execute(context.Background(), p, items)
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "adults", res.Pipeline)
	assert.Equal(t, []string{"name", "years"}, res.Columns)
	assert.Equal(t, []ir.Value{
		ir.Object{"name": ir.String("alice"), "years": ir.Int(34)},
		ir.Object{"name": ir.String("carol"), "years": ir.Int(52)},
	}, res.Items)

	require.Len(t, res.Trace, 4)
	assert.Equal(t, StepTrace{Seq: 1, Index: 0, Op: "where", In: 5, Out: 3}, res.Trace[0])
	assert.Equal(t, StepTrace{Seq: 2, Index: 1, Op: "distinct", In: 3, Out: 2}, res.Trace[1])
	assert.Equal(t, "orderBy", res.Trace[2].Op)
	assert.Equal(t, "select", res.Trace[3].Op)
}

func TestExecute_DoesNotMutateInput(t *testing.T) {
	e, _ := newTestEngine(t)
	items := testutil.People(t)
	before := testutil.Names(items)

	_, err := e.Execute(context.Background(), queryir.Pipeline{
		Name:  "sort",
		Steps: []queryir.Step{queryir.OrderBy{Field: "name", Descending: true}},
	}, items)
	require.NoError(t, err)

	assert.Equal(t, before, testutil.Names(items))
}

func TestExecute_OrderByDescending(t *testing.T) {
	e, _ := newTestEngine(t)
	items := testutil.MustValues(t, `[{"v":3},{"v":1},{"v":2}]`)

	res, err := e.Execute(context.Background(), queryir.Pipeline{
		Steps: []queryir.Step{queryir.OrderBy{Field: "v", Descending: true}},
	}, items)
	require.NoError(t, err)
	assert.Equal(t, testutil.MustValues(t, `[{"v":3},{"v":2},{"v":1}]`), res.Items)
}

func TestExecute_SkipTakeFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	items := testutil.MustValues(t, `[{"n":1},{"n":2},{"n":3},{"n":4},{"n":5}]`)

	res, err := e.Execute(context.Background(), queryir.Pipeline{
		Steps: []queryir.Step{
			queryir.Skip{N: 1},
			queryir.Take{N: 3},
			queryir.First{Filter: MustParseFilter("n > 2")},
		},
	}, items)
	require.NoError(t, err)
	assert.Equal(t, testutil.MustValues(t, `[{"n":3}]`), res.Items)
}

func TestExecute_FirstWithoutMatchIsEmpty(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Execute(context.Background(), queryir.Pipeline{
		Steps: []queryir.Step{queryir.First{Filter: MustParseFilter("n > 10")}},
	}, testutil.MustValues(t, `[{"n":1}]`))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
}

func TestExecute_SelectMissingFieldIsNull(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Execute(context.Background(), queryir.Pipeline{
		Steps: []queryir.Step{queryir.Select{Fields: []queryir.FieldBinding{
			{Source: "a", As: "a"},
			{Source: "b.c", As: "c"},
		}}},
	}, testutil.MustValues(t, `[{"a":1},{"a":2,"b":{"c":"x"}}]`))
	require.NoError(t, err)

	assert.Equal(t, []ir.Value{
		ir.Object{"a": ir.Int(1), "c": ir.Null{}},
		ir.Object{"a": ir.Int(2), "c": ir.String("x")},
	}, res.Items)
	assert.Equal(t, []string{"a", "c"}, res.Columns)
}

func TestExecute_NoSteps(t *testing.T) {
	e, _ := newTestEngine(t)
	items := testutil.MustValues(t, `[1,2]`)

	res, err := e.Execute(context.Background(), queryir.Pipeline{Name: "noop"}, items)
	require.NoError(t, err)
	assert.Equal(t, items, res.Items)
	assert.Empty(t, res.Trace)
	assert.Nil(t, res.Columns)
}

func TestExecute_InvalidPipeline(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), queryir.Pipeline{
		Name:  "bad",
		Steps: []queryir.Step{queryir.Skip{N: -1}},
	}, nil)

	require.Error(t, err)
	assert.True(t, IsInvalidPipeline(err))
	assert.Contains(t, err.Error(), "count must be >= 0")
	assert.Contains(t, err.Error(), "pipeline=bad")
}

func TestExecute_StepFailureKeepsOperationCode(t *testing.T) {
	e, rec := newTestEngine(t)

	_, err := e.Execute(context.Background(), queryir.Pipeline{
		Name:  "mixed",
		Steps: []queryir.Step{queryir.Take{N: 5}, queryir.OrderBy{Field: "v"}},
	}, testutil.MustValues(t, `[{"v":1},{"v":"one"}]`))

	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeStepFailed, re.Code)
	assert.Equal(t, 1, re.Step)
	assert.Equal(t, "orderBy", re.Op)
	assert.Equal(t, seq.ErrCodeMixedKeyKinds, seq.CodeOf(err))
	assert.Contains(t, err.Error(), "(pipeline=mixed, step=1 orderBy)")

	failed := rec.Find("step failed")
	require.Len(t, failed, 1)
	assert.Equal(t, "mixed", failed[0].Attrs["pipeline"])
	assert.Equal(t, "run-1", failed[0].Attrs["run_id"])
}

func TestExecute_Cancelled(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, queryir.Pipeline{
		Steps: []queryir.Step{queryir.Distinct{}},
	}, testutil.MustValues(t, `[1]`))

	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_Quota(t *testing.T) {
	e, _ := newTestEngine(t, WithMaxItems(2))

	_, err := e.Execute(context.Background(), queryir.Pipeline{}, testutil.MustValues(t, `[1,2,3]`))
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Contains(t, err.Error(), "3 > 2")

	_, err = e.Execute(context.Background(), queryir.Pipeline{
		Steps: []queryir.Step{queryir.Take{N: 2}},
	}, testutil.MustValues(t, `[1,2]`))
	assert.NoError(t, err)
}

func TestExecute_LogsRun(t *testing.T) {
	e, rec := newTestEngine(t)

	_, err := e.Execute(context.Background(), queryir.Pipeline{
		Name: "logged",
		Steps: []queryir.Step{
			queryir.Select{Fields: []queryir.FieldBinding{{Source: "a", As: "x"}}},
			queryir.OrderBy{Field: "a"},
		},
	}, testutil.MustValues(t, `[{"a":1}]`))
	require.NoError(t, err)

	assert.Len(t, rec.Find("pipeline warning"), 1)
	assert.Len(t, rec.Find("step executed"), 2)

	done := rec.Find("pipeline executed")
	require.Len(t, done, 1)
	assert.Equal(t, int64(1), done[0].Attrs["items_out"])
}

func TestExecute_SeqAcrossRuns(t *testing.T) {
	e, _ := newTestEngine(t, WithClock(NewClockAt(10)))
	p := queryir.Pipeline{Steps: []queryir.Step{queryir.Distinct{}}}

	first, err := e.Execute(context.Background(), p, nil)
	require.NoError(t, err)
	second, err := e.Execute(context.Background(), p, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(11), first.Trace[0].Seq)
	assert.Equal(t, int64(12), second.Trace[0].Seq)
}
