package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jk/internal/queryir"
	"github.com/roach88/jk/internal/testutil"
)

func TestCheckQuota(t *testing.T) {
	e := New(WithMaxItems(3))

	assert.NoError(t, e.checkQuota("p", 0, "take", 3))

	err := e.checkQuota("p", 1, "select", 4)
	require.Error(t, err)
	assert.True(t, IsQuotaError(err))
	assert.Equal(t, "QUOTA_EXCEEDED: item count exceeds limit (4 > 3) (pipeline=p, step=1 select)", err.Error())
}

func TestCheckQuota_ZeroDisables(t *testing.T) {
	e := New(WithMaxItems(0))
	assert.NoError(t, e.checkQuota("p", 0, "where", 1<<30))
}

func TestCheckQuota_Default(t *testing.T) {
	e := New()
	assert.Equal(t, DefaultMaxItems, e.maxItems)
	assert.NoError(t, e.checkQuota("p", 0, "where", DefaultMaxItems))
	assert.Error(t, e.checkQuota("p", 0, "where", DefaultMaxItems+1))
}

func TestQuota_CountsInputBeforeSteps(t *testing.T) {
	e, _ := newTestEngine(t, WithMaxItems(3))

	_, err := e.Execute(context.Background(), queryir.Pipeline{
		Name:  "q",
		Steps: []queryir.Step{queryir.Take{N: 3}, queryir.Distinct{}},
	}, testutil.MustValues(t, `[1,2,3]`))
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), queryir.Pipeline{
		Name:  "q",
		Steps: []queryir.Step{queryir.Take{N: 2}},
	}, testutil.MustValues(t, `[1,2,3,4]`))
	require.Error(t, err)

	rtErr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeQuotaExceeded, rtErr.Code)
	assert.Equal(t, -1, rtErr.Step)
}
