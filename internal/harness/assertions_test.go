package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/testutil"
)

func TestAssertCount(t *testing.T) {
	people := testutil.People(t)

	assert.NoError(t, assertCount(people, Assertion{Type: AssertCount, Count: intPtr(5)}))

	err := assertCount(people, Assertion{Type: AssertCount, Count: intPtr(2)})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "2 items", ae.Expected)
	assert.Equal(t, "5 items", ae.Actual)
}

func TestAssertContains(t *testing.T) {
	people := testutil.People(t)

	assert.NoError(t, assertContains(people, Assertion{
		Type: AssertContains,
		Item: map[string]any{"name": "Dave", "age": 17},
	}))

	err := assertContains(people, Assertion{
		Type: AssertContains,
		Item: map[string]any{"name": "Dave", "city": "Oslo"},
	})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, `an item matching {"city":"Oslo","name":"Dave"}`, ae.Expected)
}

func TestAssertContainsDottedPath(t *testing.T) {
	items := []ir.Value{ir.Object{"address": ir.Object{"city": ir.String("Oslo")}}}

	assert.NoError(t, assertContains(items, Assertion{
		Type: AssertContains,
		Item: map[string]any{"address.city": "Oslo"},
	}))
}

func TestAssertOrderedBy(t *testing.T) {
	sorted := testutil.MustValues(t, `[{"n": "alice"}, {"n": "Bob"}, {"n": "carol"}]`)

	assert.NoError(t, assertOrderedBy(sorted, Assertion{Type: AssertOrderedBy, Field: "n"}))

	err := assertOrderedBy(sorted, Assertion{Type: AssertOrderedBy, Field: "n", Descending: true})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "items descending by n", ae.Expected)
	assert.Equal(t, "item 1 is out of order", ae.Actual)

	mixed := testutil.MustValues(t, `[{"n": 1}, {"n": "x"}]`)
	err = assertOrderedBy(mixed, Assertion{Type: AssertOrderedBy, Field: "n"})
	require.ErrorAs(t, err, &ae)
	assert.Contains(t, ae.Actual, "MIXED_KEY_KINDS")
}

func TestAssertionErrorListsOutput(t *testing.T) {
	err := &AssertionError{
		Type:     AssertCount,
		Expected: "1 items",
		Actual:   "2 items",
		Output:   []ir.Value{ir.Int(1), ir.String("b")},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: count")
	assert.Contains(t, msg, "  [0] 1\n")
	assert.Contains(t, msg, `  [1] "b"`)
}

func TestEvaluateAssertions(t *testing.T) {
	people := testutil.People(t)

	errs := EvaluateAssertions(people, []Assertion{
		{Type: AssertCount, Count: intPtr(5)},
		{Type: AssertCount, Count: intPtr(1)},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertions[1]")
	assert.Contains(t, errs[1], `assertions[2]: unknown assertion type "bogus"`)

	assert.Empty(t, EvaluateAssertions(people, nil))
}
