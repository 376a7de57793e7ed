package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/seq"
)

// AssertionError is returned when an assertion fails.
// It includes the output to help debug the failure.
type AssertionError struct {
	Type     string     // Assertion type for categorization
	Expected string     // Human-readable expected outcome
	Actual   string     // Human-readable actual outcome
	Output   []ir.Value // Full output for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull output:\n")
	for i, item := range e.Output {
		data, err := ir.MarshalCanonical(item)
		if err != nil {
			fmt.Fprintf(&buf, "  [%d] <%v>\n", i, err)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s\n", i, data)
	}

	return buf.String()
}

// assertCount checks the number of output items.
func assertCount(output []ir.Value, assertion Assertion) error {
	if assertion.Count == nil {
		return fmt.Errorf("count assertion requires count")
	}
	if len(output) != *assertion.Count {
		return &AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d items", *assertion.Count),
			Actual:   fmt.Sprintf("%d items", len(output)),
			Output:   output,
		}
	}
	return nil
}

// assertContains checks that some output item has every field of
// assertion.Item (subset match). Field names may be dotted paths.
func assertContains(output []ir.Value, assertion Assertion) error {
	expected, err := ir.FromGo(assertion.Item)
	if err != nil {
		return fmt.Errorf("contains assertion: invalid item: %w", err)
	}
	want := expected.(ir.Object)

	for _, item := range output {
		if matchFields(item, want) {
			return nil
		}
	}

	desc, _ := ir.MarshalCanonical(want)
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("an item matching %s", desc),
		Actual:   "not found in output",
		Output:   output,
	}
}

// matchFields checks if item has all expected fields (subset match).
// Extra fields in item are ignored.
func matchFields(item ir.Value, expected ir.Object) bool {
	obj, ok := item.(ir.Object)
	if !ok {
		return false
	}
	for path, want := range expected {
		got, ok := obj.Lookup(path)
		if !ok || !ir.Equal(got, want) {
			return false
		}
	}
	return true
}

// assertOrderedBy checks that adjacent items are ordered by a field,
// using the same comparison as orderBy.
func assertOrderedBy(output []ir.Value, assertion Assertion) error {
	key := seq.Field(assertion.Field)
	direction := "ascending"
	if assertion.Descending {
		direction = "descending"
	}

	for i := 1; i < len(output); i++ {
		c, err := seq.CompareKeys(key(output[i-1]), key(output[i]))
		if err != nil {
			return &AssertionError{
				Type:     AssertOrderedBy,
				Expected: fmt.Sprintf("comparable %s keys", assertion.Field),
				Actual:   fmt.Sprintf("items %d and %d: %v", i-1, i, err),
				Output:   output,
			}
		}
		if assertion.Descending {
			c = -c
		}
		if c > 0 {
			return &AssertionError{
				Type:     AssertOrderedBy,
				Expected: fmt.Sprintf("items %s by %s", direction, assertion.Field),
				Actual:   fmt.Sprintf("item %d is out of order", i),
				Output:   output,
			}
		}
	}
	return nil
}

// EvaluateAssertions runs all assertions against the output.
// Returns one message per failed assertion, in declaration order.
func EvaluateAssertions(output []ir.Value, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error
		switch assertion.Type {
		case AssertCount:
			err = assertCount(output, assertion)
		case AssertContains:
			err = assertContains(output, assertion)
		case AssertOrderedBy:
			err = assertOrderedBy(output, assertion)
		default:
			err = fmt.Errorf("unknown assertion type %q", assertion.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	return errs
}
