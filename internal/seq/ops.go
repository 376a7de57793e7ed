package seq

import "slices"

// All reports whether every item satisfies pred.
// An empty sequence satisfies any predicate.
func All[T any](items []T, pred func(T) bool) bool {
	for _, item := range items {
		if !pred(item) {
			return false
		}
	}
	return true
}

// Any reports whether some item satisfies preds[0].
// Without a predicate it reports whether items is non-empty.
func Any[T any](items []T, preds ...func(T) bool) bool {
	if len(preds) == 0 || preds[0] == nil {
		return len(items) > 0
	}
	pred := preds[0]
	for _, item := range items {
		if pred(item) {
			return true
		}
	}
	return false
}

// Copy returns a new slice holding the same items in the same order.
// The result never shares a backing array with items.
func Copy[T any](items []T) []T {
	if items == nil {
		return nil
	}
	return slices.Clone(items)
}

// First returns the first item satisfying preds[0], or the first item when
// no predicate is given. The boolean is false when nothing matches.
func First[T any](items []T, preds ...func(T) bool) (T, bool) {
	var zero T
	if len(preds) == 0 || preds[0] == nil {
		if len(items) == 0 {
			return zero, false
		}
		return items[0], true
	}
	pred := preds[0]
	for _, item := range items {
		if pred(item) {
			return item, true
		}
	}
	return zero, false
}

// Skip returns the items from index n onward.
// n past the end yields an empty slice; n < 0 is an error.
func Skip[T any](items []T, n int) ([]T, error) {
	if n < 0 {
		return nil, negativeCount("skip", n)
	}
	if n >= len(items) {
		return []T{}, nil
	}
	return slices.Clone(items[n:]), nil
}

// Take returns the first n items, or all of them when n exceeds the length.
// n < 0 is an error.
func Take[T any](items []T, n int) ([]T, error) {
	if n < 0 {
		return nil, negativeCount("take", n)
	}
	if n > len(items) {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out, nil
}

// Where returns the items satisfying pred, in their original order.
func Where[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Reverse returns a new slice with the items in reverse order.
func Reverse[T any](items []T) []T {
	out := Copy(items)
	slices.Reverse(out)
	return out
}
