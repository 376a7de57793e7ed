package seq

// Query is an explicit, chainable view over a slice. Each step returns a new
// Query; the wrapped slice is never modified. The first error is kept and
// every later step becomes a no-op.
type Query[T any] struct {
	items []T
	err   error
}

// From wraps items in a Query. The slice is not copied until a step needs a
// new one.
func From[T any](items []T) *Query[T] {
	return &Query[T]{items: items}
}

func (q *Query[T]) next(items []T, err error) *Query[T] {
	if err != nil {
		return &Query[T]{err: err}
	}
	return &Query[T]{items: items}
}

// Where keeps the items satisfying pred.
func (q *Query[T]) Where(pred func(T) bool) *Query[T] {
	if q.err != nil {
		return q
	}
	return q.next(Where(q.items, pred), nil)
}

// Skip drops the first n items.
func (q *Query[T]) Skip(n int) *Query[T] {
	if q.err != nil {
		return q
	}
	return q.next(Skip(q.items, n))
}

// Take keeps the first n items.
func (q *Query[T]) Take(n int) *Query[T] {
	if q.err != nil {
		return q
	}
	return q.next(Take(q.items, n))
}

// Distinct removes structural duplicates.
func (q *Query[T]) Distinct() *Query[T] {
	if q.err != nil {
		return q
	}
	return q.next(Distinct(q.items))
}

// OrderBy sorts ascending by key.
func (q *Query[T]) OrderBy(key KeyFunc[T]) *Query[T] {
	if q.err != nil {
		return q
	}
	return q.next(OrderBy(q.items, key))
}

// OrderByKind sorts ascending by key using the given comparison kind.
func (q *Query[T]) OrderByKind(kind ComparisonKind, key KeyFunc[T]) *Query[T] {
	if q.err != nil {
		return q
	}
	return q.next(OrderByKind(q.items, kind, key))
}

// OrderByDescending sorts descending by key.
func (q *Query[T]) OrderByDescending(key KeyFunc[T]) *Query[T] {
	if q.err != nil {
		return q
	}
	return q.next(OrderByDescending(q.items, key))
}

// Copy detaches the query from the backing array of its input.
func (q *Query[T]) Copy() *Query[T] {
	if q.err != nil {
		return q
	}
	return q.next(Copy(q.items), nil)
}

// All reports whether every item satisfies pred. False after an error.
func (q *Query[T]) All(pred func(T) bool) bool {
	return q.err == nil && All(q.items, pred)
}

// Any reports whether some item satisfies preds[0], or whether the query
// is non-empty. False after an error.
func (q *Query[T]) Any(preds ...func(T) bool) bool {
	return q.err == nil && Any(q.items, preds...)
}

// First returns the first match. The boolean is false after an error.
func (q *Query[T]) First(preds ...func(T) bool) (T, bool) {
	if q.err != nil {
		var zero T
		return zero, false
	}
	return First(q.items, preds...)
}

// Count returns the number of items, or 0 after an error.
func (q *Query[T]) Count() int {
	if q.err != nil {
		return 0
	}
	return len(q.items)
}

// Slice returns the items and the first error met by the chain.
func (q *Query[T]) Slice() ([]T, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.items, nil
}

// Err returns the first error met by the chain.
func (q *Query[T]) Err() error {
	return q.err
}

// SelectFrom projects the items of a query. It returns the chain's error,
// if any, instead of records.
func SelectFrom[T any](q *Query[T], projections ...Projection[T]) ([]Record, error) {
	items, err := q.Slice()
	if err != nil {
		return nil, err
	}
	return Select(items, projections...), nil
}
