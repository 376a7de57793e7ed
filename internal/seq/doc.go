// Package seq implements jk's sequence query operations.
//
// Every operation is a pure function over a Go slice: the input is never
// modified and a new slice is returned. The set is deliberately small:
//
//	All, Any, Copy, Distinct, First, OrderBy, OrderByKind,
//	OrderByDescending, Select, Skip, Take, Where, Reverse
//
// # Chaining
//
// Operations are free functions rather than methods grafted onto shared
// types. For call sites that read better as a chain, From wraps a slice in
// an explicit Query:
//
//	names, err := seq.From(people).
//		Where(isAdult).
//		OrderBy(seq.Field("name")).
//		Take(10).
//		Slice()
//
// A Query records the first error it meets and skips every later step.
//
// # Ordering
//
// OrderBy picks one ComparisonKind for the whole call, inferred from the key
// of the first item (or supplied with OrderByKind), then applies a single
// comparator:
//
//	KindBoolean  true sorts before false
//	KindNumber   numeric by exact value; int and float keys mix
//	KindString   upper-cased, then UTF-16 code unit order
//
// A key of another kind is a QueryError with code MIXED_KEY_KINDS. Sorting
// is stable, and OrderByDescending is the exact reverse of OrderBy.
//
// # Equality
//
// Distinct compares items by the fingerprint of their canonical
// serialization (see package ir), so two distinct values with the same
// shape and contents are duplicates.
//
// # Failures
//
// Predicates, key selectors and projections are caller code. If one panics,
// the panic reaches the caller untouched.
package seq
