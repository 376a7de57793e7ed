// Package queryir provides the pipeline intermediate representation (IR)
// for jk's declarative queries.
//
// A Pipeline is an ordered list of steps applied to a sequence of
// ir.Object items. Pipelines are produced by the CUE compiler and consumed
// by the engine, which runs each step with the generic operations in
// package seq:
//
//	[CUE pipeline] → [queryir.Pipeline] → [engine] → [seq]
//
// SEALED INTERFACES:
//
// Step and Predicate are sealed interfaces using the marker method pattern.
// Only types in this package implement them, so the engine can switch over
// them exhaustively:
//
//	switch s := step.(type) {
//	case Where:
//	    // filter
//	case OrderBy:
//	    // sort
//	default:
//	    // unreachable for valid pipelines
//	}
//
// Both value and pointer forms of each step and predicate are accepted by
// Validate and by the engine.
//
// STEP ORDERING:
//
// Steps run in declaration order. First is terminal: it reduces the
// sequence to at most one item and must be the last step.
package queryir
