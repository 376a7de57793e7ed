// Package engine runs jk pipelines.
//
// The engine takes a queryir.Pipeline and a sequence of ir.Value items and
// applies each step in declaration order using the generic operations in
// package seq. It also owns the filter-expression language used by where
// and first steps:
//
//	age >= 18 AND city == 'Oslo'
//	status != "archived" or exists(owner.email)
//
// Comparisons are `field OP literal` with OP one of == (or =), !=, <, <=,
// >, >=. Literals are quoted strings, integers, floats, true, false and
// null. AND binds tighter than OR; both keywords are case-insensitive.
//
// EXECUTION MODEL:
//
// Execute is synchronous and single-threaded. Steps never mutate their
// input, so the caller's slice is untouched. Context cancellation is
// checked between steps. Every run gets a UUIDv7 run ID for log
// correlation, and every executed step is stamped with a monotonic
// sequence number from the engine's Clock.
package engine
