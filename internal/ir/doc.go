// Package ir provides the dynamic value model shared by jk's query layers.
//
// Datasets decoded from JSON or YAML, pipeline literals and projected records
// are all expressed as Value. The package also owns the canonical
// serialization used for structural equality (distinct, assertions, golden
// files). ir imports nothing internal.
//
// Key design constraints:
//   - Value is sealed: Null, String, Int, Float, Bool, Array, Object only
//   - Integral floats serialize like integers, so 1 and 1.0 are equal
//   - Object keys are ordered by UTF-16 code units when serialized
//   - Strings are NFC normalized at the canonical boundary
package ir
