package testutil

import (
	"testing"

	"github.com/roach88/jk/internal/ir"
)

// PeopleJSON is the shared people dataset used across package tests.
const PeopleJSON = `[
  {"name": "alice", "age": 34, "city": "Oslo", "active": true},
  {"name": "Bob", "age": 17, "city": "Bergen", "active": false},
  {"name": "carol", "age": 52, "city": "Oslo", "active": true},
  {"name": "Dave", "age": 17, "city": "Tromsø", "active": true},
  {"name": "alice", "age": 34, "city": "Oslo", "active": true}
]`

// People returns a fresh copy of the people dataset.
func People(t testing.TB) []ir.Value {
	t.Helper()
	return MustValues(t, PeopleJSON)
}

// MustValues decodes a JSON array into values, failing the test on error.
func MustValues(t testing.TB, data string) []ir.Value {
	t.Helper()
	items, err := ir.UnmarshalArray([]byte(data))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return items
}

// Names extracts the "name" field of each object item. Items without a
// string name contribute "".
func Names(items []ir.Value) []string {
	out := make([]string, len(items))
	for i, item := range items {
		obj, ok := item.(ir.Object)
		if !ok {
			continue
		}
		if s, ok := obj["name"].(ir.String); ok {
			out[i] = string(s)
		}
	}
	return out
}
