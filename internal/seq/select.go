package seq

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/jk/internal/ir"
)

// Projection computes one output field of Select.
type Projection[T any] struct {
	Field string
	Fn    func(T) any
}

// Project is a shorthand constructor for Projection.
func Project[T any](field string, fn func(T) any) Projection[T] {
	return Projection[T]{Field: field, Fn: fn}
}

// RecordField is a single named value in a Record.
type RecordField struct {
	Name  string
	Value any
}

// Record is a shaped output row. Fields keep the order in which their
// projections were declared.
type Record struct {
	fields []RecordField
}

// Set assigns a field. An existing name keeps its position.
func (r *Record) Set(name string, v any) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = v
			return
		}
	}
	r.fields = append(r.fields, RecordField{Name: name, Value: v})
}

// Get returns the value of a field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in declaration order.
func (r Record) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Name
	}
	return keys
}

// Fields returns a copy of the fields in declaration order.
func (r Record) Fields() []RecordField {
	out := make([]RecordField, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.fields)
}

// Object converts the record into an ir.Object.
func (r Record) Object() (ir.Object, error) {
	obj := make(ir.Object, len(r.fields))
	for _, f := range r.fields {
		v, err := ir.FromGo(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		obj[f.Name] = v
	}
	return obj, nil
}

// MarshalJSON writes the fields in declaration order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Select builds one Record per item. Projections run in the order given,
// each on the original item. A repeated field name overwrites the earlier
// value in place.
func Select[T any](items []T, projections ...Projection[T]) []Record {
	out := make([]Record, len(items))
	for i, item := range items {
		rec := Record{fields: make([]RecordField, 0, len(projections))}
		for _, p := range projections {
			rec.Set(p.Field, p.Fn(item))
		}
		out[i] = rec
	}
	return out
}
