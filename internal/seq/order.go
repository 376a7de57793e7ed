package seq

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/jk/internal/ir"
)

// ComparisonKind selects the comparator used for an ordering.
type ComparisonKind int

const (
	// KindUnknown marks a key outside the comparable set.
	KindUnknown ComparisonKind = iota
	// KindBoolean orders true before false.
	KindBoolean
	// KindNumber orders numerically.
	KindNumber
	// KindString orders case-insensitively by UTF-16 code units.
	KindString
)

// String returns the kind name used in error messages.
func (k ComparisonKind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// KeyFunc extracts the ordering key from an item. The key must be a
// boolean, a number or a string (Go primitives, named types over them, or
// the matching ir values).
type KeyFunc[T any] func(T) any

// Field returns a KeyFunc reading item[name] from ir.Object items.
// Dotted names reach into nested objects. Non-object items and missing
// fields produce a nil key, which is not comparable.
func Field(name string) KeyFunc[ir.Value] {
	return func(v ir.Value) any {
		obj, ok := v.(ir.Object)
		if !ok {
			return nil
		}
		val, ok := obj.Lookup(name)
		if !ok {
			return nil
		}
		return val
	}
}

// sortKey is a key normalized once per item, so the comparator never
// re-inspects runtime types.
type sortKey struct {
	kind  ComparisonKind
	b     bool
	isInt bool
	i     int64
	f     float64
	s     string
}

// KindOf reports the comparison kind of a key value.
func KindOf(v any) ComparisonKind {
	return normalizeKey(v, nil).kind
}

// normalizeKey classifies v. upper, when non-nil, folds string keys.
func normalizeKey(v any, upper *cases.Caser) sortKey {
	switch val := v.(type) {
	case nil, ir.Null:
		return sortKey{}
	case bool:
		return sortKey{kind: KindBoolean, b: val}
	case ir.Bool:
		return sortKey{kind: KindBoolean, b: bool(val)}
	case string:
		return stringKey(val, upper)
	case ir.String:
		return stringKey(string(val), upper)
	case int:
		return intKey(int64(val))
	case int64:
		return intKey(val)
	case ir.Int:
		return intKey(int64(val))
	case float64:
		return floatKey(val)
	case ir.Float:
		return floatKey(float64(val))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return sortKey{kind: KindBoolean, b: rv.Bool()}
	case reflect.String:
		return stringKey(rv.String(), upper)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intKey(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return floatKey(float64(u))
		}
		return intKey(int64(u))
	case reflect.Float32, reflect.Float64:
		return floatKey(rv.Float())
	}
	return sortKey{}
}

func intKey(i int64) sortKey {
	return sortKey{kind: KindNumber, isInt: true, i: i, f: float64(i)}
}

func floatKey(f float64) sortKey {
	return sortKey{kind: KindNumber, f: f}
}

func stringKey(s string, upper *cases.Caser) sortKey {
	if upper != nil {
		s = upper.String(s)
	}
	return sortKey{kind: KindString, s: s}
}

func compareBooleans(a, b sortKey) int {
	switch {
	case a.b == b.b:
		return 0
	case a.b:
		return -1
	default:
		return 1
	}
}

// compareNumbers compares by exact numeric value, so int keys beyond
// 2^53 stay ordered against floats.
func compareNumbers(a, b sortKey) int {
	switch {
	case a.isInt && b.isInt:
		return cmp.Compare(a.i, b.i)
	case a.isInt:
		return compareIntFloat(a.i, b.f)
	case b.isInt:
		return -compareIntFloat(b.i, a.f)
	default:
		return cmp.Compare(a.f, b.f)
	}
}

func compareIntFloat(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f >= 0x1p63:
		return -1
	case f < -0x1p63:
		return 1
	}
	t := math.Trunc(f)
	if c := cmp.Compare(i, int64(t)); c != 0 {
		return c
	}
	// Same integer part; a fractional f lies on the side of its sign.
	return cmp.Compare(0, f-t)
}

func compareStrings(a, b sortKey) int {
	return ir.CompareUTF16(a.s, b.s)
}

// comparatorFor returns the single strategy used for a kind.
func comparatorFor(kind ComparisonKind) func(a, b sortKey) int {
	switch kind {
	case KindBoolean:
		return compareBooleans
	case KindNumber:
		return compareNumbers
	case KindString:
		return compareStrings
	default:
		return nil
	}
}

// CompareKeys compares two key values with the ordering comparator.
// Both must share a comparable kind.
func CompareKeys(a, b any) (int, error) {
	upper := cases.Upper(language.Und)
	ka, kb := normalizeKey(a, &upper), normalizeKey(b, &upper)
	if ka.kind == KindUnknown {
		return 0, unsupportedKey("compare", a, 0)
	}
	if kb.kind != ka.kind {
		return 0, mixedKey("compare", ka.kind, kb.kind, 1)
	}
	return comparatorFor(ka.kind)(ka, kb), nil
}

// OrderBy returns the items sorted ascending by key. The comparison kind is
// taken from the first item's key. Inputs of length 0 or 1 are returned as
// is, without calling key.
func OrderBy[T any](items []T, key KeyFunc[T]) ([]T, error) {
	return orderBy(items, KindUnknown, key)
}

// OrderByKind is OrderBy with a caller-chosen comparison kind. Every key
// must be of that kind.
func OrderByKind[T any](items []T, kind ComparisonKind, key KeyFunc[T]) ([]T, error) {
	if comparatorFor(kind) == nil {
		return nil, &QueryError{
			Code:    ErrCodeUnsupportedKeyKind,
			Op:      "orderBy",
			Message: fmt.Sprintf("comparison kind %s cannot order keys", kind),
			Index:   -1,
		}
	}
	return orderBy(items, kind, key)
}

// OrderByDescending is the exact reverse of OrderBy, ties included.
func OrderByDescending[T any](items []T, key KeyFunc[T]) ([]T, error) {
	sorted, err := OrderBy(items, key)
	if err != nil {
		return nil, err
	}
	if len(sorted) <= 1 {
		return sorted, nil
	}
	slices.Reverse(sorted)
	return sorted, nil
}

func orderBy[T any](items []T, kind ComparisonKind, key KeyFunc[T]) ([]T, error) {
	if len(items) <= 1 {
		return items, nil
	}

	upper := cases.Upper(language.Und)
	keys := make([]sortKey, len(items))
	for i, item := range items {
		raw := key(item)
		k := normalizeKey(raw, &upper)
		if i == 0 && kind == KindUnknown {
			if k.kind == KindUnknown {
				return nil, unsupportedKey("orderBy", raw, 0)
			}
			kind = k.kind
		}
		if k.kind != kind {
			return nil, mixedKey("orderBy", kind, k.kind, i)
		}
		keys[i] = k
	}

	compare := comparatorFor(kind)
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return compare(keys[a], keys[b])
	})

	out := make([]T, len(items))
	for i, idx := range order {
		out[i] = items[idx]
	}
	return out, nil
}

func unsupportedKey(op string, raw any, index int) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnsupportedKeyKind,
		Op:      op,
		Message: fmt.Sprintf("key %v (%T) is not a boolean, number or string", raw, raw),
		Index:   index,
	}
}

func mixedKey(op string, want, got ComparisonKind, index int) *QueryError {
	return &QueryError{
		Code:    ErrCodeMixedKeyKinds,
		Op:      op,
		Message: fmt.Sprintf("key is %s, want %s", got, want),
		Index:   index,
	}
}
