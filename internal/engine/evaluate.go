package engine

import (
	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/queryir"
	"github.com/roach88/jk/internal/seq"
)

// Evaluate reports whether item satisfies pred. A nil predicate matches
// everything.
//
// Fields are read from ir.Object items with dotted paths. A missing field
// never satisfies Equals, NotEquals or Compare. Compare uses the same
// comparator as ordering, so strings compare case-insensitively; operands
// of different kinds do not match.
func Evaluate(pred queryir.Predicate, item ir.Value) bool {
	switch p := queryir.NormalizePredicate(pred).(type) {
	case nil:
		return true
	case queryir.Equals:
		v, ok := lookup(item, p.Field)
		return ok && ir.Equal(v, p.Value)
	case queryir.NotEquals:
		v, ok := lookup(item, p.Field)
		return ok && !ir.Equal(v, p.Value)
	case queryir.Compare:
		v, ok := lookup(item, p.Field)
		if !ok {
			return false
		}
		c, err := seq.CompareKeys(v, p.Value)
		if err != nil {
			return false
		}
		return applyOp(p.Op, c)
	case queryir.Exists:
		_, ok := lookup(item, p.Field)
		return ok
	case queryir.And:
		for _, sub := range p.Predicates {
			if !Evaluate(sub, item) {
				return false
			}
		}
		return true
	case queryir.Or:
		for _, sub := range p.Predicates {
			if Evaluate(sub, item) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Matcher binds a predicate into a seq-compatible function.
func Matcher(pred queryir.Predicate) func(ir.Value) bool {
	return func(item ir.Value) bool {
		return Evaluate(pred, item)
	}
}

func lookup(item ir.Value, field string) (ir.Value, bool) {
	obj, ok := item.(ir.Object)
	if !ok {
		return nil, false
	}
	return obj.Lookup(field)
}

func applyOp(op queryir.CompareOp, c int) bool {
	switch op {
	case queryir.OpLess:
		return c < 0
	case queryir.OpLessEqual:
		return c <= 0
	case queryir.OpGreater:
		return c > 0
	case queryir.OpGreaterEqual:
		return c >= 0
	default:
		return false
	}
}
