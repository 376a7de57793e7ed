package queryir

import "github.com/roach88/jk/internal/ir"

// Pipeline is a named, ordered list of steps.
type Pipeline struct {
	Name        string
	Description string
	Steps       []Step
}

// Step is one stage of a pipeline.
//
// This is a sealed interface - only types in this package implement it.
type Step interface {
	stepNode() // Marker method - seals interface to this package
}

// Predicate is a filter condition over one item.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Where keeps the items matching Filter.
type Where struct {
	Filter Predicate
}

func (Where) stepNode() {}

// OrderBy sorts by a field. Descending is the exact reverse of the
// ascending order, ties included.
type OrderBy struct {
	Field      string
	Descending bool
}

func (OrderBy) stepNode() {}

// Distinct removes structurally equal items, keeping first occurrences.
type Distinct struct{}

func (Distinct) stepNode() {}

// Skip drops the first N items.
type Skip struct {
	N int
}

func (Skip) stepNode() {}

// Take keeps the first N items.
type Take struct {
	N int
}

func (Take) stepNode() {}

// FieldBinding copies item[Source] into output field As.
type FieldBinding struct {
	Source string
	As     string
}

// Select reshapes each item. Output fields keep the order of Fields.
type Select struct {
	Fields []FieldBinding
}

func (Select) stepNode() {}

// First reduces the sequence to its first item, or the first item matching
// Filter when set. An absent match yields an empty sequence.
type First struct {
	Filter Predicate // nil = first item
}

func (First) stepNode() {}

// Equals matches items whose field equals Value structurally.
// A missing field never matches.
type Equals struct {
	Field string
	Value ir.Value
}

func (Equals) predicateNode() {}

// NotEquals matches items whose field is present and differs from Value.
type NotEquals struct {
	Field string
	Value ir.Value
}

func (NotEquals) predicateNode() {}

// CompareOp is an ordering operator.
type CompareOp string

const (
	OpLess         CompareOp = "<"
	OpLessEqual    CompareOp = "<="
	OpGreater      CompareOp = ">"
	OpGreaterEqual CompareOp = ">="
)

// Valid reports whether op is one of the four ordering operators.
func (op CompareOp) Valid() bool {
	switch op {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	}
	return false
}

// Compare orders a field against Value. Both must share a comparison kind
// (boolean, number or string); otherwise the item does not match.
type Compare struct {
	Field string
	Op    CompareOp
	Value ir.Value
}

func (Compare) predicateNode() {}

// Exists matches items that carry Field, whatever its value.
type Exists struct {
	Field string
}

func (Exists) predicateNode() {}

// And is a conjunction. Empty means always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction. Empty means always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// StepName returns the operation name of a step, as used in logs and
// error messages.
func StepName(s Step) string {
	switch step := s.(type) {
	case Where, *Where:
		return "where"
	case OrderBy:
		return orderByName(step.Descending)
	case *OrderBy:
		if step == nil {
			return "orderBy"
		}
		return orderByName(step.Descending)
	case Distinct, *Distinct:
		return "distinct"
	case Skip, *Skip:
		return "skip"
	case Take, *Take:
		return "take"
	case Select, *Select:
		return "select"
	case First, *First:
		return "first"
	default:
		return "unknown"
	}
}

func orderByName(descending bool) string {
	if descending {
		return "orderByDescending"
	}
	return "orderBy"
}
