package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/jk/internal/ir"
)

// ValidationError describes one structural problem in a pipeline.
type ValidationError struct {
	// Step is the index of the offending step, or -1 for the pipeline.
	Step int

	// Path locates the problem inside the step (e.g. "where.and[1].field").
	Path string

	Message string
}

func (e ValidationError) Error() string {
	if e.Step < 0 {
		return e.Message
	}
	if e.Path == "" {
		return fmt.Sprintf("steps[%d]: %s", e.Step, e.Message)
	}
	return fmt.Sprintf("steps[%d].%s: %s", e.Step, e.Path, e.Message)
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	// Valid is true when Errors is empty. Warnings do not affect it.
	Valid bool

	Errors []ValidationError

	// Warnings lists suspicious but runnable constructs, such as a field
	// read after a select that does not produce it.
	Warnings []string
}

// Err returns nil for a valid result, otherwise an error listing every
// problem.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("invalid pipeline: %s", strings.Join(msgs, "; "))
}

// Validate checks a pipeline for structural errors.
//
// Validate is a pure function with no side effects.
func Validate(p Pipeline) ValidationResult {
	v := &validator{
		errors:   []ValidationError{},
		warnings: []string{},
	}
	v.validatePipeline(p)

	return ValidationResult{
		Valid:    len(v.errors) == 0,
		Errors:   v.errors,
		Warnings: v.warnings,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	errors   []ValidationError
	warnings []string

	step int
	// produced is the field set of the last select, nil before any select.
	produced map[string]bool
}

func (v *validator) addError(path, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Step:    v.step,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf("steps[%d]: ", v.step)+fmt.Sprintf(format, args...))
}

func (v *validator) validatePipeline(p Pipeline) {
	for i, raw := range p.Steps {
		v.step = i
		s := Normalize(raw)
		if s == nil {
			v.addError("", "nil step")
			continue
		}
		if _, ok := s.(First); ok && i != len(p.Steps)-1 {
			v.addError("first", "first must be the last step")
		}
		v.validateStep(s)
	}
}

func (v *validator) validateStep(s Step) {
	switch step := s.(type) {
	case Where:
		if step.Filter == nil {
			v.addError("where", "filter is required")
			return
		}
		v.validatePredicate("where", step.Filter)
	case OrderBy:
		if step.Field == "" {
			v.addError("order_by", "field is required")
			return
		}
		v.checkProduced(step.Field)
	case Distinct:
	case Skip:
		if step.N < 0 {
			v.addError("skip", "count must be >= 0, got %d", step.N)
		}
	case Take:
		if step.N < 0 {
			v.addError("take", "count must be >= 0, got %d", step.N)
		}
	case Select:
		v.validateSelect(step)
	case First:
		if step.Filter != nil {
			v.validatePredicate("first", step.Filter)
		}
	default:
		v.addError("", "unknown step type %T", s)
	}
}

func (v *validator) validateSelect(sel Select) {
	if len(sel.Fields) == 0 {
		v.addError("select", "at least one field is required")
		return
	}
	produced := make(map[string]bool, len(sel.Fields))
	for i, f := range sel.Fields {
		path := fmt.Sprintf("select[%d]", i)
		if f.Source == "" {
			v.addError(path, "source field is required")
		} else {
			v.checkProduced(f.Source)
		}
		if f.As == "" {
			v.addError(path, "output name is required")
			continue
		}
		if produced[f.As] {
			v.addWarning("select output %q is bound twice; the later binding wins", f.As)
		}
		produced[f.As] = true
	}
	v.produced = produced
}

// checkProduced warns when a field is read after a select that dropped it.
func (v *validator) checkProduced(field string) {
	if v.produced == nil {
		return
	}
	root, _, _ := strings.Cut(field, ".")
	if !v.produced[root] {
		v.addWarning("field %q is not produced by the preceding select", field)
	}
}

func (v *validator) validatePredicate(path string, raw Predicate) {
	p := NormalizePredicate(raw)
	if p == nil {
		v.addError(path, "nil predicate")
		return
	}

	switch pred := p.(type) {
	case Equals:
		v.validateField(path+".eq", pred.Field)
		v.validateValue(path+".eq", pred.Value)
	case NotEquals:
		v.validateField(path+".ne", pred.Field)
		v.validateValue(path+".ne", pred.Value)
	case Compare:
		v.validateField(path+".cmp", pred.Field)
		if !pred.Op.Valid() {
			v.addError(path+".cmp", "unknown operator %q", pred.Op)
		}
		v.validateValue(path+".cmp", pred.Value)
		switch pred.Value.(type) {
		case ir.Bool, ir.Int, ir.Float, ir.String:
		case nil:
		default:
			v.addError(path+".cmp", "cannot order against %s", ir.KindOf(pred.Value))
		}
	case Exists:
		v.validateField(path+".exists", pred.Field)
	case And:
		for i, sub := range pred.Predicates {
			v.validatePredicate(fmt.Sprintf("%s.and[%d]", path, i), sub)
		}
	case Or:
		for i, sub := range pred.Predicates {
			v.validatePredicate(fmt.Sprintf("%s.or[%d]", path, i), sub)
		}
	default:
		v.addError(path, "unknown predicate type %T", p)
	}
}

func (v *validator) validateField(path, field string) {
	if field == "" {
		v.addError(path, "field is required")
		return
	}
	v.checkProduced(field)
}

func (v *validator) validateValue(path string, val ir.Value) {
	if val == nil {
		v.addError(path, "value is required")
	}
}

// Normalize returns the value form of a step, dereferencing pointers.
// A nil step or nil pointer yields nil.
func Normalize(s Step) Step {
	switch step := s.(type) {
	case *Where:
		if step == nil {
			return nil
		}
		return *step
	case *OrderBy:
		if step == nil {
			return nil
		}
		return *step
	case *Distinct:
		if step == nil {
			return nil
		}
		return *step
	case *Skip:
		if step == nil {
			return nil
		}
		return *step
	case *Take:
		if step == nil {
			return nil
		}
		return *step
	case *Select:
		if step == nil {
			return nil
		}
		return *step
	case *First:
		if step == nil {
			return nil
		}
		return *step
	}
	return s
}

// NormalizePredicate returns the value form of a predicate.
func NormalizePredicate(p Predicate) Predicate {
	switch pred := p.(type) {
	case *Equals:
		if pred == nil {
			return nil
		}
		return *pred
	case *NotEquals:
		if pred == nil {
			return nil
		}
		return *pred
	case *Compare:
		if pred == nil {
			return nil
		}
		return *pred
	case *Exists:
		if pred == nil {
			return nil
		}
		return *pred
	case *And:
		if pred == nil {
			return nil
		}
		return *pred
	case *Or:
		if pred == nil {
			return nil
		}
		return *pred
	}
	return p
}
