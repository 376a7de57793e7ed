package compiler

import (
	"fmt"
	"math"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/jk/internal/engine"
	"github.com/roach88/jk/internal/queryir"
)

// stepKeys are the operation keys a step struct may carry. Exactly one is
// allowed per step; "descending" may accompany "order_by".
var stepKeys = []string{"where", "order_by", "distinct", "skip", "take", "select", "first"}

// CompilePipeline parses a CUE value into a Pipeline.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the pipeline struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`pipeline: adults: { steps: [{where: "age >= 18"}] }`)
//	p, err := CompilePipeline(v.LookupPath(cue.ParsePath("pipeline.adults")))
//
// The compiled pipeline is validated before it is returned.
func CompilePipeline(v cue.Value) (*queryir.Pipeline, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &queryir.Pipeline{}

	// Pipeline name from struct label, e.g. pipeline: "top-10": {...}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		p.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	// Description (optional)
	descVal := v.LookupPath(cue.ParsePath("description"))
	if descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		p.Description = desc
	}

	// Steps (required, at least one)
	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, &CompileError{
			Field:   "steps",
			Message: "steps is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		step, err := parseStep(iter.Value())
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, step)
	}
	if len(p.Steps) == 0 {
		return nil, &CompileError{
			Field:   "steps",
			Message: "at least one step is required",
			Pos:     stepsVal.Pos(),
		}
	}

	if result := queryir.Validate(*p); !result.Valid {
		return nil, &CompileError{
			Field:   "steps",
			Message: result.Err().Error(),
			Pos:     stepsVal.Pos(),
		}
	}

	return p, nil
}

// parseStep dispatches on the single operation key of a step struct.
func parseStep(v cue.Value) (queryir.Step, error) {
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "step",
			Message: fmt.Sprintf("step must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	var op string
	for _, key := range stepKeys {
		if !v.LookupPath(cue.ParsePath(key)).Exists() {
			continue
		}
		if op != "" {
			return nil, &CompileError{
				Field:   "step",
				Message: fmt.Sprintf("step has both %q and %q; use one operation per step", op, key),
				Pos:     v.Pos(),
			}
		}
		op = key
	}
	if op == "" {
		return nil, &CompileError{
			Field:   "step",
			Message: fmt.Sprintf("step needs one of: %s", strings.Join(stepKeys, ", ")),
			Pos:     v.Pos(),
		}
	}

	if err := checkExtraFields(v, op); err != nil {
		return nil, err
	}

	opVal := v.LookupPath(cue.ParsePath(op))
	switch op {
	case "where":
		return parseWhere(opVal)
	case "order_by":
		return parseOrderBy(v, opVal)
	case "distinct":
		return parseDistinct(opVal)
	case "skip":
		n, err := parseCount(op, opVal)
		if err != nil {
			return nil, err
		}
		return queryir.Skip{N: n}, nil
	case "take":
		n, err := parseCount(op, opVal)
		if err != nil {
			return nil, err
		}
		return queryir.Take{N: n}, nil
	case "select":
		return parseSelect(opVal)
	default: // "first"
		return parseFirst(opVal)
	}
}

// checkExtraFields rejects unknown keys, so a typo does not silently
// disappear.
func checkExtraFields(v cue.Value, op string) error {
	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		if label == op || (label == "descending" && op == "order_by") {
			continue
		}
		return &CompileError{
			Field:   op,
			Message: fmt.Sprintf("unexpected field %q in %s step", label, op),
			Pos:     iter.Value().Pos(),
		}
	}
	return nil
}

func parseFilter(field string, v cue.Value) (queryir.Predicate, error) {
	expr, err := v.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if strings.TrimSpace(expr) == "" {
		return nil, &CompileError{
			Field:   field,
			Message: "filter expression is empty",
			Pos:     v.Pos(),
		}
	}
	pred, err := engine.ParseFilter(expr)
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return pred, nil
}

func parseWhere(v cue.Value) (queryir.Step, error) {
	pred, err := parseFilter("where", v)
	if err != nil {
		return nil, err
	}
	return queryir.Where{Filter: pred}, nil
}

func parseOrderBy(step, v cue.Value) (queryir.Step, error) {
	field, err := v.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if field == "" {
		return nil, &CompileError{
			Field:   "order_by",
			Message: "field name is empty",
			Pos:     v.Pos(),
		}
	}

	ob := queryir.OrderBy{Field: field}
	descVal := step.LookupPath(cue.ParsePath("descending"))
	if descVal.Exists() {
		ob.Descending, err = descVal.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
	}
	return ob, nil
}

func parseDistinct(v cue.Value) (queryir.Step, error) {
	on, err := v.Bool()
	if err != nil {
		return nil, formatCUEError(err)
	}
	if !on {
		return nil, &CompileError{
			Field:   "distinct",
			Message: "distinct must be true; remove the step instead",
			Pos:     v.Pos(),
		}
	}
	return queryir.Distinct{}, nil
}

func parseCount(field string, v cue.Value) (int, error) {
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n < 0 {
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("count must be >= 0, got %d", n),
			Pos:     v.Pos(),
		}
	}
	if n > math.MaxInt32 {
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("count %d is too large", n),
			Pos:     v.Pos(),
		}
	}
	return int(n), nil
}

// parseSelect accepts a struct of output → source field names, kept in
// declaration order, or a list of field names copied under their own name.
func parseSelect(v cue.Value) (queryir.Step, error) {
	var fields []queryir.FieldBinding

	switch v.IncompleteKind() {
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			source, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			fields = append(fields, queryir.FieldBinding{
				Source: source,
				As:     iter.Label(),
			})
		}
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			fields = append(fields, queryir.FieldBinding{Source: name, As: name})
		}
	default:
		return nil, &CompileError{
			Field:   "select",
			Message: "select must be a struct or a list of field names",
			Pos:     v.Pos(),
		}
	}

	if len(fields) == 0 {
		return nil, &CompileError{
			Field:   "select",
			Message: "at least one field is required",
			Pos:     v.Pos(),
		}
	}
	return queryir.Select{Fields: fields}, nil
}

// parseFirst accepts a filter expression or `true` for the first item.
func parseFirst(v cue.Value) (queryir.Step, error) {
	if v.IncompleteKind() == cue.BoolKind {
		on, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if !on {
			return nil, &CompileError{
				Field:   "first",
				Message: "first must be true or a filter expression",
				Pos:     v.Pos(),
			}
		}
		return queryir.First{}, nil
	}

	pred, err := parseFilter("first", v)
	if err != nil {
		return nil, err
	}
	return queryir.First{Filter: pred}, nil
}
