package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/queryir"
)

// FilterError reports an expression that could not be parsed.
type FilterError struct {
	Expr    string
	Message string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("parse filter %q: %s", e.Expr, e.Message)
}

// ParseFilter parses a filter expression into a predicate.
//
// Supported expression formats:
//   - "field == value" (or "=") → Equals
//   - "field != value" → NotEquals
//   - "field < value" (also <=, >, >=) → Compare
//   - "exists(field)" → Exists
//   - "expr1 AND expr2" → And
//   - "expr1 OR expr2" → Or
//
// AND binds tighter than OR. Parentheses are not supported beyond
// exists(...). An empty expression yields a nil predicate.
func ParseFilter(expr string) (queryir.Predicate, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, nil
	}

	orParts, err := splitByKeyword(trimmed, "or")
	if err != nil {
		return nil, &FilterError{Expr: expr, Message: err.Error()}
	}

	disjuncts := make([]queryir.Predicate, 0, len(orParts))
	for _, orPart := range orParts {
		andParts, err := splitByKeyword(orPart, "and")
		if err != nil {
			return nil, &FilterError{Expr: expr, Message: err.Error()}
		}

		conjuncts := make([]queryir.Predicate, 0, len(andParts))
		for _, part := range andParts {
			if part == "" {
				return nil, &FilterError{Expr: expr, Message: "empty operand"}
			}
			pred, err := parseSingleComparison(part)
			if err != nil {
				return nil, &FilterError{Expr: expr, Message: err.Error()}
			}
			conjuncts = append(conjuncts, pred)
		}

		if len(conjuncts) == 1 {
			disjuncts = append(disjuncts, conjuncts[0])
		} else {
			disjuncts = append(disjuncts, queryir.And{Predicates: conjuncts})
		}
	}

	if len(disjuncts) == 1 {
		return disjuncts[0], nil
	}
	return queryir.Or{Predicates: disjuncts}, nil
}

// MustParseFilter is ParseFilter for expressions known to be valid.
func MustParseFilter(expr string) queryir.Predicate {
	pred, err := ParseFilter(expr)
	if err != nil {
		panic(err)
	}
	return pred
}

// splitByKeyword splits s on a whitespace-delimited keyword (case
// insensitive), ignoring occurrences inside quoted strings.
func splitByKeyword(s, keyword string) ([]string, error) {
	var parts []string
	start := 0
	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case c == '\\' && quote == '"':
				i++
			case c == quote:
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		if !isSpace(c) {
			continue
		}

		end := i + 1 + len(keyword)
		if end < len(s) && strings.EqualFold(s[i+1:end], keyword) && isSpace(s[end]) {
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = end
			i = end - 1
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c string", quote)
	}

	parts = append(parts, strings.TrimSpace(s[start:]))
	return parts, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// operators in match priority: two-character forms first.
var operators = []string{"==", "!=", "<=", ">=", "=", "<", ">"}

// parseSingleComparison parses one operand of an AND/OR chain.
func parseSingleComparison(expr string) (queryir.Predicate, error) {
	expr = strings.TrimSpace(expr)

	if lower := strings.ToLower(expr); strings.HasPrefix(lower, "exists(") {
		if !strings.HasSuffix(expr, ")") {
			return nil, fmt.Errorf("unterminated exists(")
		}
		field := strings.TrimSpace(expr[len("exists(") : len(expr)-1])
		if err := checkField(field); err != nil {
			return nil, err
		}
		return queryir.Exists{Field: field}, nil
	}

	idx, op := findOperator(expr)
	if idx < 0 {
		return nil, fmt.Errorf("no comparison operator in %q", expr)
	}

	field := strings.TrimSpace(expr[:idx])
	if err := checkField(field); err != nil {
		return nil, err
	}
	value, err := parseLiteral(strings.TrimSpace(expr[idx+len(op):]))
	if err != nil {
		return nil, err
	}

	switch op {
	case "==", "=":
		return queryir.Equals{Field: field, Value: value}, nil
	case "!=":
		return queryir.NotEquals{Field: field, Value: value}, nil
	default:
		if _, isNull := value.(ir.Null); isNull {
			return nil, fmt.Errorf("cannot order %s against null", field)
		}
		return queryir.Compare{Field: field, Op: queryir.CompareOp(op), Value: value}, nil
	}
}

// findOperator returns the position of the first operator outside quotes.
func findOperator(expr string) (int, string) {
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == '\'' || c == '"' {
			return -1, ""
		}
		for _, op := range operators {
			if strings.HasPrefix(expr[i:], op) {
				return i, op
			}
		}
	}
	return -1, ""
}

// checkField accepts dotted identifiers: letters, digits, '_', '-' and '.'.
func checkField(field string) error {
	if field == "" {
		return fmt.Errorf("missing field name")
	}
	for i := 0; i < len(field); i++ {
		c := field[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case (c >= '0' && c <= '9' || c == '-') && i > 0:
		case c == '.' && i > 0 && i < len(field)-1 && field[i-1] != '.':
		default:
			return fmt.Errorf("invalid field name %q", field)
		}
	}
	return nil
}

// parseLiteral parses the right-hand side of a comparison.
func parseLiteral(s string) (ir.Value, error) {
	if s == "" {
		return nil, fmt.Errorf("missing value")
	}

	switch s[0] {
	case '"':
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("invalid string literal %s", s)
		}
		return ir.String(unquoted), nil
	case '\'':
		if len(s) < 2 || s[len(s)-1] != '\'' || strings.Contains(s[1:len(s)-1], "'") {
			return nil, fmt.Errorf("invalid string literal %s", s)
		}
		return ir.String(s[1 : len(s)-1]), nil
	}

	switch s {
	case "true":
		return ir.Bool(true), nil
	case "false":
		return ir.Bool(false), nil
	case "null":
		return ir.Null{}, nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ir.Int(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return ir.Float(f), nil
	}
	return nil, fmt.Errorf("invalid literal %s (strings must be quoted)", s)
}
