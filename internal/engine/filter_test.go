package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jk/internal/ir"
	"github.com/roach88/jk/internal/queryir"
)

func TestParseFilter_SingleComparisons(t *testing.T) {
	tests := []struct {
		expr string
		want queryir.Predicate
	}{
		{`status == 'active'`, queryir.Equals{Field: "status", Value: ir.String("active")}},
		{`status = "active"`, queryir.Equals{Field: "status", Value: ir.String("active")}},
		{`status != "archived"`, queryir.NotEquals{Field: "status", Value: ir.String("archived")}},
		{`age >= 18`, queryir.Compare{Field: "age", Op: queryir.OpGreaterEqual, Value: ir.Int(18)}},
		{`age<18`, queryir.Compare{Field: "age", Op: queryir.OpLess, Value: ir.Int(18)}},
		{`score > -1.5`, queryir.Compare{Field: "score", Op: queryir.OpGreater, Value: ir.Float(-1.5)}},
		{`score <= 2e3`, queryir.Compare{Field: "score", Op: queryir.OpLessEqual, Value: ir.Float(2000)}},
		{`active == true`, queryir.Equals{Field: "active", Value: ir.Bool(true)}},
		{`active == false`, queryir.Equals{Field: "active", Value: ir.Bool(false)}},
		{`owner == null`, queryir.Equals{Field: "owner", Value: ir.Null{}}},
		{`address.city == 'Oslo'`, queryir.Equals{Field: "address.city", Value: ir.String("Oslo")}},
		{`exists(owner.email)`, queryir.Exists{Field: "owner.email"}},
		{`EXISTS( id )`, queryir.Exists{Field: "id"}},
		{`note == "a \"quoted\" word"`, queryir.Equals{Field: "note", Value: ir.String(`a "quoted" word`)}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilter_Empty(t *testing.T) {
	pred, err := ParseFilter("   ")
	require.NoError(t, err)
	assert.Nil(t, pred)
}

func TestParseFilter_AndBindsTighterThanOr(t *testing.T) {
	pred, err := ParseFilter(`a == 1 AND b == 2 or c == 3`)
	require.NoError(t, err)

	assert.Equal(t, queryir.Or{Predicates: []queryir.Predicate{
		queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "a", Value: ir.Int(1)},
			queryir.Equals{Field: "b", Value: ir.Int(2)},
		}},
		queryir.Equals{Field: "c", Value: ir.Int(3)},
	}}, pred)
}

func TestParseFilter_KeywordsInsideStrings(t *testing.T) {
	pred, err := ParseFilter(`title == 'black and white' and genre == "rock or roll"`)
	require.NoError(t, err)

	assert.Equal(t, queryir.And{Predicates: []queryir.Predicate{
		queryir.Equals{Field: "title", Value: ir.String("black and white")},
		queryir.Equals{Field: "genre", Value: ir.String("rock or roll")},
	}}, pred)
}

func TestParseFilter_FieldNamesContainingKeywords(t *testing.T) {
	pred, err := ParseFilter(`order == 1 and brand == 'x'`)
	require.NoError(t, err)

	and, ok := pred.(queryir.And)
	require.True(t, ok)
	assert.Equal(t, queryir.Equals{Field: "order", Value: ir.Int(1)}, and.Predicates[0])
	assert.Equal(t, queryir.Equals{Field: "brand", Value: ir.String("x")}, and.Predicates[1])
}

func TestParseFilter_Errors(t *testing.T) {
	tests := []struct {
		expr    string
		message string
	}{
		{`status`, "no comparison operator"},
		{`== 1`, "missing field name"},
		{`age >`, "missing value"},
		{`name == alice`, "strings must be quoted"},
		{`name == 'a''b'`, "invalid string literal"},
		{`name == "alice`, "unterminated"},
		{`name == 'alice`, "unterminated"},
		{`a == 1 and`, "invalid literal"},
		{`a == 1 and  and b == 2`, "empty operand"},
		{`age < null`, "against null"},
		{`1abc == 2`, "invalid field name"},
		{`a..b == 2`, "invalid field name"},
		{`exists(a`, "unterminated exists("},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := ParseFilter(tt.expr)
			require.Error(t, err)

			var fe *FilterError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.expr, fe.Expr)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestMustParseFilter_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseFilter("nope") })
	assert.NotPanics(t, func() { MustParseFilter("a == 1") })
}
