// Package sqlgen compiles plain filter, projection and value descriptors
// into parameterized SQL for different database providers.
package sqlgen

import (
	"sort"
	"strings"
)

// Cond represents a single filter condition. A zero Operator means "=".
// Two Conds with the same Column but different Operators are independent
// predicates; both may appear in one Where.
type Cond struct {
	Field     string
	Operator  string
	Transform string // optional SQL function applied to both sides, e.g. "lower"
	Value     interface{}
}

// Where is an ordered conjunction of conditions. Order only affects the
// generated SQL text, never its semantics, and is kept stable for
// testability.
type Where []Cond

// Shape is the comparison semantics assigned to a predicate value.
type Shape int

const (
	// ShapeScalar compiles to a single comparison with one placeholder.
	ShapeScalar Shape = iota
	// ShapeArray compiles to a wholesale comparison against an array-typed
	// column, one placeholder carrying the entire sequence.
	ShapeArray
	// ShapeMembership compiles to IN (...) with one placeholder per element.
	ShapeMembership
	// ShapeConjunction compiles to AND-joined repeated comparisons, one
	// placeholder per element.
	ShapeConjunction
)

// InList is a membership list; it compiles to an IN (...) clause.
type InList []interface{}

// In builds a membership list value.
func In(values ...interface{}) InList { return InList(values) }

// ConjSet is a conjunction set; it compiles to AND-joined repeated
// comparisons with the condition's operator, one per element.
type ConjSet []interface{}

// All builds a conjunction set value.
func All(values ...interface{}) ConjSet { return ConjSet(values) }

// ArrayEq carries an ordered sequence compared wholesale against an
// array-typed column. Elems may be any slice type the driver can adapt.
type ArrayEq struct {
	Elems interface{}
}

// Array builds an array-equality value from a slice.
func Array(slice interface{}) ArrayEq { return ArrayEq{Elems: slice} }

// Classify decides which comparison semantics apply to a predicate value.
// The InList, ConjSet and ArrayEq container kinds are the classification
// contract; anything else is a scalar.
func Classify(v interface{}) Shape {
	switch v.(type) {
	case InList:
		return ShapeMembership
	case ConjSet:
		return ShapeConjunction
	case ArrayEq:
		return ShapeArray
	default:
		return ShapeScalar
	}
}

// C builds a condition with an explicit operator.
func C(field, operator string, value interface{}) Cond {
	return Cond{Field: field, Operator: operator, Value: value}
}

// Eq builds an equality condition.
func Eq(field string, value interface{}) Cond {
	return Cond{Field: field, Value: value}
}

// Exists builds a raw EXISTS (<subquery>) condition. The subquery is
// caller-supplied SQL and is trusted verbatim, like any identifier.
func Exists(subquery string) Cond {
	return Cond{Operator: opExists, Value: subquery}
}

// Map converts a column→value mapping into a Where, sorted by column name
// so the generated SQL is deterministic. Use explicit Cond lists when the
// textual order matters.
func Map(m map[string]interface{}) Where {
	fields := make([]string, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	w := make(Where, 0, len(m))
	for _, field := range fields {
		w = append(w, Cond{Field: field, Value: m[field]})
	}
	return w
}

const opExists = "exists"

// allowedOperators is the fixed operator whitelist. Anything else fails
// with ErrInvalidOperator.
var allowedOperators = map[string]bool{
	"=":      true,
	"!=":     true,
	"<>":     true,
	"<":      true,
	"<=":     true,
	">":      true,
	">=":     true,
	"like":   true,
	"ilike":  true,
	"in":     true,
	"not in": true,
	"is":     true,
	"is not": true,
	opExists: true,
	"@>":     true,
	"<@":     true,
	"&&":     true,
}

// normalizeOperator lowercases and trims an operator, defaulting to "=".
func normalizeOperator(op string) string {
	op = strings.ToLower(strings.TrimSpace(op))
	if op == "" {
		return "="
	}
	return strings.Join(strings.Fields(op), " ")
}
