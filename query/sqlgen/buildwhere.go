package sqlgen

import (
	"fmt"
	"reflect"
	"strings"
)

// compileWhere turns the AND-joined and OR-joined condition groups into a
// single boolean expression. The OR group is parenthesized and attached
// with AND when both are present. An empty result means no WHERE clause.
func compileWhere(and, or Where, argIndex *int, d *dialect) (string, []interface{}, error) {
	var parts []string
	var args []interface{}

	if len(and) > 0 {
		sql, groupArgs, err := compileGroup(and, " AND ", argIndex, d)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		args = append(args, groupArgs...)
	}

	if len(or) > 0 {
		sql, groupArgs, err := compileGroup(or, " OR ", argIndex, d)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, groupArgs...)
	}

	return strings.Join(parts, " AND "), args, nil
}

// compileGroup compiles a condition list joined with the given connective.
func compileGroup(conds Where, connective string, argIndex *int, d *dialect) (string, []interface{}, error) {
	fragments := make([]string, 0, len(conds))
	var args []interface{}

	for _, cond := range conds {
		sql, condArgs, err := compileCond(cond, argIndex, d)
		if err != nil {
			return "", nil, err
		}
		fragments = append(fragments, sql)
		args = append(args, condArgs...)
	}

	return strings.Join(fragments, connective), args, nil
}

// compileCond emits the SQL fragment and parameters for one condition,
// dispatching on the value's shape. Parameter values are never written
// into the SQL text.
func compileCond(cond Cond, argIndex *int, d *dialect) (string, []interface{}, error) {
	op := normalizeOperator(cond.Operator)
	if !allowedOperators[op] {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidOperator, cond.Operator)
	}

	if op == opExists {
		sub, ok := cond.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("%w: exists requires a subquery string", ErrInvalidOperator)
		}
		return fmt.Sprintf("EXISTS (%s)", sub), nil, nil
	}

	switch Classify(cond.Value) {
	case ShapeMembership:
		return compileMembership(cond, op, argIndex, d)
	case ShapeConjunction:
		return compileConjunction(cond, op, argIndex, d)
	case ShapeArray:
		return compileArray(cond, op, argIndex, d)
	default:
		return compileScalar(cond, op, argIndex, d)
	}
}

func compileScalar(cond Cond, op string, argIndex *int, d *dialect) (string, []interface{}, error) {
	if isNilValue(cond.Value) {
		field := cond.Field
		if cond.Transform != "" {
			field = fmt.Sprintf("%s(%s)", cond.Transform, cond.Field)
		}
		switch op {
		case "=", "is":
			return fmt.Sprintf("%s IS NULL", field), nil, nil
		case "!=", "<>", "is not":
			return fmt.Sprintf("%s IS NOT NULL", field), nil, nil
		default:
			return "", nil, fmt.Errorf("%w: %s %s null", ErrNullComparison, cond.Field, op)
		}
	}

	ph := d.placeholder(*argIndex)
	*argIndex++
	if cond.Transform != "" {
		fragment := fmt.Sprintf("%s(%s) %s %s(%s)", cond.Transform, cond.Field, strings.ToUpper(op), cond.Transform, ph)
		return fragment, []interface{}{cond.Value}, nil
	}
	return fmt.Sprintf("%s %s %s", cond.Field, strings.ToUpper(op), ph), []interface{}{cond.Value}, nil
}

func compileMembership(cond Cond, op string, argIndex *int, d *dialect) (string, []interface{}, error) {
	switch op {
	case "=", "in":
		op = "IN"
	case "!=", "<>", "not in":
		op = "NOT IN"
	default:
		return "", nil, fmt.Errorf("%w: %q against a membership list", ErrInvalidOperator, op)
	}

	values := cond.Value.(InList)
	if len(values) == 0 {
		// IN over an empty set is invalid SQL; force an always-false
		// predicate instead (always-true for the negated form).
		if op == "IN" {
			return "1 = 0", nil, nil
		}
		return "1 = 1", nil, nil
	}

	placeholders := make([]string, len(values))
	args := make([]interface{}, len(values))
	for i, v := range values {
		placeholders[i] = d.placeholder(*argIndex)
		*argIndex++
		args[i] = v
	}
	return fmt.Sprintf("%s %s (%s)", cond.Field, op, strings.Join(placeholders, ", ")), args, nil
}

func compileConjunction(cond Cond, op string, argIndex *int, d *dialect) (string, []interface{}, error) {
	values := cond.Value.(ConjSet)
	if len(values) == 0 {
		return "", nil, fmt.Errorf("%w: empty conjunction set for %s", ErrInvalidOperator, cond.Field)
	}

	fragments := make([]string, 0, len(values))
	var args []interface{}
	for _, v := range values {
		sql, elemArgs, err := compileScalar(Cond{Field: cond.Field, Transform: cond.Transform, Value: v}, op, argIndex, d)
		if err != nil {
			return "", nil, err
		}
		fragments = append(fragments, "("+sql+")")
		args = append(args, elemArgs...)
	}
	return strings.Join(fragments, " AND "), args, nil
}

func compileArray(cond Cond, op string, argIndex *int, d *dialect) (string, []interface{}, error) {
	wrapped, err := d.arrayWrap(cond.Value.(ArrayEq).Elems)
	if err != nil {
		return "", nil, err
	}
	ph := d.placeholder(*argIndex)
	*argIndex++
	return fmt.Sprintf("%s %s %s", cond.Field, strings.ToUpper(op), ph), []interface{}{wrapped}, nil
}

// isNilValue reports whether v is nil or a typed nil pointer.
func isNilValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
