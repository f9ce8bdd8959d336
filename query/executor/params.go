package executor

import (
	"sort"

	"github.com/cjauvin/little-pger/query/sqlgen"
)

// Record is one row, mapped from column name to driver value. Records are
// materialized fresh per call and never cached or mutated in place.
type Record map[string]interface{}

// Params is the ephemeral descriptor for one operation; construct it,
// pass it, forget it. All fields are optional.
type Params struct {
	// What lists projection items verbatim; WhatAs adds aliased
	// expressions. Both empty selects *.
	What   []string
	WhatAs []sqlgen.Alias

	// Join, LeftJoin and RightJoin list join targets. A join without
	// Using or On joins USING the target table's introspected primary
	// key.
	Join      []sqlgen.Join
	LeftJoin  []sqlgen.Join
	RightJoin []sqlgen.Join

	// Where is AND-joined; WhereOr is OR-joined and attached with AND
	// when both are present.
	Where   sqlgen.Where
	WhereOr sqlgen.Where

	GroupBy []string
	OrderBy []string
	Limit   int
	Offset  int

	// Values (or its alias Set) carries the column values for insert,
	// update and upsert. Values wins when both are set.
	Values Record
	Set    Record

	// FilterValues trims Values down to the table's known columns before
	// compilation.
	FilterValues bool
	// MapValues substitutes values through a direct lookup before
	// compilation, e.g. {"": nil} to turn empty strings into NULLs.
	MapValues map[interface{}]interface{}

	// PKey overrides the primary key column name used for id extraction,
	// upsert conflict targets and sequence operations.
	PKey string

	// TightenSequence, on delete, resets the primary key sequence to one
	// past the remaining maximum. Unsafe under concurrent inserts.
	TightenSequence bool
}

// values resolves the Values/Set alias pair.
func (p *Params) values() Record {
	if p.Values != nil {
		return p.Values
	}
	return p.Set
}

// columnsAndValues splits a record into parallel column and value slices,
// sorted by column name so generated SQL is deterministic.
func columnsAndValues(values Record) ([]string, []interface{}) {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	vals := make([]interface{}, len(columns))
	for i, col := range columns {
		vals[i] = values[col]
	}
	return columns, vals
}
