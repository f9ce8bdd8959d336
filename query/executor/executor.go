// Package executor runs compiled statements through database/sql and
// shapes the results into records.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cjauvin/little-pger/internal/debug"
	"github.com/cjauvin/little-pger/introspect"
	"github.com/cjauvin/little-pger/query/sqlgen"
)

var (
	// ErrTooManyRows is returned by single-row accessors that matched
	// more than one row; results are never silently truncated.
	ErrTooManyRows = errors.New("query matched more than one row")
	// ErrMissingPrimaryKey is returned when a primary key value cannot be
	// extracted from a record.
	ErrMissingPrimaryKey = errors.New("cannot resolve primary key")
)

// Querier is the execution surface the executor needs; both *sql.DB and
// *sql.Tx satisfy it. All blocking I/O happens behind it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Executor compiles descriptors and executes the resulting statements.
// It is stateless apart from the read-only schema snapshot cache and safe
// for concurrent use.
type Executor struct {
	q             Querier
	generator     sqlgen.Generator
	cache         *introspect.Cache
	provider      string
	emulateUpsert bool
}

// New creates an executor bound to a connection or pool.
func New(q Querier, provider string) *Executor {
	return &Executor{
		q:         q,
		generator: sqlgen.NewGenerator(provider),
		cache:     introspect.NewCache(introspect.New(provider, q)),
		provider:  provider,
	}
}

// SetEmulatedUpsert forces the two-statement check-then-branch upsert
// strategy, for targets without native atomic upsert (PostgreSQL < 9.5).
func (e *Executor) SetEmulatedUpsert(emulate bool) {
	e.emulateUpsert = emulate
}

// EmulatesUpsert reports the active upsert strategy.
func (e *Executor) EmulatesUpsert() bool {
	return e.emulateUpsert || !e.generator.SupportsNativeUpsert()
}

// Cache returns the schema snapshot cache.
func (e *Executor) Cache() *introspect.Cache {
	return e.cache
}

// Select executes a SELECT and returns all matching records.
func (e *Executor) Select(ctx context.Context, table string, p Params) ([]Record, error) {
	stmt, err := e.selectStmt(ctx, table, &p)
	if err != nil {
		return nil, err
	}
	q, err := e.generator.Select(stmt)
	if err != nil {
		return nil, err
	}
	return e.queryRecords(ctx, q)
}

// SelectOne executes a SELECT expected to match at most one row. It
// returns nil without error when nothing matches and ErrTooManyRows when
// more than one row does.
func (e *Executor) SelectOne(ctx context.Context, table string, p Params) (Record, error) {
	records, err := e.Select(ctx, table, p)
	if err != nil {
		return nil, err
	}
	if len(records) > 1 {
		return nil, fmt.Errorf("%w: select on %s", ErrTooManyRows, table)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// SelectScalar returns the single column of the single matching row, or
// nil when nothing matches.
func (e *Executor) SelectScalar(ctx context.Context, table string, p Params) (interface{}, error) {
	stmt, err := e.selectStmt(ctx, table, &p)
	if err != nil {
		return nil, err
	}
	q, err := e.generator.Select(stmt)
	if err != nil {
		return nil, err
	}
	return e.queryScalar(ctx, q)
}

// SelectID returns the primary key value of the single matching row, or
// nil when nothing matches.
func (e *Executor) SelectID(ctx context.Context, table string, p Params) (interface{}, error) {
	record, err := e.SelectOne(ctx, table, p)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return e.ExtractID(ctx, record, table, p.PKey)
}

// Insert executes an INSERT and returns the created record. Empty values
// produce the defaults-only insert variant.
func (e *Executor) Insert(ctx context.Context, table string, p Params) (Record, error) {
	values, err := e.prepareValues(ctx, table, &p)
	if err != nil {
		return nil, err
	}
	columns, vals := columnsAndValues(values)

	q, err := e.generator.Insert(sqlgen.InsertStmt{Table: table, Columns: columns, Values: vals})
	if err != nil {
		return nil, err
	}

	if e.generator.SupportsReturning() {
		return e.queryRecord(ctx, q)
	}
	return e.execThenFetch(ctx, table, &p, q)
}

// InsertID inserts and returns the new record's primary key value.
func (e *Executor) InsertID(ctx context.Context, table string, p Params) (interface{}, error) {
	record, err := e.Insert(ctx, table, p)
	if err != nil {
		return nil, err
	}
	return e.ExtractID(ctx, record, table, p.PKey)
}

// Update executes an UPDATE and returns one updated record, or nil when
// nothing matched. An empty set fails with sqlgen.ErrEmptySet.
func (e *Executor) Update(ctx context.Context, table string, p Params) (Record, error) {
	values, err := e.prepareValues(ctx, table, &p)
	if err != nil {
		return nil, err
	}
	columns, vals := columnsAndValues(values)

	q, err := e.generator.Update(sqlgen.UpdateStmt{
		Table:   table,
		Columns: columns,
		Values:  vals,
		Where:   p.Where,
		WhereOr: p.WhereOr,
	})
	if err != nil {
		return nil, err
	}

	if e.generator.SupportsReturning() {
		return e.queryRecord(ctx, q)
	}

	debug.Debug("executing statement", "sql", q.SQL, "args", q.Args)
	if _, err := e.q.ExecContext(ctx, q.SQL, q.Args...); err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}
	if len(p.Where) == 0 && len(p.WhereOr) == 0 {
		return nil, nil
	}
	return e.SelectOne(ctx, table, Params{Where: p.Where, WhereOr: p.WhereOr})
}

// Delete executes a DELETE. With TightenSequence set, the primary key
// sequence is reset to one past the remaining maximum afterwards, within
// whatever transaction the executor is bound to.
func (e *Executor) Delete(ctx context.Context, table string, p Params) error {
	q, err := e.generator.Delete(sqlgen.DeleteStmt{Table: table, Where: p.Where, WhereOr: p.WhereOr})
	if err != nil {
		return err
	}

	debug.Debug("executing statement", "sql", q.SQL, "args", q.Args)
	if _, err := e.q.ExecContext(ctx, q.SQL, q.Args...); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	if p.TightenSequence {
		return e.TightenSequence(ctx, table, p.PKey)
	}
	return nil
}

// Count returns the number of matching rows. Grouped queries are wrapped
// in an outer SELECT count(*) so the group count is returned.
func (e *Executor) Count(ctx context.Context, table string, p Params) (int64, error) {
	stmt, err := e.selectStmt(ctx, table, &p)
	if err != nil {
		return 0, err
	}

	if len(p.GroupBy) == 0 {
		stmt.What = []string{"count(*)"}
		stmt.WhatAs = nil
	} else {
		stmt.CountWrap = true
	}

	q, err := e.generator.Select(stmt)
	if err != nil {
		return 0, err
	}
	v, err := e.queryScalar(ctx, q)
	if err != nil {
		return 0, err
	}
	return toInt64(v)
}

// Exists reports whether at least one record matches.
func (e *Executor) Exists(ctx context.Context, table string, p Params) (bool, error) {
	p.Limit = 1
	records, err := e.Select(ctx, table, p)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// ColumnsOf returns the table's column names.
func (e *Executor) ColumnsOf(ctx context.Context, table string) ([]string, error) {
	info, err := e.cache.TableInfo(ctx, table)
	if err != nil {
		return nil, err
	}
	return info.Columns, nil
}

// NullableColumns returns the table's columns accepting NULL.
func (e *Executor) NullableColumns(ctx context.Context, table string) ([]string, error) {
	return e.cache.Inner().NullableColumns(ctx, table)
}

// SQL executes a raw statement and returns its rows as records; the
// escape hatch for anything the descriptors cannot express.
func (e *Executor) SQL(ctx context.Context, query string, args ...interface{}) ([]Record, error) {
	return e.queryRecords(ctx, &sqlgen.Query{SQL: query, Args: args})
}

// selectStmt assembles a SELECT statement from the descriptor, resolving
// join targets lacking an explicit condition to USING on the joined
// table's primary key.
func (e *Executor) selectStmt(ctx context.Context, table string, p *Params) (sqlgen.SelectStmt, error) {
	joins, err := e.resolveJoins(ctx, p)
	if err != nil {
		return sqlgen.SelectStmt{}, err
	}
	return sqlgen.SelectStmt{
		Table:   table,
		What:    p.What,
		WhatAs:  p.WhatAs,
		Joins:   joins,
		Where:   p.Where,
		WhereOr: p.WhereOr,
		GroupBy: p.GroupBy,
		OrderBy: p.OrderBy,
		Limit:   p.Limit,
		Offset:  p.Offset,
	}, nil
}

func (e *Executor) resolveJoins(ctx context.Context, p *Params) ([]sqlgen.Join, error) {
	groups := []struct {
		joins    []sqlgen.Join
		joinType string
	}{
		{p.Join, "inner"},
		{p.LeftJoin, "left"},
		{p.RightJoin, "right"},
	}

	var resolved []sqlgen.Join
	for _, group := range groups {
		for _, join := range group.joins {
			if join.Type == "" {
				join.Type = group.joinType
			}
			if join.Using == "" && len(join.On) == 0 && join.Table != "" {
				// "publisher p" joins on publisher's primary key.
				target := strings.Fields(join.Table)[0]
				pkey, err := e.primaryKey(ctx, target, "")
				if err != nil {
					return nil, err
				}
				join.Using = pkey
			}
			resolved = append(resolved, join)
		}
	}
	return resolved, nil
}

// execThenFetch runs a mutating statement on a dialect without RETURNING
// and queries the affected row back through its generated key.
func (e *Executor) execThenFetch(ctx context.Context, table string, p *Params, q *sqlgen.Query) (Record, error) {
	debug.Debug("executing statement", "sql", q.SQL, "args", q.Args)
	result, err := e.q.ExecContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("insert failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read last insert id: %w", err)
	}
	pkey, err := e.primaryKey(ctx, table, p.PKey)
	if err != nil {
		return nil, err
	}
	return e.SelectOne(ctx, table, Params{Where: sqlgen.Where{sqlgen.Eq(pkey, id)}})
}

func (e *Executor) queryRecords(ctx context.Context, q *sqlgen.Query) ([]Record, error) {
	debug.Debug("executing query", "sql", q.SQL, "args", q.Args)
	rows, err := e.q.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// queryRecord runs a statement expected to return at most one row, e.g. a
// RETURNING clause.
func (e *Executor) queryRecord(ctx context.Context, q *sqlgen.Query) (Record, error) {
	records, err := e.queryRecords(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (e *Executor) queryScalar(ctx context.Context, q *sqlgen.Query) (interface{}, error) {
	debug.Debug("executing query", "sql", q.SQL, "args", q.Args)
	rows, err := e.q.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if len(columns) != 1 {
		return nil, fmt.Errorf("scalar query returned %d columns", len(columns))
	}

	if !rows.Next() {
		return nil, rows.Err()
	}
	var v interface{}
	if err := rows.Scan(&v); err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	if rows.Next() {
		return nil, ErrTooManyRows
	}
	return v, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var records []Record
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}

		record := make(Record, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// toInt64 normalizes the count value across drivers.
func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
