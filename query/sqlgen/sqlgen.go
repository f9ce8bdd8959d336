package sqlgen

import (
	"fmt"
	"strings"
)

// Query represents a SQL statement with its positional arguments.
type Query struct {
	SQL  string
	Args []interface{}
}

// SelectStmt describes a SELECT statement.
type SelectStmt struct {
	Table     string
	What      []string
	WhatAs    []Alias
	Joins     []Join
	Where     Where
	WhereOr   Where
	GroupBy   []string
	OrderBy   []string
	Limit     int
	Offset    int
	CountWrap bool // wrap the whole query in SELECT count(*) FROM (...) _
}

// InsertStmt describes an INSERT statement. Columns and Values are
// parallel; both empty produces the no-column defaults variant.
type InsertStmt struct {
	Table     string
	Columns   []string
	Values    []interface{}
	Returning string // "" means *; ignored on dialects without RETURNING
}

// UpdateStmt describes an UPDATE statement.
type UpdateStmt struct {
	Table     string
	Columns   []string
	Values    []interface{}
	Where     Where
	WhereOr   Where
	Returning string
}

// DeleteStmt describes a DELETE statement. An empty Where deletes every
// row; no artificial guard is added.
type DeleteStmt struct {
	Table   string
	Where   Where
	WhereOr Where
}

// UpsertStmt describes a native atomic insert-or-update keyed on the
// Conflict column.
type UpsertStmt struct {
	Table     string
	Columns   []string
	Values    []interface{}
	Conflict  string // conflict target column, normally the primary key
	Returning string
}

// Generator generates SQL for a specific provider.
type Generator interface {
	Select(stmt SelectStmt) (*Query, error)
	Insert(stmt InsertStmt) (*Query, error)
	Update(stmt UpdateStmt) (*Query, error)
	Delete(stmt DeleteStmt) (*Query, error)
	Upsert(stmt UpsertStmt) (*Query, error)
	// SupportsNativeUpsert reports whether Upsert compiles to a single
	// atomic statement on this provider.
	SupportsNativeUpsert() bool
	// SupportsReturning reports whether mutating statements can return the
	// affected row directly.
	SupportsReturning() bool
	Name() string
}

// NewGenerator creates a new SQL generator for the given provider.
func NewGenerator(provider string) Generator {
	switch provider {
	case "postgresql", "postgres":
		return &PostgresGenerator{}
	case "mysql":
		return &MySQLGenerator{}
	case "sqlite":
		return &SQLiteGenerator{}
	default:
		return &PostgresGenerator{} // default to postgres
	}
}

// PostgresGenerator generates PostgreSQL SQL.
type PostgresGenerator struct{}

func (g *PostgresGenerator) Select(stmt SelectStmt) (*Query, error) {
	return buildSelect(postgresDialect, stmt)
}
func (g *PostgresGenerator) Insert(stmt InsertStmt) (*Query, error) {
	return buildInsert(postgresDialect, stmt)
}
func (g *PostgresGenerator) Update(stmt UpdateStmt) (*Query, error) {
	return buildUpdate(postgresDialect, stmt)
}
func (g *PostgresGenerator) Delete(stmt DeleteStmt) (*Query, error) {
	return buildDelete(postgresDialect, stmt)
}
func (g *PostgresGenerator) Upsert(stmt UpsertStmt) (*Query, error) {
	return buildUpsert(postgresDialect, stmt)
}
func (g *PostgresGenerator) SupportsNativeUpsert() bool { return postgresDialect.nativeUpsert }
func (g *PostgresGenerator) SupportsReturning() bool    { return postgresDialect.returningClause }
func (g *PostgresGenerator) Name() string               { return postgresDialect.name }

// MySQLGenerator generates MySQL SQL.
type MySQLGenerator struct{}

func (g *MySQLGenerator) Select(stmt SelectStmt) (*Query, error) {
	return buildSelect(mysqlDialect, stmt)
}
func (g *MySQLGenerator) Insert(stmt InsertStmt) (*Query, error) {
	return buildInsert(mysqlDialect, stmt)
}
func (g *MySQLGenerator) Update(stmt UpdateStmt) (*Query, error) {
	return buildUpdate(mysqlDialect, stmt)
}
func (g *MySQLGenerator) Delete(stmt DeleteStmt) (*Query, error) {
	return buildDelete(mysqlDialect, stmt)
}
func (g *MySQLGenerator) Upsert(stmt UpsertStmt) (*Query, error) {
	return buildUpsert(mysqlDialect, stmt)
}
func (g *MySQLGenerator) SupportsNativeUpsert() bool { return mysqlDialect.nativeUpsert }
func (g *MySQLGenerator) SupportsReturning() bool    { return mysqlDialect.returningClause }
func (g *MySQLGenerator) Name() string               { return mysqlDialect.name }

// SQLiteGenerator generates SQLite SQL.
type SQLiteGenerator struct{}

func (g *SQLiteGenerator) Select(stmt SelectStmt) (*Query, error) {
	return buildSelect(sqliteDialect, stmt)
}
func (g *SQLiteGenerator) Insert(stmt InsertStmt) (*Query, error) {
	return buildInsert(sqliteDialect, stmt)
}
func (g *SQLiteGenerator) Update(stmt UpdateStmt) (*Query, error) {
	return buildUpdate(sqliteDialect, stmt)
}
func (g *SQLiteGenerator) Delete(stmt DeleteStmt) (*Query, error) {
	return buildDelete(sqliteDialect, stmt)
}
func (g *SQLiteGenerator) Upsert(stmt UpsertStmt) (*Query, error) {
	return buildUpsert(sqliteDialect, stmt)
}
func (g *SQLiteGenerator) SupportsNativeUpsert() bool { return sqliteDialect.nativeUpsert }
func (g *SQLiteGenerator) SupportsReturning() bool    { return sqliteDialect.returningClause }
func (g *SQLiteGenerator) Name() string               { return sqliteDialect.name }

func buildSelect(d *dialect, stmt SelectStmt) (*Query, error) {
	var parts []string
	var args []interface{}
	argIndex := 1

	parts = append(parts, fmt.Sprintf("SELECT %s", compileProjection(stmt.What, stmt.WhatAs)))
	parts = append(parts, fmt.Sprintf("FROM %s", stmt.Table))

	for _, join := range stmt.Joins {
		joinSQL, err := compileJoin(join)
		if err != nil {
			return nil, err
		}
		parts = append(parts, joinSQL)
	}

	whereSQL, whereArgs, err := compileWhere(stmt.Where, stmt.WhereOr, &argIndex, d)
	if err != nil {
		return nil, err
	}
	if whereSQL != "" {
		parts = append(parts, "WHERE "+whereSQL)
		args = append(args, whereArgs...)
	}

	if len(stmt.GroupBy) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(stmt.GroupBy, ", "))
	}
	if len(stmt.OrderBy) > 0 {
		parts = append(parts, "ORDER BY "+strings.Join(stmt.OrderBy, ", "))
	}

	if stmt.Limit > 0 {
		parts = append(parts, "LIMIT "+d.placeholder(argIndex))
		args = append(args, stmt.Limit)
		argIndex++
	}
	if stmt.Offset > 0 {
		parts = append(parts, "OFFSET "+d.placeholder(argIndex))
		args = append(args, stmt.Offset)
		argIndex++
	}

	sql := strings.Join(parts, " ")
	if stmt.CountWrap {
		sql = fmt.Sprintf("SELECT count(*) FROM (%s) _", sql)
	}

	return &Query{SQL: sql, Args: args}, nil
}

func buildInsert(d *dialect, stmt InsertStmt) (*Query, error) {
	if len(stmt.Columns) != len(stmt.Values) {
		return nil, fmt.Errorf("%w: %d columns for %d values", ErrNoColumns, len(stmt.Columns), len(stmt.Values))
	}

	var parts []string
	var args []interface{}
	argIndex := 1

	parts = append(parts, fmt.Sprintf("INSERT INTO %s", stmt.Table))

	if len(stmt.Columns) == 0 {
		if d.defaultValues {
			parts = append(parts, "DEFAULT VALUES")
		} else {
			parts = append(parts, "() VALUES ()")
		}
	} else {
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(stmt.Columns, ", ")))
		placeholders := make([]string, len(stmt.Values))
		for i, v := range stmt.Values {
			placeholders[i] = d.placeholder(argIndex)
			args = append(args, v)
			argIndex++
		}
		parts = append(parts, fmt.Sprintf("VALUES (%s)", strings.Join(placeholders, ", ")))
	}

	if d.returningClause {
		parts = append(parts, "RETURNING "+returning(stmt.Returning))
	}

	return &Query{SQL: strings.Join(parts, " "), Args: args}, nil
}

func buildUpdate(d *dialect, stmt UpdateStmt) (*Query, error) {
	if len(stmt.Columns) == 0 {
		return nil, fmt.Errorf("%w: update on %s", ErrEmptySet, stmt.Table)
	}
	if len(stmt.Columns) != len(stmt.Values) {
		return nil, fmt.Errorf("%w: %d columns for %d values", ErrNoColumns, len(stmt.Columns), len(stmt.Values))
	}

	var parts []string
	var args []interface{}
	argIndex := 1

	parts = append(parts, fmt.Sprintf("UPDATE %s", stmt.Table))

	setParts := make([]string, len(stmt.Columns))
	for i, col := range stmt.Columns {
		setParts[i] = fmt.Sprintf("%s = %s", col, d.placeholder(argIndex))
		args = append(args, stmt.Values[i])
		argIndex++
	}
	parts = append(parts, "SET "+strings.Join(setParts, ", "))

	whereSQL, whereArgs, err := compileWhere(stmt.Where, stmt.WhereOr, &argIndex, d)
	if err != nil {
		return nil, err
	}
	if whereSQL != "" {
		parts = append(parts, "WHERE "+whereSQL)
		args = append(args, whereArgs...)
	}

	if d.returningClause {
		parts = append(parts, "RETURNING "+returning(stmt.Returning))
	}

	return &Query{SQL: strings.Join(parts, " "), Args: args}, nil
}

func buildDelete(d *dialect, stmt DeleteStmt) (*Query, error) {
	var parts []string
	var args []interface{}
	argIndex := 1

	parts = append(parts, fmt.Sprintf("DELETE FROM %s", stmt.Table))

	whereSQL, whereArgs, err := compileWhere(stmt.Where, stmt.WhereOr, &argIndex, d)
	if err != nil {
		return nil, err
	}
	if whereSQL != "" {
		parts = append(parts, "WHERE "+whereSQL)
		args = append(args, whereArgs...)
	}

	return &Query{SQL: strings.Join(parts, " "), Args: args}, nil
}

func returning(column string) string {
	if column == "" {
		return "*"
	}
	return column
}
