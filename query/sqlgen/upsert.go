package sqlgen

import (
	"fmt"
	"strings"
)

// buildUpsert compiles a native atomic insert-or-update. PostgreSQL and
// SQLite use ON CONFLICT ... DO UPDATE keyed on the conflict column; MySQL
// uses ON DUPLICATE KEY UPDATE, which conflicts on any unique key rather
// than a named column.
func buildUpsert(d *dialect, stmt UpsertStmt) (*Query, error) {
	if !d.nativeUpsert {
		return nil, fmt.Errorf("%w: %s has no native upsert", ErrUnsupportedDialect, d.name)
	}
	if len(stmt.Columns) == 0 {
		// Nothing to conflict on; behave like the defaults insert.
		return buildInsert(d, InsertStmt{Table: stmt.Table, Returning: stmt.Returning})
	}
	if len(stmt.Columns) != len(stmt.Values) {
		return nil, fmt.Errorf("%w: %d columns for %d values", ErrNoColumns, len(stmt.Columns), len(stmt.Values))
	}
	if d.name != "mysql" && stmt.Conflict == "" {
		return nil, fmt.Errorf("%w: missing conflict column for upsert on %s", ErrNoColumns, stmt.Table)
	}

	var parts []string
	var args []interface{}
	argIndex := 1

	parts = append(parts, fmt.Sprintf("INSERT INTO %s", stmt.Table))
	parts = append(parts, fmt.Sprintf("(%s)", strings.Join(stmt.Columns, ", ")))

	placeholders := make([]string, len(stmt.Values))
	for i, v := range stmt.Values {
		placeholders[i] = d.placeholder(argIndex)
		args = append(args, v)
		argIndex++
	}
	parts = append(parts, fmt.Sprintf("VALUES (%s)", strings.Join(placeholders, ", ")))

	updates := make([]string, len(stmt.Columns))
	if d.name == "mysql" {
		for i, col := range stmt.Columns {
			updates[i] = fmt.Sprintf("%s = VALUES(%s)", col, col)
		}
		parts = append(parts, "ON DUPLICATE KEY UPDATE "+strings.Join(updates, ", "))
	} else {
		for i, col := range stmt.Columns {
			updates[i] = fmt.Sprintf("%s = excluded.%s", col, col)
		}
		parts = append(parts, fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", stmt.Conflict, strings.Join(updates, ", ")))
	}

	if d.returningClause {
		parts = append(parts, "RETURNING "+returning(stmt.Returning))
	}

	return &Query{SQL: strings.Join(parts, " "), Args: args}, nil
}
