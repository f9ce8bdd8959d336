package introspect

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteIntrospector implements introspection for SQLite.
type SQLiteIntrospector struct {
	q Querier
}

// Columns returns the table's column names in table order.
func (i *SQLiteIntrospector) Columns(ctx context.Context, table string) ([]string, error) {
	return columnsViaEmptySelect(ctx, i.q, table)
}

// PrimaryKey resolves the primary key column via PRAGMA table_info.
// PRAGMA arguments cannot be parameterized; the table name is
// caller-trusted like every other identifier.
func (i *SQLiteIntrospector) PrimaryKey(ctx context.Context, table string) (string, error) {
	rows, err := i.q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return "", fmt.Errorf("failed to query primary key of %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return "", fmt.Errorf("failed to scan table_info of %s: %w", table, err)
		}
		if pk == 1 {
			return name, rows.Err()
		}
	}
	return "", rows.Err()
}

// PrimaryKeySequence always fails: SQLite rowids are not sequences.
func (i *SQLiteIntrospector) PrimaryKeySequence(ctx context.Context, table string) (string, error) {
	return "", fmt.Errorf("%w: sqlite", ErrNoSequences)
}

// NullableColumns returns the columns accepting NULL.
func (i *SQLiteIntrospector) NullableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := i.q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to query nullable columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table_info of %s: %w", table, err)
		}
		if notNull == 0 {
			columns = append(columns, name)
		}
	}
	return columns, rows.Err()
}
