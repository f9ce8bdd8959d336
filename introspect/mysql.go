package introspect

import (
	"context"
	"fmt"
)

// MySQLIntrospector implements introspection for MySQL.
type MySQLIntrospector struct {
	q Querier
}

// Columns returns the table's column names in table order.
func (i *MySQLIntrospector) Columns(ctx context.Context, table string) ([]string, error) {
	return columnsViaEmptySelect(ctx, i.q, table)
}

// PrimaryKey resolves the primary key column from information_schema.
func (i *MySQLIntrospector) PrimaryKey(ctx context.Context, table string) (string, error) {
	query := `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = database() AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
		LIMIT 1
	`

	rows, err := i.q.QueryContext(ctx, query, table)
	if err != nil {
		return "", fmt.Errorf("failed to query primary key of %s: %w", table, err)
	}
	defer rows.Close()

	var pkey string
	if rows.Next() {
		if err := rows.Scan(&pkey); err != nil {
			return "", fmt.Errorf("failed to scan primary key of %s: %w", table, err)
		}
	}
	return pkey, rows.Err()
}

// PrimaryKeySequence always fails: MySQL uses AUTO_INCREMENT, not
// sequences.
func (i *MySQLIntrospector) PrimaryKeySequence(ctx context.Context, table string) (string, error) {
	return "", fmt.Errorf("%w: mysql", ErrNoSequences)
}

// NullableColumns returns the columns accepting NULL.
func (i *MySQLIntrospector) NullableColumns(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = database() AND table_name = ? AND is_nullable = 'YES'
		ORDER BY ordinal_position
	`

	rows, err := i.q.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query nullable columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan nullable column of %s: %w", table, err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}
