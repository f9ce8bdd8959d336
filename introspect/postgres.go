package introspect

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresIntrospector implements introspection for PostgreSQL.
type PostgresIntrospector struct {
	q Querier
}

// Columns returns the table's column names in table order.
func (i *PostgresIntrospector) Columns(ctx context.Context, table string) ([]string, error) {
	return columnsViaEmptySelect(ctx, i.q, table)
}

// PrimaryKey resolves the primary key column from the system catalogs.
// See http://wiki.postgresql.org/wiki/Retrieve_primary_key_columns
func (i *PostgresIntrospector) PrimaryKey(ctx context.Context, table string) (string, error) {
	query := `
		SELECT pg_attribute.attname AS pkey_name
		FROM pg_index, pg_class, pg_attribute
		WHERE
			pg_class.oid = $1::regclass AND indrelid = pg_class.oid AND
			pg_attribute.attrelid = pg_class.oid AND
			pg_attribute.attnum = any(pg_index.indkey) AND indisprimary
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

// PrimaryKeySequence resolves the sequence feeding the table's primary
// key via pg_get_serial_sequence.
func (i *PostgresIntrospector) PrimaryKeySequence(ctx context.Context, table string) (string, error) {
	query := `
		SELECT pg_get_serial_sequence($1, a.attname) AS seq_name
		FROM pg_index i, pg_class c, pg_attribute a
		WHERE
			c.oid = $2::regclass AND indrelid = c.oid AND
			a.attrelid = c.oid AND a.attnum = any(i.indkey) AND indisprimary
	`

	rows, err := i.q.QueryContext(ctx, query, table, table)
	if err != nil {
		return "", fmt.Errorf("failed to query primary key sequence of %s: %w", table, err)
	}
	defer rows.Close()

	var seq sql.NullString
	if rows.Next() {
		if err := rows.Scan(&seq); err != nil {
			return "", fmt.Errorf("failed to scan primary key sequence of %s: %w", table, err)
		}
	}
	return seq.String, rows.Err()
}

// NullableColumns returns the columns accepting NULL.
func (i *PostgresIntrospector) NullableColumns(ctx context.Context, table string) ([]string, error) {
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1 AND is_nullable = 'YES'
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
