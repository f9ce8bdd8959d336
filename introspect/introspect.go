// Package introspect reads table metadata (columns, primary keys,
// sequences) from a live database connection.
package introspect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// ErrNoSequences is returned when sequence metadata is requested from a
// provider that has no sequence generators.
var ErrNoSequences = errors.New("provider has no sequences")

// Querier is the subset of database/sql used for introspection queries;
// both *sql.DB and *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// TableInfo is a snapshot of one table's metadata.
type TableInfo struct {
	PrimaryKey string
	Columns    []string
}

// Introspector reads table metadata for a specific provider.
type Introspector interface {
	// Columns returns the table's column names in table order.
	Columns(ctx context.Context, table string) ([]string, error)
	// PrimaryKey returns the table's primary key column, or "" when the
	// table has none.
	PrimaryKey(ctx context.Context, table string) (string, error)
	// NullableColumns returns the columns accepting NULL.
	NullableColumns(ctx context.Context, table string) ([]string, error)
	// PrimaryKeySequence returns the name of the sequence feeding the
	// primary key, or ErrNoSequences on providers without sequences.
	PrimaryKeySequence(ctx context.Context, table string) (string, error)
}

// New creates an introspector for the given provider.
func New(provider string, q Querier) Introspector {
	switch provider {
	case "mysql":
		return &MySQLIntrospector{q: q}
	case "sqlite":
		return &SQLiteIntrospector{q: q}
	default:
		return &PostgresIntrospector{q: q}
	}
}

// columnsViaEmptySelect lists a table's columns by selecting zero rows and
// reading the result descriptor. Works identically on every provider.
func columnsViaEmptySelect(ctx context.Context, q Querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", table))
	if err != nil {
		return nil, fmt.Errorf("failed to describe %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	return columns, rows.Err()
}

// Cache is a lazily-populated, concurrent-read-safe snapshot cache in
// front of an Introspector. Refreshes are last-writer-wins.
type Cache struct {
	inner Introspector
	mu    sync.RWMutex
	infos map[string]TableInfo
}

// NewCache creates a snapshot cache around an introspector.
func NewCache(inner Introspector) *Cache {
	return &Cache{
		inner: inner,
		infos: make(map[string]TableInfo),
	}
}

// TableInfo returns the cached snapshot for a table, fetching it on first
// use.
func (c *Cache) TableInfo(ctx context.Context, table string) (TableInfo, error) {
	c.mu.RLock()
	info, ok := c.infos[table]
	c.mu.RUnlock()
	if ok {
		return info, nil
	}

	columns, err := c.inner.Columns(ctx, table)
	if err != nil {
		return TableInfo{}, err
	}
	pkey, err := c.inner.PrimaryKey(ctx, table)
	if err != nil {
		return TableInfo{}, err
	}

	info = TableInfo{PrimaryKey: pkey, Columns: columns}
	c.mu.Lock()
	c.infos[table] = info
	c.mu.Unlock()
	return info, nil
}

// Invalidate drops the cached snapshot for a table.
func (c *Cache) Invalidate(table string) {
	c.mu.Lock()
	delete(c.infos, table)
	c.mu.Unlock()
}

// Inner returns the wrapped introspector.
func (c *Cache) Inner() Introspector {
	return c.inner
}
