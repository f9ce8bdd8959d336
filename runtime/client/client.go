// Package client provides the public database client: a thin layer over
// database/sql that takes and returns plain maps and slices.
package client

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/cjauvin/little-pger/query/executor"
)

// Record is one row, mapped from column name to driver value.
type Record = executor.Record

// Params is the per-call operation descriptor.
type Params = executor.Params

// Client is the main database client. It is safe for concurrent use; all
// per-call state lives in the Params descriptor.
type Client struct {
	db       *sql.DB
	exec     *executor.Executor
	provider string
}

// New creates a client for the given provider and connection string.
func New(provider string, connectionString string) (*Client, error) {
	driver := driverName(provider)
	if driver == "" {
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	db, err := sql.Open(driver, connectionString)
	if err != nil {
		return nil, err
	}
	return NewFromDB(provider, db), nil
}

// NewFromDB creates a client around an existing connection pool.
func NewFromDB(provider string, db *sql.DB) *Client {
	return &Client{
		db:       db,
		exec:     executor.New(db, provider),
		provider: provider,
	}
}

// driverName maps provider names to Go database driver names.
func driverName(provider string) string {
	switch provider {
	case "postgresql", "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite":
		return "sqlite3"
	default:
		return ""
	}
}

// Connect verifies the connection and detects server capabilities, such
// as whether the upsert strategy must fall back to emulation.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return err
	}
	return c.detectCapabilities(ctx)
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.db.Close()
}

// DB returns the underlying connection pool.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Provider returns the provider name the client was created with.
func (c *Client) Provider() string {
	return c.provider
}

// Select returns all records matching the descriptor.
func (c *Client) Select(ctx context.Context, table string, p Params) ([]Record, error) {
	return c.exec.Select(ctx, table, p)
}

// SelectOne returns the single matching record, nil when nothing matches,
// and an error when more than one row matches.
func (c *Client) SelectOne(ctx context.Context, table string, p Params) (Record, error) {
	return c.exec.SelectOne(ctx, table, p)
}

// SelectScalar returns the single column of the single matching row.
func (c *Client) SelectScalar(ctx context.Context, table string, p Params) (interface{}, error) {
	return c.exec.SelectScalar(ctx, table, p)
}

// SelectID returns the primary key value of the single matching row.
func (c *Client) SelectID(ctx context.Context, table string, p Params) (interface{}, error) {
	return c.exec.SelectID(ctx, table, p)
}

// Insert creates a record and returns it.
func (c *Client) Insert(ctx context.Context, table string, p Params) (Record, error) {
	return c.exec.Insert(ctx, table, p)
}

// InsertID creates a record and returns its primary key value.
func (c *Client) InsertID(ctx context.Context, table string, p Params) (interface{}, error) {
	return c.exec.InsertID(ctx, table, p)
}

// Update modifies matching records and returns one of them.
func (c *Client) Update(ctx context.Context, table string, p Params) (Record, error) {
	return c.exec.Update(ctx, table, p)
}

// Upsert inserts the record or updates the row sharing its primary key
// value, and returns the resulting record.
func (c *Client) Upsert(ctx context.Context, table string, p Params) (Record, error) {
	return c.exec.Upsert(ctx, table, p)
}

// UpsertID upserts and returns the record's primary key value.
func (c *Client) UpsertID(ctx context.Context, table string, p Params) (interface{}, error) {
	return c.exec.UpsertID(ctx, table, p)
}

// Delete removes matching records. An empty Where removes every row.
func (c *Client) Delete(ctx context.Context, table string, p Params) error {
	return c.exec.Delete(ctx, table, p)
}

// Count returns the number of matching rows, or the number of groups on a
// grouped descriptor.
func (c *Client) Count(ctx context.Context, table string, p Params) (int64, error) {
	return c.exec.Count(ctx, table, p)
}

// Exists reports whether at least one record matches.
func (c *Client) Exists(ctx context.Context, table string, p Params) (bool, error) {
	return c.exec.Exists(ctx, table, p)
}

// SQL executes a raw statement and returns its rows as records.
func (c *Client) SQL(ctx context.Context, query string, args ...interface{}) ([]Record, error) {
	return c.exec.SQL(ctx, query, args...)
}

// ColumnsOf returns the table's column names.
func (c *Client) ColumnsOf(ctx context.Context, table string) ([]string, error) {
	return c.exec.ColumnsOf(ctx, table)
}

// NullableColumns returns the table's columns accepting NULL.
func (c *Client) NullableColumns(ctx context.Context, table string) ([]string, error) {
	return c.exec.NullableColumns(ctx, table)
}

// FilterValues returns a copy of values trimmed down to the table's
// actual columns.
func (c *Client) FilterValues(ctx context.Context, table string, values Record) (Record, error) {
	return c.exec.FilterValues(ctx, table, values)
}

// TightenSequence resets the table's primary key sequence to one past the
// current maximum key value.
func (c *Client) TightenSequence(ctx context.Context, table string) error {
	return c.exec.TightenSequence(ctx, table, "")
}

// CurrentPrimaryKeyValue returns the current value of the table's primary
// key sequence. Pass seq to name a sequence explicitly.
func (c *Client) CurrentPrimaryKeyValue(ctx context.Context, table, seq string) (int64, error) {
	return c.exec.CurrentPrimaryKeyValue(ctx, table, seq)
}

// NextPrimaryKeyValue advances the table's primary key sequence and
// returns its next value.
func (c *Client) NextPrimaryKeyValue(ctx context.Context, table, seq string) (int64, error) {
	return c.exec.NextPrimaryKeyValue(ctx, table, seq)
}

// InvalidateSchema drops the cached schema snapshot for a table, forcing
// re-introspection on next use, e.g. after an ALTER TABLE.
func (c *Client) InvalidateSchema(table string) {
	c.exec.Cache().Invalidate(table)
}
