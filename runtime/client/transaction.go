// Package client provides transaction support.
package client

import (
	"context"
	"database/sql"
	"fmt"
)

// TransactionFunc runs within a database transaction, through a client
// bound to it.
type TransactionFunc func(tx *Client) error

// Transaction executes fn within a transaction. The transaction is rolled
// back when fn returns an error or panics, and committed otherwise. The
// client passed to fn shares the schema cache with the parent and must
// not outlive the call.
func (c *Client) Transaction(ctx context.Context, fn TransactionFunc) error {
	return c.TransactionWithOptions(ctx, nil, fn)
}

// TransactionWithOptions executes fn within a transaction started with
// custom options, e.g. an isolation level or read-only mode.
func (c *Client) TransactionWithOptions(ctx context.Context, opts *sql.TxOptions, fn TransactionFunc) error {
	tx, err := c.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	bound := &Client{
		db:       c.db,
		exec:     c.exec.WithTx(tx),
		provider: c.provider,
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after rollback
		}
	}()

	if err := fn(bound); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
