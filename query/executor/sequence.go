package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/cjauvin/little-pger/internal/debug"
	"github.com/cjauvin/little-pger/introspect"
)

// TightenSequence resets the table's primary key sequence to one past the
// current maximum key value (or 1 on an empty table), so the next insert
// reuses the ids freed by deletions. PostgreSQL only.
func (e *Executor) TightenSequence(ctx context.Context, table, pkeyOverride string) error {
	pkey, err := e.primaryKey(ctx, table, pkeyOverride)
	if err != nil {
		return err
	}
	seq, err := e.sequenceName(ctx, table, pkey, "")
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		"SELECT setval($1, coalesce((SELECT max(%s) + 1 FROM %s), 1), false)",
		pkey, table,
	)
	debug.Debug("tightening sequence", "sql", query, "seq", seq)
	rows, err := e.q.QueryContext(ctx, query, seq)
	if err != nil {
		return fmt.Errorf("tighten sequence failed: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// CurrentPrimaryKeyValue returns the sequence's current value, i.e. the
// primary key value most recently assigned in this session. Pass seq to
// name a sequence explicitly; otherwise it is resolved from the schema.
func (e *Executor) CurrentPrimaryKeyValue(ctx context.Context, table, seq string) (int64, error) {
	return e.sequenceValue(ctx, table, seq, "currval")
}

// NextPrimaryKeyValue advances the sequence and returns the next primary
// key value to be assigned.
func (e *Executor) NextPrimaryKeyValue(ctx context.Context, table, seq string) (int64, error) {
	return e.sequenceValue(ctx, table, seq, "nextval")
}

func (e *Executor) sequenceValue(ctx context.Context, table, seq, fn string) (int64, error) {
	pkey, err := e.primaryKey(ctx, table, "")
	if err != nil {
		return 0, err
	}
	name, err := e.sequenceName(ctx, table, pkey, seq)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT %s($1)", fn)
	debug.Debug("reading sequence", "sql", query, "seq", name)
	rows, err := e.q.QueryContext(ctx, query, name)
	if err != nil {
		return 0, fmt.Errorf("%s failed: %w", fn, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%s returned no value", fn)
	}
	var v int64
	if err := rows.Scan(&v); err != nil {
		return 0, fmt.Errorf("scan failed: %w", err)
	}
	return v, rows.Err()
}

// sequenceName resolves a sequence: an explicit name wins, then the
// sequence owning the primary key column, then the conventional
// <table>_<pkey>_seq naming.
func (e *Executor) sequenceName(ctx context.Context, table, pkey, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	seq, err := e.cache.Inner().PrimaryKeySequence(ctx, table)
	if err == nil && seq != "" {
		return seq, nil
	}
	if errors.Is(err, introspect.ErrNoSequences) {
		return "", err
	}
	if err != nil {
		debug.Debug("sequence lookup failed, falling back to naming convention",
			"table", table, "error", err)
	}
	return fmt.Sprintf("%s_%s_seq", table, pkey), nil
}
