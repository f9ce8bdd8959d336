package executor

import (
	"context"

	"github.com/cjauvin/little-pger/internal/debug"
	"github.com/cjauvin/little-pger/query/sqlgen"
)

// Upsert inserts the record or, when a row with the same primary key value
// already exists, updates it instead. The default strategy is a single
// native atomic statement; executors switched to emulated mode (see
// SetEmulatedUpsert) run an existence check and branch to an update or an
// insert, which is subject to races unless wrapped in a transaction.
func (e *Executor) Upsert(ctx context.Context, table string, p Params) (Record, error) {
	prepared, err := e.prepareValues(ctx, table, &p)
	if err != nil {
		return nil, err
	}
	// Copied so dropping the key column below never touches the caller's
	// record.
	values := make(Record, len(prepared))
	for col, v := range prepared {
		values[col] = v
	}
	pkey, err := e.primaryKey(ctx, table, p.PKey)
	if err != nil {
		return nil, err
	}

	if e.EmulatesUpsert() {
		return e.emulatedUpsert(ctx, table, p, values, pkey)
	}

	// An absent or nil key means there is nothing to conflict with; the
	// column is dropped so the sequence assigns a fresh value.
	pkValue, hasPK := values[pkey]
	if hasPK && pkValue == nil {
		delete(values, pkey)
		hasPK = false
	}
	if !hasPK {
		debug.Debug("upsert without key value, inserting", "table", table)
		return e.Insert(ctx, table, Params{Values: values, PKey: p.PKey})
	}

	columns, vals := columnsAndValues(values)
	q, err := e.generator.Upsert(sqlgen.UpsertStmt{
		Table:    table,
		Columns:  columns,
		Values:   vals,
		Conflict: pkey,
	})
	if err != nil {
		return nil, err
	}

	if e.generator.SupportsReturning() {
		return e.queryRecord(ctx, q)
	}
	return e.execThenFetch(ctx, table, &p, q)
}

// UpsertID upserts and returns the record's primary key value.
func (e *Executor) UpsertID(ctx context.Context, table string, p Params) (interface{}, error) {
	record, err := e.Upsert(ctx, table, p)
	if err != nil {
		return nil, err
	}
	return e.ExtractID(ctx, record, table, p.PKey)
}

func (e *Executor) emulatedUpsert(ctx context.Context, table string, p Params, values Record, pkey string) (Record, error) {
	// The key value for the existence check comes from the filter when
	// one names the key column, else from the values themselves.
	pkValue, hasPK := values[pkey]
	for _, cond := range p.Where {
		if cond.Field == pkey {
			pkValue, hasPK = cond.Value, true
		}
	}
	if hasPK && pkValue == nil {
		delete(values, pkey)
		hasPK = false
	}

	next := Params{Values: values, PKey: p.PKey}
	if !hasPK {
		debug.Debug("emulated upsert: no key value, inserting", "table", table)
		return e.Insert(ctx, table, next)
	}

	exists, err := e.Exists(ctx, table, Params{
		Where: sqlgen.Where{sqlgen.Eq(pkey, pkValue)},
	})
	if err != nil {
		return nil, err
	}

	if exists {
		debug.Debug("emulated upsert: key found, updating", "table", table, "key", pkValue)
		// The key stays in the set columns so a key-only record still
		// compiles, matching the native strategy's result shape.
		values[pkey] = pkValue
		next.Where = sqlgen.Where{sqlgen.Eq(pkey, pkValue)}
		return e.Update(ctx, table, next)
	}
	debug.Debug("emulated upsert: key not found, inserting", "table", table, "key", pkValue)
	values[pkey] = pkValue
	return e.Insert(ctx, table, next)
}
