package executor

import (
	"context"
	"fmt"
	"reflect"
)

// FilterValues returns a copy of values holding only keys that are actual
// columns of the table. It never adds keys and is idempotent.
func (e *Executor) FilterValues(ctx context.Context, table string, values Record) (Record, error) {
	info, err := e.cache.TableInfo(ctx, table)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(info.Columns))
	for _, col := range info.Columns {
		known[col] = true
	}

	filtered := make(Record, len(values))
	for col, v := range values {
		if known[col] {
			filtered[col] = v
		}
	}
	return filtered, nil
}

// MapValues returns a copy of values where each value present as a key in
// mapping is replaced by its mapped counterpart; everything else passes
// through unchanged. Values that cannot be used as map keys (slices,
// maps) always pass through.
func MapValues(values Record, mapping map[interface{}]interface{}) Record {
	mapped := make(Record, len(values))
	for col, v := range values {
		if v != nil && !reflect.TypeOf(v).Comparable() {
			mapped[col] = v
			continue
		}
		if replacement, ok := mapping[v]; ok {
			mapped[col] = replacement
		} else {
			mapped[col] = v
		}
	}
	return mapped
}

// ExtractID pulls the primary key value out of a record. The column is
// pkey when given, else the table's introspected primary key, else
// "<table>_id". A record without the resolved column fails with
// ErrMissingPrimaryKey.
func (e *Executor) ExtractID(ctx context.Context, record Record, table, pkey string) (interface{}, error) {
	resolved, err := e.primaryKey(ctx, table, pkey)
	if err != nil {
		return nil, err
	}

	id, ok := record[resolved]
	if !ok {
		return nil, fmt.Errorf("%w: no %s in record from %s", ErrMissingPrimaryKey, resolved, table)
	}
	return id, nil
}

// primaryKey resolves the primary key column name: explicit override
// first, then the introspected key, then the <table>_id convention.
func (e *Executor) primaryKey(ctx context.Context, table, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	info, err := e.cache.TableInfo(ctx, table)
	if err != nil {
		return "", err
	}
	if info.PrimaryKey != "" {
		return info.PrimaryKey, nil
	}
	return table + "_id", nil
}

// prepareValues applies the FilterValues/MapValues adapters to the
// descriptor's values before compilation.
func (e *Executor) prepareValues(ctx context.Context, table string, p *Params) (Record, error) {
	values := p.values()
	if p.FilterValues {
		filtered, err := e.FilterValues(ctx, table, values)
		if err != nil {
			return nil, err
		}
		values = filtered
	}
	if len(p.MapValues) > 0 {
		values = MapValues(values, p.MapValues)
	}
	return values, nil
}
