package sqlgen

import (
	"fmt"
	"sort"
	"strings"
)

// Join represents a JOIN clause. The target joins with USING on a single
// column, or with ON over column-equality pairs; exactly one must be set.
type Join struct {
	Type  string            // "inner", "left" or "right"; "" means inner
	Table string            // table name, optionally with an alias ("author a")
	Using string            // join column for JOIN ... USING (col)
	On    map[string]string // left column → right column, AND-joined with "="
}

// compileJoin emits one JOIN clause. The Using column is expected to be
// resolved by the caller (e.g. from the joined table's primary key) before
// compilation; sqlgen itself performs no introspection.
func compileJoin(j Join) (string, error) {
	joinType := strings.ToUpper(strings.TrimSpace(j.Type))
	switch joinType {
	case "":
		joinType = "INNER"
	case "INNER", "LEFT", "RIGHT":
	default:
		return "", fmt.Errorf("%w: unknown join type %q", ErrInvalidJoin, j.Type)
	}

	if j.Table == "" {
		return "", fmt.Errorf("%w: missing table", ErrInvalidJoin)
	}

	if len(j.On) > 0 {
		// Sort pairs for deterministic output.
		lefts := make([]string, 0, len(j.On))
		for left := range j.On {
			lefts = append(lefts, left)
		}
		sort.Strings(lefts)
		pairs := make([]string, len(lefts))
		for i, left := range lefts {
			pairs[i] = fmt.Sprintf("%s = %s", left, j.On[left])
		}
		return fmt.Sprintf("%s JOIN %s ON %s", joinType, j.Table, strings.Join(pairs, " AND ")), nil
	}

	if j.Using != "" {
		return fmt.Sprintf("%s JOIN %s USING (%s)", joinType, j.Table, j.Using), nil
	}

	return "", fmt.Errorf("%w: %s join on %s has neither Using nor On", ErrInvalidJoin, strings.ToLower(joinType), j.Table)
}
