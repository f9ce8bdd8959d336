package executor

import "database/sql"

// WithTx returns a copy of the executor bound to the transaction. The
// schema snapshot cache is shared with the parent, so tables introspected
// inside the transaction stay warm after it ends.
func (e *Executor) WithTx(tx *sql.Tx) *Executor {
	bound := *e
	bound.q = tx
	return &bound
}
