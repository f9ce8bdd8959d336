package sqlgen

import "errors"

var (
	// ErrInvalidOperator is returned when a predicate operator is outside the whitelist.
	ErrInvalidOperator = errors.New("invalid comparison operator")
	// ErrNullComparison is returned when a nil value is compared with an
	// operator other than = or <>.
	ErrNullComparison = errors.New("null value requires = or <> operator")
	// ErrEmptySet is returned when an UPDATE has nothing to set.
	ErrEmptySet = errors.New("update with empty set clause")
	// ErrNoColumns is returned when a mutating statement has mismatched or
	// missing column/value lists.
	ErrNoColumns = errors.New("no columns to write")
	// ErrInvalidJoin is returned for a malformed join descriptor.
	ErrInvalidJoin = errors.New("invalid join descriptor")
	// ErrUnsupportedDialect is returned when a feature has no equivalent on
	// the target database (e.g. array equality outside PostgreSQL).
	ErrUnsupportedDialect = errors.New("feature not supported by dialect")
)
