package sqlgen

import (
	"fmt"

	"github.com/lib/pq"
)

// dialect groups the provider-specific pieces the statement builders are
// parameterized on: placeholder style, array adaptation and feature flags.
type dialect struct {
	name            string
	placeholder     func(n int) string
	arrayWrap       func(v interface{}) (interface{}, error)
	nativeUpsert    bool
	returningClause bool
	defaultValues   bool // supports INSERT INTO t DEFAULT VALUES
}

var postgresDialect = &dialect{
	name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	arrayWrap: func(v interface{}) (interface{}, error) {
		return pq.Array(v), nil
	},
	nativeUpsert:    true,
	returningClause: true,
	defaultValues:   true,
}

var mysqlDialect = &dialect{
	name:        "mysql",
	placeholder: func(n int) string { return "?" },
	arrayWrap: func(v interface{}) (interface{}, error) {
		return nil, fmt.Errorf("%w: mysql has no array columns", ErrUnsupportedDialect)
	},
	nativeUpsert:    true, // via ON DUPLICATE KEY UPDATE
	returningClause: false,
	defaultValues:   false, // uses INSERT INTO t () VALUES ()
}

var sqliteDialect = &dialect{
	name:        "sqlite",
	placeholder: func(n int) string { return "?" },
	arrayWrap: func(v interface{}) (interface{}, error) {
		return nil, fmt.Errorf("%w: sqlite has no array columns", ErrUnsupportedDialect)
	},
	nativeUpsert:    true, // via ON CONFLICT ... DO UPDATE
	returningClause: false,
	defaultValues:   true,
}
