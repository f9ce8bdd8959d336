package e2e

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cjauvin/little-pger/query/sqlgen"
	"github.com/cjauvin/little-pger/runtime/client"
)

// TestCRUDRoundTrip inserts, reads back, updates and deletes one record
func (suite *TestSuite) TestCRUDRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	created, err := suite.pg.Insert(ctx, "book", client.Params{
		Values: client.Record{"title": "PI", "n_pages": 300},
	})
	require.NoError(t, err)
	require.NotNil(t, created["book_id"])

	fetched, err := suite.pg.SelectOne(ctx, "book", client.Params{
		Where: sqlgen.Where{sqlgen.Eq("title", "PI")},
	})
	require.NoError(t, err)
	require.Equal(t, created["book_id"], fetched["book_id"])

	updated, err := suite.pg.Update(ctx, "book", client.Params{
		Set:   client.Record{"n_pages": 350},
		Where: sqlgen.Where{sqlgen.Eq("book_id", created["book_id"])},
	})
	require.NoError(t, err)
	if updated != nil { // RETURNING providers hand the row back
		require.EqualValues(t, 350, updated["n_pages"])
	}

	n, err := suite.pg.Count(ctx, "book", client.Params{})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	require.NoError(t, suite.pg.Delete(ctx, "book", client.Params{
		Where: sqlgen.Where{sqlgen.Eq("book_id", created["book_id"])},
	}))

	found, err := suite.pg.Exists(ctx, "book", client.Params{
		Where: sqlgen.Where{sqlgen.Eq("book_id", created["book_id"])},
	})
	require.NoError(t, err)
	require.False(t, found)
}

// TestWhereShapes exercises the value shape classification end to end
func (suite *TestSuite) TestWhereShapes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	for _, title := range []string{"PI", "SICP", "TAOCP"} {
		_, err := suite.pg.Insert(ctx, "book", client.Params{
			Values: client.Record{"title": title, "n_pages": 100 * len(title)},
		})
		require.NoError(t, err)
	}

	// Membership list
	records, err := suite.pg.Select(ctx, "book", client.Params{
		Where: sqlgen.Where{sqlgen.Eq("title", sqlgen.In("PI", "SICP"))},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Conjunction set over one column
	records, err = suite.pg.Select(ctx, "book", client.Params{
		Where: sqlgen.Where{
			sqlgen.C("n_pages", ">", sqlgen.All(100, 200)),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 2) // SICP (400) and TAOCP (500)

	// Disjunctive group
	records, err = suite.pg.Select(ctx, "book", client.Params{
		WhereOr: sqlgen.Where{
			sqlgen.Eq("title", "PI"),
			sqlgen.Eq("title", "TAOCP"),
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Pattern matching with a transform
	records, err = suite.pg.Select(ctx, "book", client.Params{
		Where: sqlgen.Where{
			{Field: "title", Operator: "like", Transform: "upper", Value: "%I%"},
		},
	})
	require.NoError(t, err)
	require.Len(t, records, 2) // PI and SICP
}

// TestSelectOneTooManyRows checks that multiple matches are refused
func (suite *TestSuite) TestSelectOneTooManyRows() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	for i := 0; i < 2; i++ {
		_, err := suite.pg.Insert(ctx, "book", client.Params{
			Values: client.Record{"title": "dup"},
		})
		require.NoError(t, err)
	}

	_, err := suite.pg.SelectOne(ctx, "book", client.Params{
		Where: sqlgen.Where{sqlgen.Eq("title", "dup")},
	})
	require.Error(t, err)
}

// TestFilterValues drops keys that are not table columns
func (suite *TestSuite) TestFilterValues() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	record, err := suite.pg.Insert(ctx, "book", client.Params{
		Values:       client.Record{"title": "PI", "stray_field": true},
		FilterValues: true,
	})
	require.NoError(t, err)
	require.Equal(t, "PI", record["title"])
}

// TestTransactionRollback verifies nothing leaks out of a failed transaction
func (suite *TestSuite) TestTransactionRollback() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	err := suite.pg.Transaction(ctx, func(tx *client.Client) error {
		if _, err := tx.Insert(ctx, "book", client.Params{
			Values: client.Record{"title": "doomed"},
		}); err != nil {
			return err
		}
		return context.Canceled // any error rolls back
	})
	require.Error(t, err)

	found, err := suite.pg.Exists(ctx, "book", client.Params{
		Where: sqlgen.Where{sqlgen.Eq("title", "doomed")},
	})
	require.NoError(t, err)
	require.False(t, found)
}
