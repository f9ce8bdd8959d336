package e2e

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cjauvin/little-pger/runtime/client"
)

// TestUpsertCreatesThenUpdates upserts twice with the same key: the first
// call creates the row, the second modifies it in place
func (suite *TestSuite) TestUpsertCreatesThenUpdates() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	created, err := suite.pg.Upsert(ctx, "book", client.Params{
		Values: client.Record{"book_id": 1, "title": "PI", "n_pages": 300},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, created["book_id"])

	updated, err := suite.pg.Upsert(ctx, "book", client.Params{
		Values: client.Record{"book_id": 1, "title": "PI, 2nd ed", "n_pages": 330},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, updated["book_id"])
	require.Equal(t, "PI, 2nd ed", updated["title"])

	n, err := suite.pg.Count(ctx, "book", client.Params{})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

// TestUpsertWithoutKeyInserts upserts a record carrying no key value and
// gets a fresh row each time
func (suite *TestSuite) TestUpsertWithoutKeyInserts() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	first, err := suite.pg.Upsert(ctx, "book", client.Params{
		Values: client.Record{"title": "PI"},
	})
	require.NoError(t, err)

	second, err := suite.pg.Upsert(ctx, "book", client.Params{
		Values: client.Record{"title": "PI"},
	})
	require.NoError(t, err)
	require.NotEqual(t, first["book_id"], second["book_id"])
}

// TestUpsertID returns the key of the affected row either way
func (suite *TestSuite) TestUpsertID() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	id, err := suite.pg.UpsertID(ctx, "book", client.Params{
		Values: client.Record{"book_id": 7, "title": "PI"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, id)

	id, err = suite.pg.UpsertID(ctx, "book", client.Params{
		Values: client.Record{"book_id": 7, "title": "PI v2"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 7, id)
}
