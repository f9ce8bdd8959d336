package e2e

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cjauvin/little-pger/query/sqlgen"
	"github.com/cjauvin/little-pger/runtime/client"
)

// TestJoinOnPrimaryKey joins book to author without naming the join
// column; the author table's primary key is introspected and used
func (suite *TestSuite) TestJoinOnPrimaryKey() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	authorID, err := suite.pg.InsertID(ctx, "author", client.Params{
		Values: client.Record{"name": "petkovsek"},
	})
	require.NoError(t, err)

	_, err = suite.pg.Insert(ctx, "book", client.Params{
		Values: client.Record{"title": "A=B", "author_id": authorID},
	})
	require.NoError(t, err)
	_, err = suite.pg.Insert(ctx, "book", client.Params{
		Values: client.Record{"title": "orphan"},
	})
	require.NoError(t, err)

	// Inner join drops the orphan and merges both tables' columns.
	records, err := suite.pg.Select(ctx, "book", client.Params{
		Join: []sqlgen.Join{{Table: "author"}},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "A=B", records[0]["title"])
	require.Equal(t, "petkovsek", records[0]["name"])

	// Left join keeps it.
	records, err = suite.pg.Select(ctx, "book", client.Params{
		LeftJoin: []sqlgen.Join{{Table: "author"}},
		OrderBy:  []string{"book_id"},
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Nil(t, records[1]["name"])
}

// TestGroupedCount counts groups, not rows
func (suite *TestSuite) TestGroupedCount() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	for _, pages := range []int{100, 100, 200} {
		_, err := suite.pg.Insert(ctx, "book", client.Params{
			Values: client.Record{"title": "x", "n_pages": pages},
		})
		require.NoError(t, err)
	}

	n, err := suite.pg.Count(ctx, "book", client.Params{
		What:    []string{"n_pages"},
		GroupBy: []string{"n_pages"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
