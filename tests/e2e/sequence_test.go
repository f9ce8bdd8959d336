package e2e

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cjauvin/little-pger/query/sqlgen"
	"github.com/cjauvin/little-pger/runtime/client"
)

// TestDeleteTightensSequence deletes the last row and checks that the key
// it freed is reassigned to the next insert. PostgreSQL only.
func (suite *TestSuite) TestDeleteTightensSequence() {
	if suite.config.Provider != "postgres" {
		suite.T().Skip("sequences are a PostgreSQL feature")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	var ids []interface{}
	for _, title := range []string{"first", "second", "third"} {
		id, err := suite.pg.InsertID(ctx, "book", client.Params{
			Values: client.Record{"title": title},
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	err := suite.pg.Delete(ctx, "book", client.Params{
		Where:           sqlgen.Where{sqlgen.Eq("book_id", ids[2])},
		TightenSequence: true,
	})
	require.NoError(t, err)

	// The freed key comes right back.
	id, err := suite.pg.InsertID(ctx, "book", client.Params{
		Values: client.Record{"title": "third again"},
	})
	require.NoError(t, err)
	require.Equal(t, ids[2], id)
}

// TestSequenceBookkeeping reads the sequence cursor around an insert
func (suite *TestSuite) TestSequenceBookkeeping() {
	if suite.config.Provider != "postgres" {
		suite.T().Skip("sequences are a PostgreSQL feature")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t := suite.T()

	id, err := suite.pg.InsertID(ctx, "book", client.Params{
		Values: client.Record{"title": "PI"},
	})
	require.NoError(t, err)

	current, err := suite.pg.CurrentPrimaryKeyValue(ctx, "book", "")
	require.NoError(t, err)
	require.EqualValues(t, id, current)

	next, err := suite.pg.NextPrimaryKeyValue(ctx, "book", "")
	require.NoError(t, err)
	require.Equal(t, current+1, next)
}
