package e2e

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/cjauvin/little-pger/runtime/client"
)

// TestConfig holds configuration for E2E tests
type TestConfig struct {
	Provider    string
	DatabaseURL string
}

// TestSuite exercises the full client against a live database
type TestSuite struct {
	suite.Suite
	config *TestConfig
	pg     *client.Client
}

// getTestConfigs returns all supported database providers for testing
func getTestConfigs() []TestConfig {
	return []TestConfig{
		{
			Provider:    "postgres",
			DatabaseURL: os.Getenv("POSTGRES_TEST_URL"),
		},
		{
			Provider:    "sqlite",
			DatabaseURL: os.Getenv("SQLITE_TEST_URL"),
		},
	}
}

// SetupSuite runs once per test suite
func (suite *TestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := client.New(suite.config.Provider, suite.config.DatabaseURL)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), c.Connect(ctx))
	suite.pg = c

	suite.createTestTables(ctx)
}

// SetupTest clears test data so each test starts clean
func (suite *TestSuite) SetupTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range []string{"book", "author"} {
		require.NoError(suite.T(), suite.pg.Delete(ctx, table, client.Params{}))
	}
	if suite.config.Provider == "postgres" {
		require.NoError(suite.T(), suite.pg.TightenSequence(ctx, "book"))
		require.NoError(suite.T(), suite.pg.TightenSequence(ctx, "author"))
	}
}

// TearDownSuite runs once per test suite
func (suite *TestSuite) TearDownSuite() {
	if suite.pg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	suite.dropTestTables(ctx)
	suite.pg.Close()
}

func (suite *TestSuite) createTestTables(ctx context.Context) {
	serial := "serial"
	if suite.config.Provider == "sqlite" {
		serial = "integer"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS author (
			author_id %s PRIMARY KEY,
			name text
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS book (
			book_id %s PRIMARY KEY,
			author_id integer,
			title text,
			n_pages integer
		)`, serial),
	}
	for _, stmt := range statements {
		_, err := suite.pg.DB().ExecContext(ctx, stmt)
		require.NoError(suite.T(), err)
	}
}

func (suite *TestSuite) dropTestTables(ctx context.Context) {
	for _, table := range []string{"book", "author"} {
		if _, err := suite.pg.DB().ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			suite.T().Logf("Could not drop %s: %v", table, err)
		}
	}
}

// TestE2ESuite runs the E2E suite against every configured provider. A
// .env file can supply the connection URLs; providers without one are
// skipped.
func TestE2ESuite(t *testing.T) {
	_ = godotenv.Load()

	for _, config := range getTestConfigs() {
		if config.DatabaseURL == "" {
			t.Logf("Skipping %s tests: %s_TEST_URL not provided",
				config.Provider, strings.ToUpper(config.Provider))
			continue
		}

		config := config
		t.Run(fmt.Sprintf("E2E_%s", config.Provider), func(t *testing.T) {
			suite.Run(t, &TestSuite{config: &config})
		})
	}
}
