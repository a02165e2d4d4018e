package postgres_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/phrazzld/scry-lexicon/internal/cache"
	"github.com/phrazzld/scry-lexicon/internal/cache/cachetest"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/platform/postgres"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"github.com/stretchr/testify/require"
)

// testDatabaseURLEnv names the variable that enables the integration tests.
const testDatabaseURLEnv = "LEXICON_TEST_DATABASE_URL"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(testDatabaseURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping PostgreSQL integration test", testDatabaseURLEnv)
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewTestLogger(t)
	require.NoError(t, postgres.Migrate(ctx, db, store.MigrateUp, log))
	return db
}

func TestCacheStoreIntegration(t *testing.T) {
	db := openTestDB(t)

	cachetest.RunStoreTests(t, func(t *testing.T) cache.Store {
		_, err := db.ExecContext(context.Background(), `TRUNCATE generation_cache`)
		require.NoError(t, err)
		return postgres.NewCacheStore(db, nil)
	})
}
