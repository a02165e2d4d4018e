package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/phrazzld/scry-lexicon/internal/cache"
	"github.com/phrazzld/scry-lexicon/internal/cache/cachetest"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/platform/sqlite"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log, _ := logger.NewTestLogger(t)
	require.NoError(t, sqlite.Migrate(context.Background(), db, store.MigrateUp, log))
	return db
}

func TestCacheStore(t *testing.T) {
	cachetest.RunStoreTests(t, func(t *testing.T) cache.Store {
		log, _ := logger.NewTestLogger(t)
		return sqlite.NewCacheStore(openMigrated(t), log)
	})
}

// TestResultCacheOverSQLite runs the eviction scenario against the SQLite
// backend end to end.
func TestResultCacheOverSQLite(t *testing.T) {
	ctx := context.Background()
	clock := cachetest.NewClock(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	c, err := cache.NewResultCache(sqlite.NewCacheStore(openMigrated(t), nil), 20, cache.WithClock(clock.Now))
	require.NoError(t, err)

	for i := 0; i < 21; i++ {
		require.NoError(t, c.Store(ctx, fmt.Sprintf("k%02d", i), []byte("v"), time.Hour))
		clock.Advance(time.Millisecond)
	}

	count, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 19, count, "two of twenty entries are evicted before the 21st insert")

	_, _, ok := c.Lookup(ctx, "k00")
	assert.False(t, ok)
	_, _, ok = c.Lookup(ctx, "k02")
	assert.True(t, ok)
}

func TestMigrateDownAndStatus(t *testing.T) {
	ctx := context.Background()
	db := openMigrated(t)
	log, buf := logger.NewTestLogger(t)

	require.NoError(t, sqlite.Migrate(ctx, db, store.MigrateStatus, log))
	require.NoError(t, sqlite.Migrate(ctx, db, store.MigrateDown, log))
	logger.AssertLogContains(t, buf, "migration command executed successfully")

	_, err := sqlite.NewCacheStore(db, log).Count(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrSchema)

	err = sqlite.Migrate(ctx, db, "sideways", log)
	assert.ErrorContains(t, err, "unknown migration command")
}

func TestMapError(t *testing.T) {
	plain := errors.New("plain")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "busy", err: sqlite3.Error{Code: sqlite3.ErrBusy}, want: store.ErrUnavailable},
		{name: "locked", err: sqlite3.Error{Code: sqlite3.ErrLocked}, want: store.ErrUnavailable},
		{
			name: "unique",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			want: store.ErrDuplicate,
		},
		{
			name: "not null",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull},
			want: store.ErrInvalidEntity,
		},
		{name: "other", err: plain, want: plain},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, sqlite.MapError(tc.err), tc.want)
		})
	}

	assert.NoError(t, sqlite.MapError(nil))
}
