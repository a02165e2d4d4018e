package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/cache"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

const entity = "cache entry"

// CacheStore implements cache.Store using a PostgreSQL database as the
// storage backend.
type CacheStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ cache.Store = (*CacheStore)(nil)

// NewCacheStore creates a new PostgreSQL implementation of cache.Store.
// It accepts a database connection that should be initialized, migrated and
// managed by the caller. If logger is nil, a default logger will be used.
func NewCacheStore(db *sql.DB, logger *slog.Logger) *CacheStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheStore{
		db:     db,
		logger: logger.With(slog.String("component", "postgres_cache_store")),
	}
}

// Get implements cache.Store.
func (s *CacheStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	var entry cache.Entry
	err := s.db.QueryRowContext(ctx, `
		SELECT key, value, created_at, expires_at
		FROM generation_cache
		WHERE key = $1`,
		key,
	).Scan(&entry.Key, &entry.Value, &entry.CreatedAt, &entry.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, store.NewStoreError(entity, "get", "query failed", MapError(err))
	}
	return entry, true, nil
}

// Put implements cache.Store.
func (s *CacheStore) Put(ctx context.Context, entry cache.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_cache (key, value, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		entry.Key, entry.Value, entry.CreatedAt.UTC(), entry.ExpiresAt.UTC(),
	)
	if err != nil {
		return store.NewStoreError(entity, "put", "upsert failed", MapError(err))
	}
	return nil
}

// Count implements cache.Store.
func (s *CacheStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generation_cache`).Scan(&count); err != nil {
		return 0, store.NewStoreError(entity, "count", "query failed", MapError(err))
	}
	return count, nil
}

// DeleteOldest implements cache.Store. Victim rows are locked with
// FOR UPDATE SKIP LOCKED so that two processes sharing the table never
// evict the same rows twice.
func (s *CacheStore) DeleteOldest(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	var removed int
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM generation_cache
			WHERE key IN (
				SELECT key FROM generation_cache
				ORDER BY created_at, key
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)`, n)
		if err != nil {
			return MapError(err)
		}
		removed, err = store.RowsAffected(res)
		return err
	})
	if err != nil {
		return 0, store.NewStoreError(entity, "evict", "delete oldest failed", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("deleted oldest cache entries",
		slog.Int("requested", n),
		slog.Int("removed", removed))
	return removed, nil
}

// DeleteExpired implements cache.Store.
func (s *CacheStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM generation_cache WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, store.NewStoreError(entity, "sweep", "delete expired failed", MapError(err))
	}
	n, err := store.RowsAffected(res)
	if err != nil {
		return 0, fmt.Errorf("failed to count swept entries: %w", err)
	}
	return n, nil
}
