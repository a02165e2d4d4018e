package sqlite

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

// CacheStore implements cache.Store on a SQLite database. Timestamps are
// stored as Unix nanoseconds so ordering and comparisons are numeric.
type CacheStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ cache.Store = (*CacheStore)(nil)

// NewCacheStore returns a CacheStore over db. The schema must already be
// migrated. If logger is nil, a default logger will be used.
func NewCacheStore(db *sql.DB, logger *slog.Logger) *CacheStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_cache_store")),
	}
}

// Get implements cache.Store.
func (s *CacheStore) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	var (
		entry              cache.Entry
		created, expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT key, value, created_at, expires_at FROM generation_cache WHERE key = ?`,
		key,
	).Scan(&entry.Key, &entry.Value, &created, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, store.NewStoreError(entity, "get", "query failed", MapError(err))
	}

	entry.CreatedAt = time.Unix(0, created).UTC()
	entry.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return entry, true, nil
}

// Put implements cache.Store.
func (s *CacheStore) Put(ctx context.Context, entry cache.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_cache (key, value, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		entry.Key, entry.Value, entry.CreatedAt.UnixNano(), entry.ExpiresAt.UnixNano(),
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

// DeleteOldest implements cache.Store. The victims are selected and removed
// in one transaction.
func (s *CacheStore) DeleteOldest(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	var removed int
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		keys, err := oldestKeys(ctx, tx, n)
		if err != nil {
			return err
		}
		for _, key := range keys {
			res, err := tx.ExecContext(ctx, `DELETE FROM generation_cache WHERE key = ?`, key)
			if err != nil {
				return MapError(err)
			}
			affected, err := store.RowsAffected(res)
			if err != nil {
				return err
			}
			removed += affected
		}
		return nil
	})
	if err != nil {
		return 0, store.NewStoreError(entity, "evict", "delete oldest failed", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("deleted oldest cache entries",
		slog.Int("requested", n),
		slog.Int("removed", removed))
	return removed, nil
}

func oldestKeys(ctx context.Context, tx *sql.Tx, n int) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT key FROM generation_cache ORDER BY created_at, key LIMIT ?`, n)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]string, 0, n)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan cache key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// DeleteExpired implements cache.Store.
func (s *CacheStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM generation_cache WHERE expires_at < ?`, before.UnixNano())
	if err != nil {
		return 0, store.NewStoreError(entity, "sweep", "delete expired failed", MapError(err))
	}
	return store.RowsAffected(res)
}
