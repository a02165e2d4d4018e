package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/redact"
)

// ErrInvalidConfig is returned by NewResultCache for unusable arguments.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// Entry is one cached value.
type Entry struct {
	Key       string
	Value     []byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the entry may be served at now.
func (e Entry) Live(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Store persists cache entries. Implementations need not enforce expiry or
// size limits; ResultCache does both and calls mutating methods under its
// own lock.
type Store interface {
	// Get returns the entry for key regardless of its expiry.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Put inserts or replaces the entry with the same key.
	Put(ctx context.Context, entry Entry) error

	// Count returns the number of stored entries, expired ones included.
	Count(ctx context.Context) (int, error)

	// DeleteOldest removes the n entries with the earliest CreatedAt and
	// returns how many were removed.
	DeleteOldest(ctx context.Context, n int) (int, error)

	// DeleteExpired removes every entry whose ExpiresAt is before the given
	// time and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// ResultCache is a TTL and size bounded cache over a Store.
type ResultCache struct {
	store      Store
	maxEntries int
	now        func() time.Time
	logger     *slog.Logger

	// mu serializes Store and SweepExpired so the size bound holds under
	// concurrent writers.
	mu sync.Mutex
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock replaces time.Now. Tests use it to move time deterministically.
func WithClock(now func() time.Time) Option {
	return func(c *ResultCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *ResultCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewResultCache returns a cache holding at most maxEntries entries in store.
func NewResultCache(store Store, maxEntries int, opts ...Option) (*ResultCache, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store cannot be nil", ErrInvalidConfig)
	}
	if maxEntries < 1 {
		return nil, fmt.Errorf("%w: max entries must be positive, got %d", ErrInvalidConfig, maxEntries)
	}

	c := &ResultCache{
		store:      store,
		maxEntries: maxEntries,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "result_cache"))

	return c, nil
}

// MaxEntries returns the configured size bound.
func (c *ResultCache) MaxEntries() int {
	return c.maxEntries
}

// Lookup returns the value and expiry stored under key if the entry exists
// and has not expired. Expired entries are reported as absent but left in
// place for SweepExpired. Store failures are logged and reported as a miss.
func (c *ResultCache) Lookup(ctx context.Context, key string) ([]byte, time.Time, bool) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		log.Warn("cache lookup failed, treating as miss",
			slog.String("key", key),
			slog.String("error", redact.Error(err)))
		return nil, time.Time{}, false
	}
	if !found {
		log.Debug("cache miss", slog.String("key", key))
		return nil, time.Time{}, false
	}
	if !entry.Live(c.now()) {
		log.Debug("cache entry expired",
			slog.String("key", key),
			slog.Time("expires_at", entry.ExpiresAt))
		return nil, time.Time{}, false
	}

	log.Debug("cache hit", slog.String("key", key))
	return entry.Value, entry.ExpiresAt, true
}

// Store saves value under key with an expiry of now+ttl. When key is new and
// the cache is full, the oldest EvictionCount(count) entries are removed
// first. Replacing an existing key never evicts.
func (c *ResultCache) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive, got %s", ErrInvalidConfig, ttl)
	}

	log := logger.FromContextOrDefault(ctx, c.logger)

	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists, err := c.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check existing cache entry: %w", err)
	}

	if !exists {
		count, err := c.store.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count cache entries: %w", err)
		}
		if count >= c.maxEntries {
			n := EvictionCount(count)
			removed, err := c.store.DeleteOldest(ctx, n)
			if err != nil {
				return fmt.Errorf("failed to evict cache entries: %w", err)
			}
			log.Debug("evicted oldest cache entries",
				slog.Int("requested", n),
				slog.Int("removed", removed),
				slog.Int("count", count))
		}
	}

	now := c.now()
	entry := Entry{
		Key:       key,
		Value:     append([]byte(nil), value...),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := c.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	return nil
}

// SweepExpired removes every entry that expired before now and returns the
// number removed.
func (c *ResultCache) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.store.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired cache entries: %w", err)
	}

	logger.FromContextOrDefault(ctx, c.logger).Info("swept expired cache entries",
		slog.Int("removed", removed))
	return removed, nil
}

// Count returns the number of stored entries, expired ones included.
func (c *ResultCache) Count(ctx context.Context) (int, error) {
	count, err := c.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// EvictionCount is the number of entries removed to make room in a full
// cache of the given size: a tenth, rounded up, and at least one.
func EvictionCount(count int) int {
	n := (count + 9) / 10
	if n < 1 {
		return 1
	}
	return n
}
