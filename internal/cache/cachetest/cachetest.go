// Package cachetest holds helpers shared by the tests of cache.Store
// implementations.
package cachetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// RunStoreTests exercises the cache.Store contract against stores returned
// by newStore. Each subtest gets a fresh, empty store.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) cache.Store) {
	t.Helper()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entryAt := func(key string, created time.Time, ttl time.Duration) cache.Entry {
		return cache.Entry{
			Key:       key,
			Value:     []byte(`{"items":[{"text":"` + key + `"}]}`),
			CreatedAt: created,
			ExpiresAt: created.Add(ttl),
		}
	}

	t.Run("PutGet", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		_, found, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)

		want := entryAt("hund", base, time.Hour)
		require.NoError(t, s.Put(ctx, want))

		got, found, err := s.Get(ctx, "hund")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, want.Key, got.Key)
		assert.Equal(t, want.Value, got.Value)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at round trip")
		assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt), "expires_at round trip")
	})

	t.Run("PutReplaces", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Put(ctx, entryAt("katze", base, time.Hour)))
		replacement := entryAt("katze", base.Add(time.Minute), 2*time.Hour)
		replacement.Value = []byte(`{"items":[]}`)
		require.NoError(t, s.Put(ctx, replacement))

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		got, found, err := s.Get(ctx, "katze")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, replacement.Value, got.Value)
		assert.True(t, replacement.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("DeleteOldest", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		for i := 0; i < 5; i++ {
			key := fmt.Sprintf("word-%d", i)
			require.NoError(t, s.Put(ctx, entryAt(key, base.Add(time.Duration(i)*time.Second), time.Hour)))
		}

		removed, err := s.DeleteOldest(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)

		for i := 0; i < 5; i++ {
			_, found, err := s.Get(ctx, fmt.Sprintf("word-%d", i))
			require.NoError(t, err)
			assert.Equal(t, i >= 2, found, "word-%d", i)
		}

		removed, err = s.DeleteOldest(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, removed)

		removed, err = s.DeleteOldest(ctx, 0)
		require.NoError(t, err)
		assert.Zero(t, removed)
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		require.NoError(t, s.Put(ctx, entryAt("old", base, time.Minute)))
		require.NoError(t, s.Put(ctx, entryAt("edge", base, time.Hour)))
		require.NoError(t, s.Put(ctx, entryAt("fresh", base, 24*time.Hour)))

		removed, err := s.DeleteExpired(ctx, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, removed, "only entries expiring strictly before the cutoff go")

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
