package cache

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore is an in-process Store backed by go-cache. Native expiration
// is disabled; ResultCache decides what is live.
type MemoryStore struct {
	items *gocache.Cache
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: gocache.New(gocache.NoExpiration, 0)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	entry := v.(Entry)
	entry.Value = append([]byte(nil), entry.Value...)
	return entry, true, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, entry Entry) error {
	entry.Value = append([]byte(nil), entry.Value...)
	s.items.Set(entry.Key, entry, gocache.NoExpiration)
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	return s.items.ItemCount(), nil
}

// DeleteOldest implements Store. Ties on CreatedAt are broken by key.
func (s *MemoryStore) DeleteOldest(_ context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}

	entries := s.entries()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	if n > len(entries) {
		n = len(entries)
	}
	for _, entry := range entries[:n] {
		s.items.Delete(entry.Key)
	}
	return n, nil
}

// DeleteExpired implements Store.
func (s *MemoryStore) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	removed := 0
	for _, entry := range s.entries() {
		if entry.ExpiresAt.Before(before) {
			s.items.Delete(entry.Key)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) entries() []Entry {
	items := s.items.Items()
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, item.Object.(Entry))
	}
	return entries
}
