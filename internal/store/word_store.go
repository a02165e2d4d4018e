package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// WordStore defines the persistence operations on vocabulary words.
type WordStore interface {
	// Create saves a new word. Returns ErrDuplicate if the ID exists and
	// ErrInvalidEntity if the word fails validation.
	Create(ctx context.Context, word *domain.Word) error

	// GetByID retrieves a word by its ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error)

	// Update replaces a stored word. Returns ErrNotFound if absent.
	Update(ctx context.Context, word *domain.Word) error

	// List returns every word ordered by creation time.
	List(ctx context.Context) ([]*domain.Word, error)
}

// MemoryWordStore is a WordStore kept in process memory. Words are copied
// on the way in and out, so callers never share state with the store.
type MemoryWordStore struct {
	mu    sync.RWMutex
	words map[uuid.UUID]domain.Word
}

var _ WordStore = (*MemoryWordStore)(nil)

// NewMemoryWordStore returns an empty MemoryWordStore.
func NewMemoryWordStore() *MemoryWordStore {
	return &MemoryWordStore{words: make(map[uuid.UUID]domain.Word)}
}

// Create implements WordStore.
func (s *MemoryWordStore) Create(_ context.Context, word *domain.Word) error {
	if err := word.Validate(); err != nil {
		return NewStoreError("word", "create", "validation failed", errors.Join(ErrInvalidEntity, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[word.ID]; ok {
		return NewStoreError("word", "create", "word already exists", ErrDuplicate)
	}
	s.words[word.ID] = cloneWord(word)
	return nil
}

// GetByID implements WordStore.
func (s *MemoryWordStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	word, ok := s.words[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneWord(&word)
	return &out, nil
}

// Update implements WordStore.
func (s *MemoryWordStore) Update(_ context.Context, word *domain.Word) error {
	if err := word.Validate(); err != nil {
		return NewStoreError("word", "update", "validation failed", errors.Join(ErrInvalidEntity, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[word.ID]; !ok {
		return ErrNotFound
	}
	s.words[word.ID] = cloneWord(word)
	return nil
}

// List implements WordStore.
func (s *MemoryWordStore) List(_ context.Context) ([]*domain.Word, error) {
	s.mu.RLock()
	out := make([]*domain.Word, 0, len(s.words))
	for _, w := range s.words {
		c := cloneWord(&w)
		out = append(out, &c)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneWord(w *domain.Word) domain.Word {
	c := *w
	c.Translations = append([]string(nil), w.Translations...)
	c.Sentences = append([]string(nil), w.Sentences...)
	return c
}
