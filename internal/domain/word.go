package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// WordStatus represents the enrichment state of a word.
type WordStatus string

// Possible word status values
const (
	WordStatusPending  WordStatus = "pending"
	WordStatusEnriched WordStatus = "enriched"
	WordStatusFailed   WordStatus = "failed"
)

// Word is a vocabulary entry in a learner's list. Translations and Sentences
// are filled in by enrichment.
type Word struct {
	ID         uuid.UUID `json:"id"`
	Text       string    `json:"text"`
	Definition string    `json:"definition,omitempty"`
	SourceLang string    `json:"source_lang"`
	TargetLang string    `json:"target_lang"`

	Translations []string   `json:"translations,omitempty"`
	Sentences    []string   `json:"sentences,omitempty"`
	Status       WordStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWord creates a pending Word with a fresh ID.
// Returns an error if validation fails.
func NewWord(text, sourceLang, targetLang string) (*Word, error) {
	now := time.Now().UTC()
	word := &Word{
		ID:         uuid.New(),
		Text:       strings.TrimSpace(text),
		SourceLang: strings.TrimSpace(sourceLang),
		TargetLang: strings.TrimSpace(targetLang),
		Status:     WordStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := word.Validate(); err != nil {
		return nil, err
	}

	return word, nil
}

// Validate checks if the Word has valid data.
func (w *Word) Validate() error {
	if w.ID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyWordID)
	}
	if strings.TrimSpace(w.Text) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyWordText)
	}
	if w.SourceLang == "" || w.TargetLang == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMissingLanguage)
	}
	if !isValidWordStatus(w.Status) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidWordStatus)
	}
	return nil
}

// SetTranslations replaces the translations and marks the word enriched.
func (w *Word) SetTranslations(translations []string) {
	w.Translations = append([]string(nil), translations...)
	w.markEnriched()
}

// SetSentences replaces the example sentences and marks the word enriched.
func (w *Word) SetSentences(sentences []string) {
	w.Sentences = append([]string(nil), sentences...)
	w.markEnriched()
}

// UpdateStatus updates the word's status and its UpdatedAt timestamp.
func (w *Word) UpdateStatus(status WordStatus) error {
	if !isValidWordStatus(status) {
		return ErrInvalidWordStatus
	}

	w.Status = status
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (w *Word) markEnriched() {
	w.Status = WordStatusEnriched
	w.UpdatedAt = time.Now().UTC()
}

func isValidWordStatus(status WordStatus) bool {
	switch status {
	case WordStatusPending, WordStatusEnriched, WordStatusFailed:
		return true
	default:
		return false
	}
}
