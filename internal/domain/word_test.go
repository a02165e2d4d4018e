package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWord(t *testing.T) {
	word, err := NewWord("  Hund ", "de", "en")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, word.ID)
	assert.Equal(t, "Hund", word.Text)
	assert.Equal(t, WordStatusPending, word.Status)
	assert.False(t, word.CreatedAt.IsZero())
	assert.Equal(t, word.CreatedAt, word.UpdatedAt)
}

func TestWordValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *Word)
		wantErr error
	}{
		{name: "valid", mutate: func(*Word) {}},
		{name: "nil id", mutate: func(w *Word) { w.ID = uuid.Nil }, wantErr: ErrEmptyWordID},
		{name: "blank text", mutate: func(w *Word) { w.Text = "  " }, wantErr: ErrEmptyWordText},
		{name: "missing target", mutate: func(w *Word) { w.TargetLang = "" }, wantErr: ErrMissingLanguage},
		{name: "bad status", mutate: func(w *Word) { w.Status = "archived" }, wantErr: ErrInvalidWordStatus},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			word, err := NewWord("Katze", "de", "en")
			require.NoError(t, err)
			tc.mutate(word)

			err = word.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := NewWord("", "de", "en")
	assert.ErrorIs(t, err, ErrEmptyWordText)
}

func TestWordEnrichment(t *testing.T) {
	word, err := NewWord("Hund", "de", "en")
	require.NoError(t, err)

	translations := []string{"dog", "hound"}
	word.SetTranslations(translations)
	translations[0] = "cat"

	assert.Equal(t, []string{"dog", "hound"}, word.Translations, "the word keeps its own copy")
	assert.Equal(t, WordStatusEnriched, word.Status)

	word.SetSentences([]string{"Der Hund bellt."})
	assert.Len(t, word.Sentences, 1)

	require.NoError(t, word.UpdateStatus(WordStatusFailed))
	assert.Equal(t, WordStatusFailed, word.Status)
	assert.ErrorIs(t, word.UpdateStatus("unknown"), ErrInvalidWordStatus)
}
