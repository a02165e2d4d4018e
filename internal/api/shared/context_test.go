package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	traced := SetTraceID(ctx)
	traceID := GetTraceID(traced)
	assert.Len(t, traceID, 32)
	_, err := hex.DecodeString(traceID)
	assert.NoError(t, err)

	// The parent context is not modified.
	assert.Empty(t, GetTraceID(ctx))
}

func TestGetTraceIDWithWrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestSubjectRoundTrip(t *testing.T) {
	_, ok := GetSubject(context.Background())
	assert.False(t, ok)

	_, ok = GetSubject(WithSubject(context.Background(), ""))
	assert.False(t, ok, "empty subject is treated as missing")

	subject, ok := GetSubject(WithSubject(context.Background(), "lexictl"))
	require.True(t, ok)
	assert.Equal(t, "lexictl", subject)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("simulated rand failure")
}

func TestGenerateTraceID(t *testing.T) {
	t.Run("unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 500; i++ {
			id := generateTraceID(rand.Reader)
			require.Len(t, id, 32)
			require.False(t, seen[id], "duplicate trace ID %s", id)
			seen[id] = true
		}
	})

	fallbacks := map[string]io.Reader{
		"read error":   failingReader{},
		"partial read": io.LimitReader(rand.Reader, TraceIDLength/2),
	}
	for name, src := range fallbacks {
		t.Run(name, func(t *testing.T) {
			id := generateTraceID(src)
			assert.Len(t, id, 32)
			_, err := hex.DecodeString(id)
			assert.NoError(t, err)
		})
	}
}
