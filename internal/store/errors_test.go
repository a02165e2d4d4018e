package store

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreError(t *testing.T) {
	originalErr := errors.New("database connection failed")
	storeErr := NewStoreError("cache entry", "put", "database error", originalErr)

	assert.Equal(t,
		"put operation on cache entry failed: database error: database connection failed",
		storeErr.Error())
	assert.ErrorIs(t, storeErr, originalErr)

	bare := NewStoreError("cache entry", "evict", "nothing to evict", nil)
	assert.Equal(t, "evict operation on cache entry failed: nothing to evict", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestRowsAffected(t *testing.T) {
	n, err := RowsAffected(sqlmock.NewResult(0, 7))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = RowsAffected(sqlmock.NewErrorResult(errors.New("unsupported")))
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "count affected rows", storeErr.Operation)
}
