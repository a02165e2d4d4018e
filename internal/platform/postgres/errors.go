package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode    = "23505"
	checkViolationCode     = "23514"
	notNullViolationCode   = "23502"
	undefinedTableCode     = "42P01"
	serializationFailure   = "40001"
	deadlockDetectedCode   = "40P01"
	lockNotAvailableCode   = "55P03"
	tooManyConnectionsCode = "53300"
	adminShutdownCode      = "57P01"
	cannotConnectNowCode   = "57P03"
)

// MapError maps a database error to the store package's errors, wrapping the
// original so it remains inspectable. Unmapped errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}

	switch pgErr.Code {
	case checkViolationCode:
		return fmt.Errorf(
			"%w: check constraint violation (%s): %v",
			store.ErrInvalidEntity,
			pgErr.ConstraintName,
			err,
		)
	case notNullViolationCode:
		return fmt.Errorf(
			"%w: not null violation (%s): %v",
			store.ErrInvalidEntity,
			pgErr.ColumnName,
			err,
		)
	case undefinedTableCode:
		return fmt.Errorf("%w: %v", store.ErrSchema, err)
	case serializationFailure, deadlockDetectedCode, lockNotAvailableCode,
		tooManyConnectionsCode, adminShutdownCode, cannotConnectNowCode:
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	return err
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
