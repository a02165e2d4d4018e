// Package postgres provides the PostgreSQL implementation of cache.Store. It
// handles connection setup through the pgx stdlib driver, the embedded goose
// migrations of the cache schema, and the mapping of PostgreSQL error codes
// onto the store package's errors.
package postgres
