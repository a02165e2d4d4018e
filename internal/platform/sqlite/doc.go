// Package sqlite provides the SQLite-backed cache.Store used when the result
// cache has to survive restarts on a single host. It owns its schema
// migrations and maps driver errors onto the store package's errors.
package sqlite
