// Package store holds the persistence plumbing shared by the SQL-backed cache
// stores: the transaction helper, store-level errors and the goose migration
// runner. It also provides the WordStore interface with an in-memory
// implementation used by the CLI and tests.
package store
