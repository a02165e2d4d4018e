package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-lexicon/internal/cache"
	"github.com/phrazzld/scry-lexicon/internal/config"
	"github.com/phrazzld/scry-lexicon/internal/platform/postgres"
	"github.com/phrazzld/scry-lexicon/internal/platform/sqlite"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// Cache backends accepted in cache.backend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// openDatabase opens the database behind a persistent cache backend. It
// returns a nil DB for the memory backend.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, store.Migrations, error) {
	switch cfg.Cache.Backend {
	case BackendMemory:
		return nil, store.Migrations{}, nil
	case BackendSQLite:
		db, err := sqlite.Open(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, store.Migrations{}, err
		}
		return db, sqlite.Migrations, nil
	case BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, store.Migrations{}, err
		}
		return db, postgres.Migrations, nil
	default:
		return nil, store.Migrations{}, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// newCacheStore wraps db in the cache.Store of the configured backend.
func newCacheStore(cfg *config.Config, db *sql.DB, logger *slog.Logger) cache.Store {
	switch cfg.Cache.Backend {
	case BackendSQLite:
		return sqlite.NewCacheStore(db, logger)
	case BackendPostgres:
		return postgres.NewCacheStore(db, logger)
	default:
		return cache.NewMemoryStore()
	}
}

// Migrate runs a migration command against the configured cache backend.
// The memory backend has no schema, so any command is rejected.
func Migrate(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Cache.Backend == BackendMemory {
		return fmt.Errorf("cache backend %q has no schema to migrate", BackendMemory)
	}

	db, migrations, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed to close database", "error", cerr)
		}
	}()

	return store.Migrate(ctx, db, migrations, command, logger)
}
