package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations is the embedded schema of the PostgreSQL cache.
var Migrations = store.Migrations{
	Dialect: "postgres",
	FS:      migrationsFS,
	Dir:     "migrations",
}

// Open establishes a connection to the database, configures the pool and
// verifies connectivity with a ping.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate applies a goose command to the PostgreSQL cache schema.
func Migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	return store.Migrate(ctx, db, Migrations, command, logger)
}
