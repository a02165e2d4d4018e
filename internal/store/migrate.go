package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
)

// MigrationTableName is the goose version table used by every backend.
const MigrationTableName = "lexicon_schema_migrations"

// Migration commands accepted by Migrate.
const (
	MigrateUp      = "up"
	MigrateDown    = "down"
	MigrateReset   = "reset"
	MigrateStatus  = "status"
	MigrateVersion = "version"
)

// Migrations is an embedded goose migration set.
type Migrations struct {
	// Dialect is the goose dialect name: "postgres" or "sqlite3".
	Dialect string
	FS      fs.FS
	Dir     string
}

// goose keeps its dialect, base FS and logger in package state.
var gooseMu sync.Mutex

// slogGooseLogger adapts the goose logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements goose.Logger.
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf implements goose.Logger. It logs at error level and does not exit;
// the failure is returned from Migrate.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Migrate runs a goose command against db using the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, m Migrations, command string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(
		slog.String("component", "migrations"),
		slog.String("dialect", m.Dialect),
		slog.String("command", command))

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetLogger(&slogGooseLogger{logger: log})
	goose.SetBaseFS(m.FS)
	goose.SetTableName(MigrationTableName)
	if err := goose.SetDialect(m.Dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	start := time.Now()
	var err error
	switch command {
	case MigrateUp:
		err = goose.UpContext(ctx, db, m.Dir)
	case MigrateDown:
		err = goose.DownContext(ctx, db, m.Dir)
	case MigrateReset:
		err = goose.ResetContext(ctx, db, m.Dir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, db, m.Dir)
	case MigrateVersion:
		err = goose.VersionContext(ctx, db, m.Dir)
	default:
		return fmt.Errorf(
			"unknown migration command: %s (expected up, down, reset, status, or version)",
			command,
		)
	}
	if err != nil {
		log.Error("migration command failed",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	version, verr := goose.GetDBVersionContext(ctx, db)
	if verr != nil {
		log.Warn("failed to read schema version", slog.String("error", verr.Error()))
	}
	log.Info("migration command executed successfully",
		slog.Int64("version", version),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return nil
}
