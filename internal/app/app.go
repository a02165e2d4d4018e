package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/api"
	"github.com/phrazzld/scry-lexicon/internal/batch"
	"github.com/phrazzld/scry-lexicon/internal/cache"
	"github.com/phrazzld/scry-lexicon/internal/config"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/platform/gemini"
	"github.com/phrazzld/scry-lexicon/internal/retry"
	"github.com/phrazzld/scry-lexicon/internal/service"
	"github.com/phrazzld/scry-lexicon/internal/service/auth"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"github.com/phrazzld/scry-lexicon/internal/telemetry"
)

// ErrAuthDisabled is returned by Router when no JWT secret is configured.
var ErrAuthDisabled = errors.New("auth.jwt_secret is not configured")

// App holds the application dependencies. Fields are set by New and must
// not be replaced afterwards.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// DB is nil for the memory cache backend.
	DB *sql.DB

	Cache        *cache.ResultCache
	Emitter      *telemetry.InMemoryEmitter
	Client       generation.Client
	Translations *service.TranslationService
	Coordinator  *batch.Coordinator
	Words        *store.MemoryWordStore
	Enrichment   *service.EnrichmentService
}

// Option customizes New.
type Option func(*options)

type options struct {
	client generation.Client
}

// WithGenerationClient replaces the Gemini client, for tests and offline use.
func WithGenerationClient(client generation.Client) Option {
	return func(o *options) { o.client = client }
}

// New builds the application from cfg. Persistent cache backends are
// migrated to the latest schema. Callers must Close the App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, Logger: logger}

	db, migrations, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	a.DB = db
	if db != nil {
		if err := store.Migrate(ctx, db, migrations, store.MigrateUp, logger); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.Cache, err = cache.NewResultCache(newCacheStore(cfg, db, logger), cfg.Cache.MaxEntries,
		cache.WithLogger(logger))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}
	logger.Info("result cache initialized",
		"backend", cfg.Cache.Backend,
		"max_entries", cfg.Cache.MaxEntries,
		"ttl_hours", cfg.Cache.TTLHours)

	a.Client = o.client
	if a.Client == nil {
		a.Client, err = gemini.NewClient(ctx, logger, cfg.LLM)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("failed to initialize generation client: %w", err)
		}
		logger.Info("gemini client initialized", "model", cfg.LLM.ModelName)
	}

	a.Emitter = telemetry.NewInMemoryEmitter(logger, telemetry.NewLogHandler(logger))

	policy := retryPolicy(cfg)

	a.Translations, err = service.NewTranslationService(a.Cache, a.Client,
		service.WithCacheTTL(cfg.Cache.TTL()),
		service.WithRetryPolicy(policy),
		service.WithEmitter(a.Emitter),
		service.WithLogger(logger))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	// Batches go through the translation service so every item is cache
	// fronted; the coordinator owns the retries.
	a.Coordinator, err = batch.NewCoordinator(a.Translations,
		batch.WithRetryPolicy(policy),
		batch.WithDefaultConcurrency(cfg.Batch.MaxConcurrency),
		batch.WithEmitter(a.Emitter),
		batch.WithLogger(logger))
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Words = store.NewMemoryWordStore()
	a.Enrichment, err = service.NewEnrichmentService(a.Coordinator, a.Words, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

// OutputCount returns the configured output size for task.
func (a *App) OutputCount(task generation.Task) int {
	if task == generation.TaskSentences {
		return a.Config.Batch.SentenceOutputSize
	}
	return a.Config.Batch.TranslationOutputSize
}

// Sweep removes expired cache entries.
func (a *App) Sweep(ctx context.Context) (int, error) {
	removed, err := a.Cache.SweepExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired cache entries: %w", err)
	}
	a.Logger.Info("swept expired cache entries", "removed", removed)
	return removed, nil
}

// RunSweeper sweeps expired entries every interval until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func (a *App) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Sweep(ctx); err != nil && ctx.Err() == nil {
				a.Logger.Warn("periodic cache sweep failed", "error", err)
			}
		}
	}
}

// Health reports whether the cache database is reachable.
func (a *App) Health(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext(ctx)
}

// Router builds the HTTP API. It fails when no JWT secret is configured.
func (a *App) Router() (http.Handler, error) {
	if a.Config.Auth.JWTSecret == "" {
		return nil, ErrAuthDisabled
	}
	jwtService, err := auth.NewJWTService(a.Config.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	return api.NewRouter(api.RouterConfig{
		Translator:     a.Translations,
		Batches:        a.Coordinator,
		JWTService:     jwtService,
		Logger:         a.Logger,
		Health:         a.Health,
		RequestTimeout: requestTimeout(a.Config),
	}), nil
}

func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts:  cfg.Batch.MaxAttempts,
		InitialDelay: cfg.Batch.InitialRetryDelay(),
	}
}

// requestTimeout bounds one synchronous API request: every attempt at the
// LLM timeout, the backoff waits between them, and one more timeout of
// slack for the cache and the response.
func requestTimeout(cfg *config.Config) time.Duration {
	attempts := max(cfg.Batch.MaxAttempts, 1)
	perCall := cfg.LLM.RequestTimeout()
	return perCall*time.Duration(attempts+1) + retryPolicy(cfg).TotalBackoff()
}

// Close cancels the running batch and releases the database.
func (a *App) Close() error {
	if a.Coordinator != nil {
		a.Coordinator.Cancel()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
