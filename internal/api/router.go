package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/scry-lexicon/internal/api/middleware"
	"github.com/phrazzld/scry-lexicon/internal/api/shared"
	"github.com/phrazzld/scry-lexicon/internal/service/auth"
)

// HealthCheck reports whether a backing dependency is usable.
type HealthCheck func(ctx context.Context) error

// RouterConfig holds the dependencies of the HTTP API.
type RouterConfig struct {
	Translator Translator
	Batches    BatchController
	JWTService auth.JWTService
	Logger     *slog.Logger

	// Health is optional; when nil /health always reports ok.
	Health HealthCheck

	// RequestTimeout bounds synchronous requests. Zero disables it.
	RequestTimeout time.Duration
}

type healthResponse struct {
	Status string `json:"status"`
}

// NewRouter builds the HTTP handler serving the API.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Trace(log))

	translations := NewTranslationHandler(cfg.Translator, log)
	batches := NewBatchHandler(cfg.Batches, log)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTService)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}

		r.Post("/translations", translations.Translate)

		r.Route("/batches", func(r chi.Router) {
			r.Post("/", batches.StartBatch)
			r.Get("/current", batches.CurrentBatch)
			r.Delete("/current", batches.CancelBatch)
			r.Get("/last", batches.LastBatch)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health(r.Context()); err != nil {
				shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Unhealthy", err)
				return
			}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
	})

	return r
}
