package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/api/shared"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/service"
)

// Translator answers single generation requests. *service.TranslationService
// satisfies it.
type Translator interface {
	Handle(ctx context.Context, req generation.Request) (*service.TranslationResult, error)
}

// TranslationHandler serves single-item generation requests.
type TranslationHandler struct {
	translator Translator
	logger     *slog.Logger
}

// NewTranslationHandler creates a TranslationHandler.
func NewTranslationHandler(translator Translator, logger *slog.Logger) *TranslationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranslationHandler{
		translator: translator,
		logger:     logger.With("component", "translation_handler"),
	}
}

// Translate handles POST /api/translations.
func (h *TranslationHandler) Translate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req TranslationRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	task := generation.TaskTranslation
	if req.Task != "" {
		task = generation.Task(req.Task)
	}

	genReq := generation.NewRequest("", req.Text, generation.Params{
		Task:        task,
		SourceLang:  req.SourceLang,
		TargetLang:  req.TargetLang,
		OutputCount: req.OutputCount,
		Level:       req.Level,
	})
	genReq.Context = req.Context

	res, err := h.translator.Handle(r.Context(), genReq)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	resp := TranslationResponse{
		Items:    res.Payload.Items,
		CacheHit: res.CacheHit,
	}
	if res.ExpiresAt.IsSome() {
		expiresAt := res.ExpiresAt.UnwrapOr(time.Time{})
		resp.ExpiresAt = &expiresAt
	}
	if resp.Items == nil {
		resp.Items = []generation.Item{}
	}

	log.DebugContext(r.Context(), "translation served",
		slog.String("request_id", genReq.ID),
		slog.Bool("cache_hit", res.CacheHit),
		slog.Int("items", len(resp.Items)))
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
