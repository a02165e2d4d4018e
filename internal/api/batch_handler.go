package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/phrazzld/scry-lexicon/internal/api/shared"
	"github.com/phrazzld/scry-lexicon/internal/batch"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
)

// BatchController starts and observes background batches.
// *batch.Coordinator satisfies it.
type BatchController interface {
	Start(ctx context.Context, requests []generation.Request, opts batch.Options) (*batch.Handle, error)
	Active() *batch.Handle
	Cancel()
	LastResult() fn.Option[*batch.Result]
}

// BatchHandler serves the batch endpoints.
type BatchHandler struct {
	batches BatchController
	logger  *slog.Logger
}

// NewBatchHandler creates a BatchHandler.
func NewBatchHandler(batches BatchController, logger *slog.Logger) *BatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchHandler{
		batches: batches,
		logger:  logger.With("component", "batch_handler"),
	}
}

// StartBatch handles POST /api/batches. The batch outlives the request; its
// progress is available from GET /api/batches/current.
func (h *BatchHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req BatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	params := req.params()
	requests := make([]generation.Request, 0, len(req.Items))
	seen := make(map[string]struct{}, len(req.Items))
	for _, item := range req.Items {
		genReq := generation.NewRequest(item.ID, item.Text, params)
		genReq.Context = item.Context
		if _, dup := seen[genReq.ID]; dup {
			shared.RespondWithError(w, r, http.StatusBadRequest,
				fmt.Sprintf("Duplicate item id %q", genReq.ID))
			return
		}
		seen[genReq.ID] = struct{}{}
		requests = append(requests, genReq)
	}

	handle, err := h.batches.Start(context.WithoutCancel(r.Context()), requests, batch.Options{
		MaxConcurrency: req.MaxConcurrency,
		Label:          req.Task,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	log.InfoContext(r.Context(), "batch accepted",
		slog.String("batch_id", handle.ID()),
		slog.Int("total", handle.Total()))

	w.Header().Set("Location", "/api/batches/current")
	shared.RespondWithJSON(w, r, http.StatusAccepted, BatchStartedResponse{
		BatchID: handle.ID(),
		Total:   handle.Total(),
	})
}

// CurrentBatch handles GET /api/batches/current.
func (h *BatchHandler) CurrentBatch(w http.ResponseWriter, r *http.Request) {
	handle := h.batches.Active()
	if handle == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "No batch is running")
		return
	}

	progress := handle.Progress()
	shared.RespondWithJSON(w, r, http.StatusOK, BatchProgressResponse{
		BatchID: handle.ID(),
		Label:   progress.Label,
		Current: progress.Current,
		Total:   progress.Total,
	})
}

// CancelBatch handles DELETE /api/batches/current. Cancelling when no batch
// runs is not an error.
func (h *BatchHandler) CancelBatch(w http.ResponseWriter, r *http.Request) {
	if handle := h.batches.Active(); handle != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).InfoContext(r.Context(),
			"batch cancellation requested", slog.String("batch_id", handle.ID()))
	}
	h.batches.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// LastBatch handles GET /api/batches/last.
func (h *BatchHandler) LastBatch(w http.ResponseWriter, r *http.Request) {
	last := h.batches.LastResult()
	if last.IsNone() {
		shared.RespondWithError(w, r, http.StatusNotFound, "No batch has completed")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, newBatchResultResponse(last.UnwrapOr(nil)))
}
