package api

import (
	"time"

	"github.com/phrazzld/scry-lexicon/internal/batch"
	"github.com/phrazzld/scry-lexicon/internal/generation"
)

// MaxBatchItems bounds the number of items accepted by one batch request.
const MaxBatchItems = 500

// TranslationRequest is the payload of POST /api/translations.
type TranslationRequest struct {
	Text        string `json:"text"         validate:"required,max=512"`
	Context     string `json:"context"      validate:"max=2048"`
	Task        string `json:"task"         validate:"omitempty,oneof=translation sentences"`
	SourceLang  string `json:"source_lang"  validate:"required,bcp47_language_tag"`
	TargetLang  string `json:"target_lang"  validate:"required,bcp47_language_tag"`
	OutputCount int    `json:"output_count" validate:"gte=0,lte=20"`
	Level       string `json:"level"        validate:"max=32"`
}

// TranslationResponse is the answer to a TranslationRequest.
type TranslationResponse struct {
	Items    []generation.Item `json:"items"`
	CacheHit bool              `json:"cache_hit"`

	// ExpiresAt is set when the answer was served from the cache.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// BatchItem is one item of a BatchRequest. Items without an ID get a
// generated one.
type BatchItem struct {
	ID      string `json:"id"      validate:"max=128"`
	Text    string `json:"text"    validate:"required,max=512"`
	Context string `json:"context" validate:"max=2048"`
}

// BatchRequest is the payload of POST /api/batches.
type BatchRequest struct {
	Task           string      `json:"task"            validate:"required,oneof=translation sentences"`
	SourceLang     string      `json:"source_lang"     validate:"required,bcp47_language_tag"`
	TargetLang     string      `json:"target_lang"     validate:"required,bcp47_language_tag"`
	OutputCount    int         `json:"output_count"    validate:"gte=0,lte=20"`
	Level          string      `json:"level"           validate:"max=32"`
	MaxConcurrency int         `json:"max_concurrency" validate:"gte=0,lte=32"`
	Items          []BatchItem `json:"items"           validate:"required,min=1,max=500,dive"`
}

// BatchStartedResponse is returned when a batch was accepted.
type BatchStartedResponse struct {
	BatchID string `json:"batch_id"`
	Total   int    `json:"total"`
}

// BatchProgressResponse is the progress snapshot of the running batch.
type BatchProgressResponse struct {
	BatchID string `json:"batch_id"`
	Label   string `json:"label,omitempty"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// BatchItemResult is one successful item of a finished batch.
type BatchItemResult struct {
	ID         string            `json:"id"`
	Items      []generation.Item `json:"items"`
	Attempts   int               `json:"attempts"`
	DurationMS int64             `json:"duration_ms"`
}

// BatchFailure is one failed item of a finished batch.
type BatchFailure struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"duration_ms"`
}

// BatchResultResponse is the aggregated result of a finished batch.
type BatchResultResponse struct {
	BatchID         string            `json:"batch_id"`
	SuccessCount    int               `json:"success_count"`
	FailedCount     int               `json:"failed_count"`
	Cancelled       bool              `json:"cancelled"`
	TotalDurationMS int64             `json:"total_duration_ms"`
	Items           []BatchItemResult `json:"items"`
	Failures        []BatchFailure    `json:"failures"`
}

// params builds the generation parameters of a batch request.
func (r *BatchRequest) params() generation.Params {
	return generation.Params{
		Task:        generation.Task(r.Task),
		SourceLang:  r.SourceLang,
		TargetLang:  r.TargetLang,
		OutputCount: r.OutputCount,
		Level:       r.Level,
	}
}

func newBatchResultResponse(res *batch.Result) BatchResultResponse {
	out := BatchResultResponse{
		BatchID:         res.BatchID,
		SuccessCount:    res.SuccessCount,
		FailedCount:     res.FailedCount,
		Cancelled:       res.Cancelled,
		TotalDurationMS: res.TotalDuration.Milliseconds(),
		Items:           make([]BatchItemResult, 0, len(res.SuccessfulItems)),
		Failures:        make([]BatchFailure, 0, len(res.Failures)),
	}
	for _, item := range res.SuccessfulItems {
		out.Items = append(out.Items, BatchItemResult{
			ID:         item.RequestID,
			Items:      item.Payload.Items,
			Attempts:   item.Attempts,
			DurationMS: item.Duration.Milliseconds(),
		})
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, BatchFailure{
			ID:         f.RequestID,
			Kind:       string(f.Kind),
			Message:    kindMessage[f.Kind],
			Suggestion: f.Kind.RecoverySuggestion(),
			Attempts:   f.Attempts,
			DurationMS: f.Duration.Milliseconds(),
		})
	}
	return out
}
