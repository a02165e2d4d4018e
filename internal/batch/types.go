package batch

import (
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/redact"
)

// Options configures one batch run.
type Options struct {
	// MaxConcurrency bounds the number of requests in flight. Zero uses the
	// coordinator default.
	MaxConcurrency int

	// OnProgress, if set, is called from worker goroutines after every
	// finished request. Calls are serialized and arrive in completion order;
	// the callback must not block.
	OnProgress func(ProgressEvent)

	// Label is copied into progress events and logs.
	Label string
}

// ProgressEvent reports how many requests of a batch have finished.
type ProgressEvent struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Label   string `json:"label,omitempty"`
}

// Outcome is the result of processing one request.
type Outcome struct {
	RequestID string
	Result    fn.Result[generation.Payload]
	Duration  time.Duration

	// Attempts is zero for requests that never started.
	Attempts int
}

// SuccessfulItem pairs a request with its generated payload.
type SuccessfulItem struct {
	RequestID string             `json:"request_id"`
	Payload   generation.Payload `json:"payload"`

	// Duration spans every attempt of the request, backoff waits included.
	Duration time.Duration `json:"duration"`
	Attempts int           `json:"attempts"`
}

// Failure records why one request failed.
type Failure struct {
	RequestID string               `json:"request_id"`
	Kind      generation.ErrorKind `json:"kind"`
	Message   string               `json:"message"`
	Duration  time.Duration        `json:"duration"`

	// Attempts is zero for requests cancelled before they started.
	Attempts int `json:"attempts"`
}

// Result aggregates the outcomes of a batch. SuccessCount+FailedCount always
// equals the number of requests. Slices follow request order.
type Result struct {
	BatchID         string                 `json:"batch_id,omitempty"`
	SuccessCount    int                    `json:"success_count"`
	FailedCount     int                    `json:"failed_count"`
	TotalDuration   time.Duration          `json:"total_duration"`
	Errors          []generation.ErrorKind `json:"errors,omitempty"`
	SuccessfulItems []SuccessfulItem       `json:"successful_items,omitempty"`
	Failures        []Failure              `json:"failures,omitempty"`

	// Cancelled is set when cancellation left at least one request
	// unfinished.
	Cancelled bool `json:"cancelled"`
}

// newResult folds outcomes, given in request order, into a Result.
func newResult(batchID string, outcomes []Outcome, elapsed time.Duration) *Result {
	res := &Result{
		BatchID:       batchID,
		TotalDuration: elapsed,
	}

	for _, o := range outcomes {
		payload, err := o.Result.Unpack()
		if err == nil {
			res.SuccessCount++
			res.SuccessfulItems = append(res.SuccessfulItems, SuccessfulItem{
				RequestID: o.RequestID,
				Payload:   payload,
				Duration:  o.Duration,
				Attempts:  o.Attempts,
			})
			continue
		}

		genErr := generation.AsError(err)
		res.FailedCount++
		res.Errors = append(res.Errors, genErr.Kind)
		if genErr.Kind == generation.KindCancelled {
			res.Cancelled = true
		}
		res.Failures = append(res.Failures, Failure{
			RequestID: o.RequestID,
			Kind:      genErr.Kind,
			Message:   redact.Error(genErr),
			Duration:  o.Duration,
			Attempts:  o.Attempts,
		})
	}

	return res
}
