package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Handle controls one running batch.
type Handle struct {
	id     string
	total  int
	label  string
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	progress ProgressEvent
	result   *Result
}

func newHandle(id string, total int, label string, cancel context.CancelFunc) *Handle {
	return &Handle{
		id:       id,
		total:    total,
		label:    label,
		cancel:   cancel,
		done:     make(chan struct{}),
		progress: ProgressEvent{Total: total, Label: label},
	}
}

// completedHandle returns a finished handle for an empty batch.
func completedHandle(label string) *Handle {
	h := newHandle(uuid.NewString(), 0, label, func() {})
	h.finish(&Result{})
	return h
}

// ID returns the batch identifier.
func (h *Handle) ID() string { return h.id }

// Total returns the number of requests in the batch.
func (h *Handle) Total() int { return h.total }

// Cancel requests cancellation of the batch. It is idempotent and safe to
// call from any goroutine, including after the batch finished.
func (h *Handle) Cancel() { h.cancel() }

// Done is closed once the batch Result is available.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the batch finishes or ctx is done. Giving up on waiting
// does not cancel the batch.
func (h *Handle) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-h.done:
		return h.Result(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the batch Result, or nil while the batch is running.
func (h *Handle) Result() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Progress returns the latest progress snapshot.
func (h *Handle) Progress() ProgressEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.progress
}

func (h *Handle) setProgress(event ProgressEvent) {
	h.mu.Lock()
	h.progress = event
	h.mu.Unlock()
}

func (h *Handle) finish(result *Result) {
	h.mu.Lock()
	h.result = result
	h.mu.Unlock()
	// Release the context resources of a batch that was never cancelled.
	h.cancel()
	close(h.done)
}
