package telemetry

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// LogHandler writes every event to a structured logger at Info level.
type LogHandler struct {
	logger *slog.Logger
}

// NewLogHandler returns a handler logging through logger.
func NewLogHandler(logger *slog.Logger) *LogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogHandler{logger: logger.With("component", "telemetry")}
}

// HandleEvent implements Handler.
func (h *LogHandler) HandleEvent(ctx context.Context, event *Event) error {
	var attrs map[string]any
	if err := json.Unmarshal(event.Attributes, &attrs); err != nil {
		return err
	}

	args := make([]any, 0, 4+2*len(attrs))
	args = append(args, "event_id", event.ID.String(), "event_type", event.Type)
	for k, v := range attrs {
		args = append(args, k, v)
	}
	h.logger.InfoContext(ctx, "telemetry event", args...)
	return nil
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

// HandleEvent implements Handler.
func (r *Recorder) HandleEvent(_ context.Context, event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns the recorded events of the given type, or all of them when
// eventType is empty.
func (r *Recorder) Events(eventType string) []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Event
	for _, e := range r.events {
		if eventType == "" || e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
