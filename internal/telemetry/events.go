package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the pipeline.
const (
	// EventCacheWriteFailed is emitted when a generated payload could not be
	// written to the result cache.
	EventCacheWriteFailed = "cache_write_failed"

	// EventBatchCompleted is emitted once per finished batch, cancelled or not.
	EventBatchCompleted = "batch_completed"
)

// Event is one telemetry record.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Event* constants
	Type string `json:"type"`

	// Attributes holds the event-specific data serialized as JSON
	Attributes json.RawMessage `json:"attributes"`

	// CreatedAt is when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalAttributes decodes the event attributes into v.
func (e *Event) UnmarshalAttributes(v any) error {
	return json.Unmarshal(e.Attributes, v)
}

// NewEvent creates an Event with the given type and attributes.
func NewEvent(eventType string, attributes any) (*Event, error) {
	data, err := json.Marshal(attributes)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		Attributes: data,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// CacheWriteFailed carries the attributes of EventCacheWriteFailed.
type CacheWriteFailed struct {
	RequestID string `json:"request_id"`
	Key       string `json:"key"`
	Error     string `json:"error"`
}

// BatchCompleted carries the attributes of EventBatchCompleted.
type BatchCompleted struct {
	BatchID      string `json:"batch_id"`
	Label        string `json:"label,omitempty"`
	Total        int    `json:"total"`
	SuccessCount int    `json:"success_count"`
	FailedCount  int    `json:"failed_count"`
	Cancelled    bool   `json:"cancelled"`
	DurationMS   int64  `json:"duration_ms"`
}

// Handler consumes events.
type Handler interface {
	// HandleEvent processes the given event. Returned errors are logged by
	// the emitter and never reach the component that emitted the event.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Emitter publishes events.
type Emitter interface {
	// Emit publishes the event to all registered handlers.
	Emit(ctx context.Context, event *Event) error
}

// EmitNamed builds an event from attributes and emits it. A nil emitter is a
// no-op.
func EmitNamed(ctx context.Context, emitter Emitter, eventType string, attributes any) error {
	if emitter == nil {
		return nil
	}
	event, err := NewEvent(eventType, attributes)
	if err != nil {
		return err
	}
	return emitter.Emit(ctx, event)
}
