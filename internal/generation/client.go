package generation

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Task identifies which kind of enrichment a request asks for.
type Task string

// Supported tasks.
const (
	// TaskTranslation asks for translations of a single word or phrase.
	TaskTranslation Task = "translation"

	// TaskSentences asks for example sentences using a word.
	TaskSentences Task = "sentences"
)

// DefaultOutputCount is the number of items asked for when a request leaves
// OutputCount at zero.
const DefaultOutputCount = 3

// Params carries the target parameters of a request.
type Params struct {
	Task        Task   `json:"task" validate:"required,oneof=translation sentences"`
	SourceLang  string `json:"source_lang" validate:"required,bcp47_language_tag"`
	TargetLang  string `json:"target_lang" validate:"required,bcp47_language_tag"`
	OutputCount int    `json:"output_count" validate:"gte=0,lte=20"`
	Level       string `json:"level,omitempty" validate:"omitempty,max=32"`
}

// EffectiveOutputCount returns OutputCount, or DefaultOutputCount when unset.
func (p Params) EffectiveOutputCount() int {
	if p.OutputCount <= 0 {
		return DefaultOutputCount
	}
	return p.OutputCount
}

// Request is one unit of enrichment work. It is created once per item before
// dispatch and treated as immutable afterwards.
type Request struct {
	// ID is opaque and stable for the item; batch results are keyed by it.
	ID string `json:"id"`

	// PrimaryText is the word or phrase to enrich.
	PrimaryText string `json:"primary_text"`

	// Context is optional free-form context, such as a definition or a
	// sentence the word appeared in.
	Context string `json:"context,omitempty"`

	Params Params `json:"params"`
}

// NewRequest builds a Request, assigning a random ID when id is empty.
func NewRequest(id, primaryText string, params Params) Request {
	if id == "" {
		id = uuid.NewString()
	}
	return Request{
		ID:          id,
		PrimaryText: primaryText,
		Params:      params,
	}
}

// Normalized returns a copy with the primary text and context trimmed.
func (r Request) Normalized() Request {
	r.PrimaryText = strings.TrimSpace(r.PrimaryText)
	r.Context = strings.TrimSpace(r.Context)
	return r
}

// Item is one generated piece of content, for example a translation or a
// sentence, with an optional quality tag assigned by the generator.
type Item struct {
	Text    string `json:"text"`
	Quality string `json:"quality,omitempty"`
}

// Payload is the successful result of one generation call.
type Payload struct {
	Items []Item `json:"items"`
}

// Texts returns the text of every item in order.
func (p *Payload) Texts() []string {
	if p == nil {
		return nil
	}
	texts := make([]string, 0, len(p.Items))
	for _, item := range p.Items {
		texts = append(texts, item.Text)
	}
	return texts
}

// Client performs one generation call for one request. Implementations must
// be safe for concurrent use and should return errors classified as *Error
// (see errors.go); unclassified errors are mapped by AsError.
type Client interface {
	Generate(ctx context.Context, req Request) (*Payload, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (*Payload, error)

// Generate calls f.
func (f ClientFunc) Generate(ctx context.Context, req Request) (*Payload, error) {
	return f(ctx, req)
}
