package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/config"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/redact"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// contentGenerator is the subset of the genai models service used here.
// *genai.Models satisfies it.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client implements generation.Client using Google's Gemini API. It makes
// exactly one API call per Generate; retries belong to the caller.
type Client struct {
	logger      *slog.Logger
	models      contentGenerator
	model       string
	timeout     time.Duration
	temperature float32

	// limiter paces calls client side; nil disables pacing.
	limiter *rate.Limiter
}

var _ generation.Client = (*Client)(nil)

// NewClient creates a Gemini-backed Client from the LLM configuration.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return newClient(logger, client.Models, cfg)
}

func newClient(logger *slog.Logger, models contentGenerator, cfg config.LLMConfig) (*Client, error) {
	if models == nil {
		return nil, fmt.Errorf("%w: models service cannot be nil", ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		logger:      logger.With(slog.String("component", "gemini_client"), slog.String("model", cfg.ModelName)),
		models:      models,
		model:       cfg.ModelName,
		timeout:     cfg.RequestTimeout(),
		temperature: cfg.Temperature,
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return c, nil
}

// Generate implements generation.Client.
func (c *Client) Generate(ctx context.Context, req generation.Request) (*generation.Payload, error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With(
		slog.String("request_id", req.ID),
		slog.String("task", string(req.Params.Task)))

	req = req.Normalized()
	if req.PrimaryText == "" {
		return nil, generation.InputInvalid("primary text is empty")
	}

	outputCount := req.Params.EffectiveOutputCount()

	prompt, err := renderPrompt(req, outputCount)
	if err != nil {
		return nil, generation.InputInvalid(err.Error())
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(callCtx, c.model, genai.Text(prompt), c.contentConfig())
	if err != nil {
		classified := classifyError(err)
		log.WarnContext(ctx, "gemini call failed",
			slog.String("kind", string(classified.Kind)),
			slog.Int("code", classified.Code),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("error", redact.Error(err)))
		return nil, classified
	}

	payload, perr := parseResponse(resp, outputCount)
	if perr != nil {
		log.WarnContext(ctx, "gemini response rejected",
			slog.String("reason", perr.Reason))
		return nil, perr
	}

	log.DebugContext(ctx, "gemini call succeeded",
		slog.Int("items", len(payload.Items)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	return payload, nil
}

// wait blocks until the limiter admits one call. It observes the admission
// context of ctx, so a batch cancels calls still queued on the limiter even
// though the call context itself is detached.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	ctx = generation.Admission(ctx)
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return generation.AsError(ctxErr)
		}
		// The wait would outlast the context deadline.
		return generation.RateLimited(err)
	}
	return nil
}

func (c *Client) contentConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	}
}

// parseResponse validates a Gemini response and converts it to a Payload
// holding at most limit non-empty items.
func parseResponse(resp *genai.GenerateContentResponse, limit int) (*generation.Payload, *generation.Error) {
	if resp == nil {
		return nil, generation.MalformedResponse("nil response", nil)
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, generation.MalformedResponse(
			fmt.Sprintf("prompt blocked: %s", fb.BlockReason), nil)
	}
	if len(resp.Candidates) == 0 {
		return nil, generation.MalformedResponse("no content generated", nil)
	}
	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return nil, generation.MalformedResponse("content blocked by safety filters", nil)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, generation.MalformedResponse("empty content in response", nil)
	}

	var parsed ResponseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, generation.MalformedResponse("failed to parse JSON response", err)
	}

	payload := &generation.Payload{Items: make([]generation.Item, 0, len(parsed.Items))}
	for _, item := range parsed.Items {
		itemText := strings.TrimSpace(item.Text)
		if itemText == "" {
			continue
		}
		payload.Items = append(payload.Items, generation.Item{
			Text:    itemText,
			Quality: strings.TrimSpace(item.Quality),
		})
		if limit > 0 && len(payload.Items) == limit {
			break
		}
	}
	if len(payload.Items) == 0 {
		return nil, generation.MalformedResponse("response contained no items", nil)
	}

	return payload, nil
}
