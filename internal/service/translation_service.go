package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/phrazzld/scry-lexicon/internal/cache"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/redact"
	"github.com/phrazzld/scry-lexicon/internal/retry"
	"github.com/phrazzld/scry-lexicon/internal/telemetry"
)

// DefaultCacheTTL is how long generated payloads stay in the cache.
const DefaultCacheTTL = 14 * 24 * time.Hour

// TranslationResult is the answer to one request.
type TranslationResult struct {
	Payload generation.Payload

	// CacheHit is set when the payload came from the cache.
	CacheHit bool

	// ExpiresAt carries the expiry of the cache entry that served a hit.
	ExpiresAt fn.Option[time.Time]
}

// TranslationService answers generation requests from the result cache,
// falling back to the generation client on a miss.
type TranslationService struct {
	cache    *cache.ResultCache
	client   generation.Client
	policy   retry.Policy
	ttl      time.Duration
	emitter  telemetry.Emitter
	validate *validator.Validate
	logger   *slog.Logger
}

var _ generation.Client = (*TranslationService)(nil)

// TranslationOption configures a TranslationService.
type TranslationOption func(*TranslationService)

// WithCacheTTL sets the lifetime of stored payloads.
func WithCacheTTL(ttl time.Duration) TranslationOption {
	return func(s *TranslationService) { s.ttl = ttl }
}

// WithRetryPolicy sets the retry policy of Handle.
func WithRetryPolicy(policy retry.Policy) TranslationOption {
	return func(s *TranslationService) { s.policy = policy }
}

// WithEmitter sets the emitter notified of cache write failures.
func WithEmitter(emitter telemetry.Emitter) TranslationOption {
	return func(s *TranslationService) { s.emitter = emitter }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) TranslationOption {
	return func(s *TranslationService) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewTranslationService creates a TranslationService.
func NewTranslationService(
	resultCache *cache.ResultCache,
	client generation.Client,
	opts ...TranslationOption,
) (*TranslationService, error) {
	if resultCache == nil {
		return nil, fmt.Errorf("%w: result cache cannot be nil", ErrInvalidConfig)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: generation client cannot be nil", ErrInvalidConfig)
	}

	s := &TranslationService{
		cache:    resultCache,
		client:   client,
		policy:   retry.DefaultPolicy(),
		ttl:      DefaultCacheTTL,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		return nil, fmt.Errorf("%w: cache TTL must be positive", ErrInvalidConfig)
	}

	s.logger = s.logger.With("component", "translation_service")
	if s.policy.Logger == nil {
		s.policy.Logger = s.logger
	}
	return s, nil
}

// Handle answers req. Invalid input fails with KindInputInvalid before the
// cache or the client is consulted. Generation failures are returned as
// *generation.Error after retries; cache failures are logged and never
// returned.
func (s *TranslationService) Handle(ctx context.Context, req generation.Request) (*TranslationResult, error) {
	return s.resolve(ctx, req, s.policy)
}

// Generate implements generation.Client with a single cache-fronted attempt.
// Retries are left to the caller, normally a batch.Coordinator.
func (s *TranslationService) Generate(ctx context.Context, req generation.Request) (*generation.Payload, error) {
	policy := s.policy
	policy.MaxAttempts = 1

	res, err := s.resolve(ctx, req, policy)
	if err != nil {
		return nil, err
	}
	return &res.Payload, nil
}

func (s *TranslationService) resolve(
	ctx context.Context,
	req generation.Request,
	policy retry.Policy,
) (*TranslationResult, error) {
	req = req.Normalized()
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("request_id", req.ID),
		slog.String("task", string(req.Params.Task)))

	if err := s.validateRequest(req); err != nil {
		log.DebugContext(ctx, "rejected invalid request", slog.String("reason", err.Reason))
		return nil, err
	}

	key := cache.KeyFor(req)
	if res, ok := s.lookup(ctx, log, key); ok {
		return res, nil
	}
	log.DebugContext(ctx, "cache miss", slog.String("key", key))

	result := retry.Execute(ctx, policy, string(req.Params.Task),
		func(ctx context.Context) (generation.Payload, error) {
			payload, err := s.client.Generate(ctx, req)
			if err != nil {
				return generation.Payload{}, generation.AsError(err)
			}
			if payload == nil {
				return generation.Payload{}, generation.MalformedResponse("client returned no payload", nil)
			}
			return *payload, nil
		}, generation.IsRetryable)

	payload, err := result.Unpack()
	if err != nil {
		genErr := generation.AsError(err)
		log.ErrorContext(ctx, "generation request failed",
			slog.String("kind", string(genErr.Kind)),
			slog.String("error", redact.Error(genErr)))
		return nil, genErr
	}

	s.store(ctx, log, req, key, payload)
	return &TranslationResult{Payload: payload, ExpiresAt: fn.None[time.Time]()}, nil
}

func (s *TranslationService) validateRequest(req generation.Request) *generation.Error {
	if req.PrimaryText == "" {
		return generation.InputInvalid("primary text is empty")
	}
	if err := s.validate.Struct(req.Params); err != nil {
		return generation.NewError(generation.KindInputInvalid, fmt.Sprintf("invalid parameters: %v", err), err)
	}
	return nil
}

func (s *TranslationService) lookup(ctx context.Context, log *slog.Logger, key string) (*TranslationResult, bool) {
	value, expiresAt, ok := s.cache.Lookup(ctx, key)
	if !ok {
		return nil, false
	}

	var payload generation.Payload
	if err := json.Unmarshal(value, &payload); err != nil {
		log.WarnContext(ctx, "ignoring undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return nil, false
	}

	log.DebugContext(ctx, "cache hit",
		slog.String("key", key),
		slog.Time("expires_at", expiresAt))
	return &TranslationResult{
		Payload:   payload,
		CacheHit:  true,
		ExpiresAt: fn.Some(expiresAt),
	}, true
}

// store writes payload to the cache. Failures are reported through logs
// and telemetry only.
func (s *TranslationService) store(
	ctx context.Context,
	log *slog.Logger,
	req generation.Request,
	key string,
	payload generation.Payload,
) {
	value, err := json.Marshal(payload)
	if err == nil {
		err = s.cache.Store(ctx, key, value, s.ttl)
	}
	if err == nil {
		return
	}

	log.WarnContext(ctx, "failed to cache generated payload",
		slog.String("key", key),
		slog.String("error", redact.Error(err)))

	if emitErr := telemetry.EmitNamed(ctx, s.emitter, telemetry.EventCacheWriteFailed,
		telemetry.CacheWriteFailed{
			RequestID: req.ID,
			Key:       key,
			Error:     redact.Error(err),
		}); emitErr != nil {
		log.WarnContext(ctx, "failed to emit cache telemetry", slog.String("error", emitErr.Error()))
	}
}
