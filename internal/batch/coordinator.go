package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/retry"
	"github.com/phrazzld/scry-lexicon/internal/telemetry"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrency is used when neither the options nor the coordinator
// configure a concurrency bound.
const DefaultMaxConcurrency = 3

// ErrInvalidConfig is returned by NewCoordinator for unusable configuration.
var ErrInvalidConfig = errors.New("invalid batch configuration")

// Coordinator runs batches of generation requests against a Client. It is
// safe for concurrent use; at most one batch runs at a time.
type Coordinator struct {
	client             generation.Client
	policy             retry.Policy
	logger             *slog.Logger
	emitter            telemetry.Emitter
	defaultConcurrency int

	mu     sync.Mutex
	active *Handle
	last   *Result
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithRetryPolicy sets the retry policy applied to every request.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Coordinator) { c.policy = policy }
}

// WithLogger sets the coordinator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEmitter sets the telemetry emitter notified when a batch completes.
func WithEmitter(emitter telemetry.Emitter) Option {
	return func(c *Coordinator) { c.emitter = emitter }
}

// WithDefaultConcurrency sets the bound used when Options.MaxConcurrency is zero.
func WithDefaultConcurrency(n int) Option {
	return func(c *Coordinator) { c.defaultConcurrency = n }
}

// NewCoordinator creates a Coordinator that generates content with client.
func NewCoordinator(client generation.Client, opts ...Option) (*Coordinator, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: client cannot be nil", ErrInvalidConfig)
	}

	c := &Coordinator{
		client:             client,
		policy:             retry.DefaultPolicy(),
		logger:             slog.Default(),
		defaultConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defaultConcurrency < 1 {
		return nil, fmt.Errorf("%w: default concurrency must be positive", ErrInvalidConfig)
	}

	c.logger = c.logger.With("component", "batch_coordinator")
	if c.policy.Logger == nil {
		c.policy.Logger = c.logger
	}
	return c, nil
}

// Start launches a batch over requests and returns its handle. The batch
// runs in the background under a context derived from ctx; cancelling ctx
// or the handle cancels the batch.
//
// If another batch is active, Start returns a generation error of kind
// KindAlreadyRunning and leaves the active batch untouched. An empty request
// list yields a handle that is already complete with a zero Result.
func (c *Coordinator) Start(ctx context.Context, requests []generation.Request, opts Options) (*Handle, error) {
	if len(requests) == 0 {
		return completedHandle(opts.Label), nil
	}

	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = c.defaultConcurrency
	}

	c.mu.Lock()
	if c.active != nil {
		activeID := c.active.id
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "batch rejected, another batch is running",
			"active_batch_id", activeID)
		return nil, generation.AlreadyRunning()
	}

	batchCtx, cancel := context.WithCancel(ctx)
	h := newHandle(uuid.NewString(), len(requests), opts.Label, cancel)
	c.active = h
	c.mu.Unlock()

	log := c.logger.With("batch_id", h.id)
	if opts.Label != "" {
		log = log.With("label", opts.Label)
	}
	batchCtx = logger.WithLogger(batchCtx, log)

	log.InfoContext(batchCtx, "batch started",
		"total", len(requests),
		"max_concurrency", limit)

	// The handle keeps its own copy so callers may reuse their slice.
	reqs := append([]generation.Request(nil), requests...)
	go c.run(batchCtx, h, reqs, limit, opts.OnProgress, log)

	return h, nil
}

// Run starts a batch and waits for its Result. Cancelling ctx cancels the
// batch; the partial Result is still returned.
func (c *Coordinator) Run(ctx context.Context, requests []generation.Request, opts Options) (*Result, error) {
	h, err := c.Start(ctx, requests, opts)
	if err != nil {
		return nil, err
	}
	<-h.Done()
	return h.Result(), nil
}

// Cancel cancels the active batch, if any.
func (c *Coordinator) Cancel() {
	if h := c.Active(); h != nil {
		h.Cancel()
	}
}

// Active returns the handle of the running batch, or nil when idle.
func (c *Coordinator) Active() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// LastResult returns the Result of the most recently completed batch.
func (c *Coordinator) LastResult() fn.Option[*Result] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return fn.None[*Result]()
	}
	return fn.Some(c.last)
}

func (c *Coordinator) run(
	ctx context.Context,
	h *Handle,
	requests []generation.Request,
	limit int,
	onProgress func(ProgressEvent),
	log *slog.Logger,
) {
	start := time.Now()
	outcomes := make([]Outcome, len(requests))
	started := make([]bool, len(requests))

	var (
		progressMu sync.Mutex
		completed  int
		wg         sync.WaitGroup
	)

	report := func() {
		progressMu.Lock()
		defer progressMu.Unlock()
		completed++
		event := ProgressEvent{Current: completed, Total: len(requests), Label: h.label}
		h.setProgress(event)
		if onProgress != nil {
			onProgress(event)
		}
	}

	sem := semaphore.NewWeighted(int64(limit))
	for i, req := range requests {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		// Acquire may succeed on a cancelled context when a slot is free.
		if ctx.Err() != nil {
			sem.Release(1)
			break
		}

		started[i] = true
		wg.Add(1)
		go func(i int, req generation.Request) {
			defer wg.Done()
			defer sem.Release(1)

			outcomes[i] = c.process(ctx, req)
			report()
		}(i, req)
	}
	wg.Wait()

	for i, req := range requests {
		if !started[i] {
			outcomes[i] = Outcome{
				RequestID: req.ID,
				Result:    fn.Err[generation.Payload](generation.Cancelled(context.Canceled)),
			}
		}
	}

	result := newResult(h.id, outcomes, time.Since(start))
	log.InfoContext(ctx, "batch completed",
		"total", len(requests),
		"success_count", result.SuccessCount,
		"failed_count", result.FailedCount,
		"cancelled", result.Cancelled,
		"duration_ms", result.TotalDuration.Milliseconds())

	if err := telemetry.EmitNamed(context.WithoutCancel(ctx), c.emitter, telemetry.EventBatchCompleted,
		telemetry.BatchCompleted{
			BatchID:      h.id,
			Label:        h.label,
			Total:        len(requests),
			SuccessCount: result.SuccessCount,
			FailedCount:  result.FailedCount,
			Cancelled:    result.Cancelled,
			DurationMS:   result.TotalDuration.Milliseconds(),
		}); err != nil {
		log.WarnContext(ctx, "failed to emit batch telemetry", "error", err)
	}

	c.mu.Lock()
	if c.active == h {
		c.active = nil
	}
	c.last = result
	c.mu.Unlock()

	h.finish(result)
}

// process runs one request through the retry executor. The generation call
// itself runs on a context detached from batch cancellation, so a call in
// progress always completes; cancellation is observed before each attempt,
// during retry waits and while a client waits for admission.
func (c *Coordinator) process(ctx context.Context, req generation.Request) Outcome {
	start := time.Now()
	callCtx := generation.WithAdmission(context.WithoutCancel(ctx), ctx)

	attempts := 0
	policy := c.policy
	policy.OnAttempt = func(n int) { attempts = n }

	result := retry.Execute(ctx, policy, "generate", func(context.Context) (generation.Payload, error) {
		payload, err := c.client.Generate(callCtx, req)
		if err != nil {
			return generation.Payload{}, generation.AsError(err)
		}
		if payload == nil {
			return generation.Payload{}, generation.MalformedResponse("client returned no payload", nil)
		}
		return *payload, nil
	}, generation.IsRetryable)

	return Outcome{
		RequestID: req.ID,
		Result:    result,
		Duration:  time.Since(start),
		Attempts:  attempts,
	}
}
