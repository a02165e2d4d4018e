// Package retry runs a fallible operation with exponential backoff. It is
// used by the batch workers and the single-item translation path to absorb
// transient generator failures (rate limits, 5xx responses, dropped
// connections) while staying responsive to cancellation.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/redact"
)

// SleepFunc waits for d or until ctx is done, returning ctx.Err() in the
// latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy configures Execute.
type Policy struct {
	// MaxAttempts is the total number of times the operation may run.
	// Values below 1 are treated as 1.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt. Every later wait
	// doubles the previous one.
	InitialDelay time.Duration

	// Logger receives one record per retry. Defaults to slog.Default().
	Logger *slog.Logger

	// Sleep overrides the wait between attempts. Defaults to SleepContext.
	Sleep SleepFunc

	// OnAttempt, if set, is called with the 1-based attempt number right
	// before each attempt.
	OnAttempt func(attempt int)
}

// DefaultPolicy returns a Policy with three attempts and a one second base delay.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
	}
}

// Backoff returns the wait that follows the given failed attempt:
// initial * 2^(attempt-1). It saturates instead of overflowing.
func Backoff(initial time.Duration, attempt int) time.Duration {
	if initial <= 0 || attempt < 1 {
		return 0
	}

	shift := attempt - 1
	if shift >= 62 || initial > time.Duration(math.MaxInt64>>uint(shift)) {
		return time.Duration(math.MaxInt64)
	}
	return initial << uint(shift)
}

// TotalBackoff returns the sum of the waits Execute may spend between
// attempts under p: initial * (2^(MaxAttempts-1) - 1). It saturates instead
// of overflowing.
func (p Policy) TotalBackoff() time.Duration {
	var total time.Duration
	for attempt := 1; attempt < p.MaxAttempts; attempt++ {
		d := Backoff(p.InitialDelay, attempt)
		if d > time.Duration(math.MaxInt64)-total {
			return time.Duration(math.MaxInt64)
		}
		total += d
	}
	return total
}

// SleepContext blocks for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs op until it succeeds, fails with an error isRetryable rejects,
// or policy.MaxAttempts attempts have been made, in which case the last
// failure is returned. A nil isRetryable makes every failure terminal.
//
// Cancellation is checked before every attempt and during every wait; when
// ctx is done the loop stops and the result carries a generation error of
// kind KindCancelled. label identifies the operation in log records only.
func Execute[T any](
	ctx context.Context,
	policy Policy,
	label string,
	op func(context.Context) (T, error),
	isRetryable func(error) bool,
) fn.Result[T] {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	sleep := policy.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	logger := policy.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			logger.DebugContext(ctx, "operation cancelled before attempt",
				"operation", label,
				"attempt", attempt)
			return fn.Err[T](generation.Cancelled(err))
		}

		if policy.OnAttempt != nil {
			policy.OnAttempt(attempt)
		}

		val, err := op(ctx)
		if err == nil {
			return fn.Ok(val)
		}
		lastErr = err

		if isRetryable == nil || !isRetryable(err) {
			return fn.Err[T](err)
		}

		if attempt == maxAttempts {
			break
		}

		delay := Backoff(policy.InitialDelay, attempt)
		logger.InfoContext(ctx, "retrying after transient failure",
			"operation", label,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", redact.Error(err))

		if err := sleep(ctx, delay); err != nil {
			logger.DebugContext(ctx, "operation cancelled during retry delay",
				"operation", label,
				"attempt", attempt)
			return fn.Err[T](generation.Cancelled(err))
		}
	}

	logger.WarnContext(ctx, "retry attempts exhausted",
		"operation", label,
		"max_attempts", maxAttempts,
		"error", redact.Error(lastErr))

	return fn.Err[T](lastErr)
}
