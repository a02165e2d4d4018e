package retry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// fakeSleeper records requested delays instead of waiting.
type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	// cancel, if set, is invoked on the given sleep call (1-based).
	cancelOn int
	cancel   context.CancelFunc
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	n := len(s.delays)
	s.mu.Unlock()

	if s.cancel != nil && n == s.cancelOn {
		s.cancel()
	}
	return ctx.Err()
}

func (s *fakeSleeper) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// scriptedOp fails with the queued errors in order, then succeeds.
type scriptedOp struct {
	errs  []error
	calls int
}

func (o *scriptedOp) Run(_ context.Context) (string, error) {
	o.calls++
	if o.calls <= len(o.errs) {
		return "", o.errs[o.calls-1]
	}
	return "ok", nil
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testPolicy(t *testing.T, sleeper *fakeSleeper, attempts int) (Policy, *logger.TestLogBuffer) {
	t.Helper()
	log, buf := logger.NewTestLogger(t)
	return Policy{
		MaxAttempts:  attempts,
		InitialDelay: 100 * time.Millisecond,
		Logger:       log,
		Sleep:        sleeper.Sleep,
	}, buf
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		initial time.Duration
		attempt int
		want    time.Duration
	}{
		{initial: time.Second, attempt: 1, want: time.Second},
		{initial: time.Second, attempt: 2, want: 2 * time.Second},
		{initial: time.Second, attempt: 3, want: 4 * time.Second},
		{initial: 250 * time.Millisecond, attempt: 4, want: 2 * time.Second},
		{initial: 0, attempt: 3, want: 0},
		{initial: time.Second, attempt: 0, want: 0},
		{initial: time.Hour, attempt: 80, want: time.Duration(1<<63 - 1)},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, Backoff(tc.initial, tc.attempt),
			"Backoff(%v, %d)", tc.initial, tc.attempt)
	}
}

func TestPolicyTotalBackoff(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   time.Duration
	}{
		{name: "single attempt", policy: Policy{MaxAttempts: 1, InitialDelay: time.Second}, want: 0},
		{name: "three attempts", policy: Policy{MaxAttempts: 3, InitialDelay: time.Second}, want: 3 * time.Second},
		{name: "five attempts", policy: Policy{MaxAttempts: 5, InitialDelay: 100 * time.Millisecond}, want: 1500 * time.Millisecond},
		{name: "no delay", policy: Policy{MaxAttempts: 4}, want: 0},
		{name: "saturates", policy: Policy{MaxAttempts: 100, InitialDelay: time.Hour}, want: time.Duration(1<<63 - 1)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.policy.TotalBackoff())
		})
	}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy, _ := testPolicy(t, sleeper, 3)
	op := &scriptedOp{}

	result := Execute(context.Background(), policy, "translate", op.Run, generation.IsRetryable)

	val, err := result.Unpack()
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 1, op.calls)
	assert.Empty(t, sleeper.Delays())
}

func TestExecuteNonRetryableShortCircuits(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy, _ := testPolicy(t, sleeper, 5)
	op := &scriptedOp{errs: []error{generation.Unauthorized(errors.New("bad key"))}}

	result := Execute(context.Background(), policy, "translate", op.Run, generation.IsRetryable)

	require.True(t, result.IsErr())
	assert.ErrorIs(t, result.Err(), generation.ErrUnauthorized)
	assert.Equal(t, 1, op.calls, "non-retryable failures must not be retried")
	assert.Empty(t, sleeper.Delays())
}

func TestExecuteNilPredicateIsTerminal(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy, _ := testPolicy(t, sleeper, 3)
	op := &scriptedOp{errs: []error{generation.RateLimited(nil)}}

	result := Execute(context.Background(), policy, "translate", op.Run, nil)

	require.True(t, result.IsErr())
	assert.Equal(t, 1, op.calls)
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy, buf := testPolicy(t, sleeper, 4)
	last := generation.ServerError(503, errors.New("fourth"))
	op := &scriptedOp{errs: []error{
		generation.RateLimited(nil),
		generation.ServerError(500, nil),
		generation.Offline(errors.New("reset")),
		last,
	}}

	var observed []int
	policy.OnAttempt = func(attempt int) { observed = append(observed, attempt) }

	result := Execute(context.Background(), policy, "sentences", op.Run, generation.IsRetryable)

	require.True(t, result.IsErr())
	assert.Same(t, last, result.Err(), "the last failure should be returned")
	assert.Equal(t, 4, op.calls)
	assert.Equal(t, []int{1, 2, 3, 4}, observed)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, sleeper.Delays())

	retries, err := buf.EntriesWithMessage("retrying after transient failure")
	require.NoError(t, err)
	require.Len(t, retries, 3)
	assert.Equal(t, "sentences", retries[0]["operation"])
	assert.EqualValues(t, 1, retries[0]["attempt"])

	exhausted, err := buf.EntriesWithMessage("retry attempts exhausted")
	require.NoError(t, err)
	assert.Len(t, exhausted, 1)
}

func TestExecuteRecoversAfterTransientFailures(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy, _ := testPolicy(t, sleeper, 3)
	op := &scriptedOp{errs: []error{
		generation.RateLimited(nil),
		generation.RateLimited(nil),
	}}

	result := Execute(context.Background(), policy, "translate", op.Run, generation.IsRetryable)

	val, err := result.Unpack()
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, op.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, sleeper.Delays())
}

func TestExecuteCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeper := &fakeSleeper{cancelOn: 1, cancel: cancel}
	policy, _ := testPolicy(t, sleeper, 5)
	op := &scriptedOp{errs: []error{
		generation.RateLimited(nil),
		generation.RateLimited(nil),
	}}

	result := Execute(ctx, policy, "translate", op.Run, generation.IsRetryable)

	require.True(t, result.IsErr())
	assert.ErrorIs(t, result.Err(), generation.ErrCancelled)
	assert.ErrorIs(t, result.Err(), context.Canceled)
	assert.Equal(t, 1, op.calls, "no attempt may start after cancellation")
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sleeper := &fakeSleeper{}
	policy, _ := testPolicy(t, sleeper, 3)
	op := &scriptedOp{}

	result := Execute(ctx, policy, "translate", op.Run, generation.IsRetryable)

	require.True(t, result.IsErr())
	assert.Equal(t, generation.KindCancelled, generation.KindOf(result.Err()))
	assert.Zero(t, op.calls)
}

func TestExecuteZeroAttemptsRunsOnce(t *testing.T) {
	sleeper := &fakeSleeper{}
	policy, _ := testPolicy(t, sleeper, 0)
	op := &scriptedOp{errs: []error{generation.RateLimited(nil)}}

	result := Execute(context.Background(), policy, "translate", op.Run, generation.IsRetryable)

	require.True(t, result.IsErr())
	assert.Equal(t, 1, op.calls)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, SleepContext(ctx, 0), context.Canceled)
}

// TestExecuteAttemptBound checks that for any failure script the number of
// attempts never exceeds MaxAttempts and that every delay doubles the last.
func TestExecuteAttemptBound(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		maxAttempts := rapid.IntRange(1, 8).Draw(rt, "maxAttempts")
		failures := rapid.IntRange(0, 10).Draw(rt, "failures")
		retryable := rapid.Bool().Draw(rt, "retryable")

		errs := make([]error, failures)
		for i := range errs {
			if retryable {
				errs[i] = generation.RateLimited(nil)
			} else {
				errs[i] = generation.ClientError(400, nil)
			}
		}

		sleeper := &fakeSleeper{}
		op := &scriptedOp{errs: errs}
		policy := Policy{
			MaxAttempts:  maxAttempts,
			InitialDelay: 10 * time.Millisecond,
			Logger:       nopLogger(),
			Sleep:        sleeper.Sleep,
		}

		result := Execute(context.Background(), policy, "prop", op.Run, generation.IsRetryable)

		require.LessOrEqual(rt, op.calls, maxAttempts)

		switch {
		case failures == 0:
			require.True(rt, result.IsOk())
			require.Equal(rt, 1, op.calls)
		case !retryable:
			require.True(rt, result.IsErr())
			require.Equal(rt, 1, op.calls)
		case failures < maxAttempts:
			require.True(rt, result.IsOk())
			require.Equal(rt, failures+1, op.calls)
		default:
			require.True(rt, result.IsErr())
			require.Equal(rt, maxAttempts, op.calls)
		}

		delays := sleeper.Delays()
		require.Len(rt, delays, op.calls-1)
		for i, d := range delays {
			require.Equal(rt, Backoff(policy.InitialDelay, i+1), d)
		}
	})
}
