package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Retry gates retry timing for failed model and tool calls. It never
// resolves an error itself: every hook returns a nil recovery value,
// which tells the host to let the failure continue (or to retry, when
// the host retries on propagated errors). What Retry adds is the
// pacing: while a call site is under its attempt budget the hook
// sleeps an exponential backoff before returning.
//
// Attempt counters are keyed by call-site identity (tool name for tool
// calls, invocation id for model calls) and guarded by a mutex, so one
// Retry instance may sit in stacks that run concurrently.
type Retry struct {
	maxAttempts int
	baseDelay   time.Duration

	mu       sync.Mutex
	attempts map[string]int
}

// NewRetry returns a Retry allowing maxAttempts per call site with an
// exponential backoff starting at baseDelay. A zero baseDelay disables
// the wait and leaves only the bookkeeping.
func NewRetry(maxAttempts int, baseDelay time.Duration) *Retry {
	return &Retry{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		attempts:    make(map[string]int),
	}
}

// OnModelError paces model-call retries. Always returns a nil
// recovery value.
func (r *Retry) OnModelError(ctx context.Context, inv *Invocation, _ *ModelRequest, callErr error) (*ModelResponse, error) {
	return nil, r.gate(ctx, "model/"+inv.InvocationID, callErr)
}

// OnToolError paces tool-call retries. Always returns a nil recovery
// value.
func (r *Retry) OnToolError(ctx context.Context, _ *Invocation, tool string, _ map[string]any, callErr error) (map[string]any, error) {
	return nil, r.gate(ctx, "tool/"+tool, callErr)
}

func (r *Retry) gate(ctx context.Context, key string, callErr error) error {
	r.mu.Lock()
	r.attempts[key]++
	attempt := r.attempts[key]
	r.mu.Unlock()

	if attempt >= r.maxAttempts {
		log.Debug().Str("call", key).Int("attempts", attempt).Err(callErr).Msg("retry budget exhausted")
		return nil
	}

	delay := r.backoff(attempt)
	if delay <= 0 {
		return nil
	}

	log.Debug().Str("call", key).Int("attempt", attempt).Dur("backoff", delay).Msg("delaying before retry")
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoff doubles the base delay per completed attempt.
func (r *Retry) backoff(attempt int) time.Duration {
	delay := r.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}
