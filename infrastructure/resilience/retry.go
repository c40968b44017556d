package resilience

import (
	"math/rand/v2"
	"time"
)

// FallbackAction is the recovery step a strategy prescribes once its
// retries run out, or instead of retrying at all.
type FallbackAction string

const (
	// FallbackNone means exhausting retries degrades to template output.
	FallbackNone FallbackAction = ""

	// FallbackReduceContext means retry once with a reduced prompt
	// context before degrading.
	FallbackReduceContext FallbackAction = "reduce_context"

	// FallbackFailFast means the failure is not recoverable and must
	// surface immediately.
	FallbackFailFast FallbackAction = "fail_fast"
)

// Strategy describes how a classified failure is retried.
type Strategy struct {
	ShouldRetry bool
	MaxRetries  int
	Fallback    FallbackAction

	// base delay; the actual delay may grow per attempt (see DelayFor).
	baseDelay   time.Duration
	exponential bool
}

const (
	rateLimitBase = 1 * time.Second
	rateLimitCap  = 60 * time.Second
	maxJitter     = 1 * time.Second
)

// StrategyFor returns the retry strategy for a classified failure.
func StrategyFor(kind ErrorKind) Strategy {
	switch kind {
	case KindRateLimit:
		return Strategy{ShouldRetry: true, MaxRetries: 5, baseDelay: rateLimitBase, exponential: true}
	case KindTimeout:
		return Strategy{ShouldRetry: true, MaxRetries: 2, baseDelay: 2 * time.Second}
	case KindServerError:
		return Strategy{ShouldRetry: true, MaxRetries: 3, baseDelay: 5 * time.Second}
	case KindContextTooLong:
		return Strategy{ShouldRetry: true, MaxRetries: 1, Fallback: FallbackReduceContext}
	case KindNetworkError:
		return Strategy{ShouldRetry: true, MaxRetries: 3, baseDelay: 3 * time.Second}
	case KindAuthError, KindInvalidRequest:
		return Strategy{ShouldRetry: false, Fallback: FallbackFailFast}
	default:
		return Strategy{ShouldRetry: true, MaxRetries: 3, baseDelay: 5 * time.Second}
	}
}

// DelayFor returns the backoff before the given zero-based retry attempt.
// Exponential strategies use min(base*2^attempt + jitter(0..1s), 60s);
// everything else waits the fixed base delay.
func (s Strategy) DelayFor(attempt int) time.Duration {
	if !s.exponential {
		return s.baseDelay
	}
	if attempt > 30 {
		attempt = 30 // avoid shift overflow; capped below anyway
	}
	d := s.baseDelay * (1 << uint(attempt))
	d += time.Duration(rand.Int64N(int64(maxJitter)))
	if d > rateLimitCap {
		d = rateLimitCap
	}
	return d
}
