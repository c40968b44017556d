package resilience

import (
	"context"
	"sync"
	"time"
)

// RateWindowConfig bounds throughput to the external generation provider.
type RateWindowConfig struct {
	// MaxRequestsPerMinute caps request starts within a sliding minute.
	MaxRequestsPerMinute int

	// MaxTokensPerMinute caps reported token usage within a sliding minute.
	MaxTokensPerMinute int

	// MaxConcurrentRequests caps in-flight invocations.
	MaxConcurrentRequests int

	// PollInterval is how often Acquire re-checks availability. Polling on
	// a short fixed interval avoids indefinite blocking on a single
	// condition and keeps waiters from starving each other.
	PollInterval time.Duration
}

// DefaultRateWindowConfig returns a configuration with sensible defaults.
func DefaultRateWindowConfig() RateWindowConfig {
	return RateWindowConfig{
		MaxRequestsPerMinute:  60,
		MaxTokensPerMinute:    90_000,
		MaxConcurrentRequests: 8,
		PollInterval:          100 * time.Millisecond,
	}
}

// tokenEvent records token usage at a point in time.
type tokenEvent struct {
	at time.Time
	n  int
}

// RateWindow is the process-wide sliding window of request and token
// counts gating every action invocation. It is the only shared mutable
// state across runs and is protected by a single mutex; everything else
// in the engine is run-scoped.
type RateWindow struct {
	cfg RateWindowConfig

	mu       sync.Mutex
	requests []time.Time
	tokens   []tokenEvent
	inflight int

	now func() time.Time
}

// NewRateWindow creates a rate window with the given configuration.
// Zero-valued limits fall back to defaults.
func NewRateWindow(cfg RateWindowConfig) *RateWindow {
	def := DefaultRateWindowConfig()
	if cfg.MaxRequestsPerMinute <= 0 {
		cfg.MaxRequestsPerMinute = def.MaxRequestsPerMinute
	}
	if cfg.MaxTokensPerMinute <= 0 {
		cfg.MaxTokensPerMinute = def.MaxTokensPerMinute
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = def.MaxConcurrentRequests
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	return &RateWindow{cfg: cfg, now: time.Now}
}

// Acquire blocks until a request slot is available or the context is done.
// On success the in-flight counter is incremented and a request is charged
// to the window; the caller must Release.
func (w *RateWindow) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.tryAcquire() {
			return nil
		}

		timer := time.NewTimer(w.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire charges a request slot if the window allows it.
func (w *RateWindow) tryAcquire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.sweep(now)

	if w.inflight >= w.cfg.MaxConcurrentRequests {
		return false
	}
	if len(w.requests) >= w.cfg.MaxRequestsPerMinute {
		return false
	}
	if w.tokenCount() >= w.cfg.MaxTokensPerMinute {
		return false
	}

	w.requests = append(w.requests, now)
	w.inflight++
	return true
}

// Release ends an in-flight invocation and charges its token usage to the
// sliding window.
func (w *RateWindow) Release(tokensUsed int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.inflight > 0 {
		w.inflight--
	}
	if tokensUsed > 0 {
		w.tokens = append(w.tokens, tokenEvent{at: w.now(), n: tokensUsed})
	}
}

// Snapshot returns the current window counters, mainly for logs and tests.
func (w *RateWindow) Snapshot() (requests, tokens, inflight int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.sweep(w.now())
	return len(w.requests), w.tokenCount(), w.inflight
}

// sweep drops window entries older than one minute. Callers hold the lock.
func (w *RateWindow) sweep(now time.Time) {
	cutoff := now.Add(-time.Minute)

	keepReq := w.requests[:0]
	for _, t := range w.requests {
		if t.After(cutoff) {
			keepReq = append(keepReq, t)
		}
	}
	w.requests = keepReq

	keepTok := w.tokens[:0]
	for _, e := range w.tokens {
		if e.at.After(cutoff) {
			keepTok = append(keepTok, e)
		}
	}
	w.tokens = keepTok
}

// tokenCount sums token usage in the window. Callers hold the lock.
func (w *RateWindow) tokenCount() int {
	total := 0
	for _, e := range w.tokens {
		total += e.n
	}
	return total
}
