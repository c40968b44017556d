package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"

	"github.com/inkwell-labs/storyplan/domain/action"
	"github.com/inkwell-labs/storyplan/domain/world"
	"github.com/inkwell-labs/storyplan/infrastructure/logging"
)

// Outcome is the result of a resilient action invocation.
type Outcome struct {
	// Patch is the world delta produced by the invocation. Set on success
	// and on degraded fallback; nil when the invocation failed fast.
	Patch world.Patch

	// Content is placeholder text when the result is degraded.
	Content string

	// Degraded marks template-fallback output.
	Degraded bool

	// Retries is the total number of re-attempts across all error kinds.
	Retries int

	// Kind is the last classified failure, empty on clean success.
	Kind ErrorKind

	// Model is the model the invocation was issued against.
	Model string

	// Duration is the wall time of the whole invocation including waits.
	Duration time.Duration
}

// ExecutorConfig configures the resilient executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent invocations. It should match the
	// rate window's concurrency cap.
	MaxConcurrent int

	// CircuitBreakerThreshold is the number of consecutive failures
	// before the breaker opens.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// InvocationTimeout bounds one whole invocation: every attempt plus
	// every backoff wait between them.
	InvocationTimeout time.Duration

	// TokenEstimate is the flat per-call token charge reported to the
	// rate window. Real usage accounting would come from the provider;
	// a flat estimate keeps the window conservative without it.
	TokenEstimate int
}

// DefaultExecutorConfig returns a configuration with sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent:           8,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		InvocationTimeout:       60 * time.Second,
		TokenEstimate:           1200,
	}
}

// Executor runs action invocations with bulkhead concurrency control,
// sliding-window rate limiting, a circuit breaker around the external
// call, kind-classified retries, and deterministic template fallback
// once retries are exhausted.
type Executor struct {
	cfg      ExecutorConfig
	bulkhead bulkhead.Bulkhead[Outcome]
	breaker  circuitbreaker.CircuitBreaker[world.Patch]
	window   *RateWindow
	fallback *TemplateFallback

	// sleep is replaced in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates a resilient executor sharing the given rate window.
func NewExecutor(cfg ExecutorConfig, window *RateWindow) *Executor {
	def := DefaultExecutorConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = def.CircuitBreakerThreshold
	}
	if cfg.CircuitBreakerTimeout <= 0 {
		cfg.CircuitBreakerTimeout = def.CircuitBreakerTimeout
	}
	if cfg.InvocationTimeout <= 0 {
		cfg.InvocationTimeout = def.InvocationTimeout
	}
	if cfg.TokenEstimate <= 0 {
		cfg.TokenEstimate = def.TokenEstimate
	}
	if window == nil {
		window = NewRateWindow(DefaultRateWindowConfig())
	}

	threshold := uint32(cfg.CircuitBreakerThreshold) // #nosec G115 -- bounds checked above

	return &Executor{
		cfg: cfg,
		bulkhead: bulkhead.New[Outcome](bulkhead.Config{
			MaxConcurrent: cfg.MaxConcurrent,
		}),
		breaker: circuitbreaker.New[world.Patch](circuitbreaker.Config{
			MaxRequests: uint32(cfg.MaxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    cfg.CircuitBreakerTimeout,
			Timeout:     cfg.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
		window:   window,
		fallback: NewTemplateFallback(),
		sleep:    sleepCtx,
	}
}

// Window exposes the shared rate window.
func (e *Executor) Window() *RateWindow {
	return e.window
}

// Execute runs an action invocation to completion. A recoverable failure
// is retried per its classified kind; exhausted retries degrade to the
// template fallback. Fail-fast kinds and context cancellation return the
// error with no patch. The invocation deadline caps total wall time,
// retries and backoff waits included.
//
// Composition order: timeout, bulkhead, rate window, circuit breaker.
func (e *Executor) Execute(ctx context.Context, act action.Action, view world.State, inv action.Invocation) (Outcome, error) {
	if act.Invoke == nil {
		return Outcome{}, action.ErrNoInvoker
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.InvocationTimeout)
	defer cancel()

	start := time.Now()
	out, err := e.bulkhead.Execute(ctx, func(ctx context.Context) (Outcome, error) {
		return e.attemptLoop(ctx, act, view, inv)
	})
	out.Model = inv.Model
	out.Duration = time.Since(start)
	return out, err
}

// attemptLoop drives the classified retry cycle for one invocation.
// Retry budgets are tracked per error kind so a rate-limit storm does not
// consume the timeout budget and vice versa.
func (e *Executor) attemptLoop(ctx context.Context, act action.Action, view world.State, inv action.Invocation) (Outcome, error) {
	retriesByKind := make(map[ErrorKind]int)
	totalRetries := 0

	for {
		if err := ctx.Err(); err != nil {
			return Outcome{Retries: totalRetries}, err
		}
		if err := e.window.Acquire(ctx); err != nil {
			return Outcome{Retries: totalRetries}, err
		}

		inv.Attempt = totalRetries
		patch, err := e.callOnce(ctx, act, view, inv)
		e.window.Release(e.cfg.TokenEstimate)

		if err == nil {
			return Outcome{Patch: patch, Retries: totalRetries}, nil
		}

		kind := Classify(err)
		strat := StrategyFor(kind)

		if strat.Fallback == FallbackFailFast {
			logging.Error().
				Add(logging.ActionID(act.ID)).
				Add(logging.ErrorKind(string(kind))).
				Add(logging.ErrorField(err)).
				Msg("invocation failed fast")
			return Outcome{Retries: totalRetries, Kind: kind}, err
		}

		if retriesByKind[kind] >= strat.MaxRetries {
			logging.Warn().
				Add(logging.ActionID(act.ID)).
				Add(logging.ErrorKind(string(kind))).
				Add(logging.Attempt(totalRetries)).
				Msg("retries exhausted, degrading to template")
			fb := e.fallback.Produce(act, view)
			return Outcome{
				Patch:    fb.Patch,
				Content:  fb.Content,
				Degraded: true,
				Retries:  totalRetries,
				Kind:     kind,
			}, nil
		}

		if strat.Fallback == FallbackReduceContext {
			inv.ReduceContext = true
		}

		delay := strat.DelayFor(retriesByKind[kind])
		retriesByKind[kind]++
		totalRetries++

		logging.Debug().
			Add(logging.ActionID(act.ID)).
			Add(logging.ErrorKind(string(kind))).
			Add(logging.Attempt(totalRetries)).
			Add(logging.Duration(delay)).
			Msg("retrying invocation")

		if delay > 0 {
			if err := e.sleep(ctx, delay); err != nil {
				return Outcome{Retries: totalRetries, Kind: kind}, err
			}
		}
	}
}

// callOnce makes a single attempt under the circuit breaker. The
// invocation-wide deadline set in Execute bounds the attempt.
func (e *Executor) callOnce(ctx context.Context, act action.Action, view world.State, inv action.Invocation) (world.Patch, error) {
	return e.breaker.Execute(ctx, func(ctx context.Context) (world.Patch, error) {
		return act.Invoke(ctx, view, inv)
	})
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
