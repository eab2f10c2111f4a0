package brk

import (
	"context"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------.

type (
	circuitBreakerConfig struct {
		failureThreshold int
		breakDuration    time.Duration
	}

	// CircuitBreakerOption configures a circuit breaker.
	CircuitBreakerOption func(*circuitBreakerConfig)

	// CircuitBreaker tracks consecutive failures of a dependency and fails
	// fast while it's down.
	//
	// Pattern: Circuit Breaker — fast-fails calls to an unhealthy
	// downstream; recovers lazily via a single half-open probe once the
	// break window elapses. Lock-free via atomic CAS, so concurrent calls
	// racing on the closed→open edge trip the breaker exactly once, and
	// only one call at a time occupies the half-open trial slot.
	CircuitBreaker struct {
		clock Clock
		hooks *Hooks
		cfg   circuitBreakerConfig

		state        atomic.Uint32 // stateClosed | stateOpen | stateHalfOpen
		failures     atomic.Int64  // consecutive failures while closed
		openedAtNano atomic.Int64  // unix nano of the last open transition
		probing      atomic.Bool   // half-open trial slot
	}
)

// Circuit breaker states (stored in atomic.Uint32).
const (
	stateClosed   uint32 = 0
	stateOpen     uint32 = 1
	stateHalfOpen uint32 = 2
)

func defaultCircuitBreakerConfig() circuitBreakerConfig {
	return circuitBreakerConfig{
		failureThreshold: 5,
		breakDuration:    30 * time.Second,
	}
}

// FailureThreshold sets the number of consecutive failures before opening.
func FailureThreshold(n int) CircuitBreakerOption {
	return func(cfg *circuitBreakerConfig) {
		cfg.failureThreshold = n
	}
}

// BreakDuration sets how long the breaker stays open before the next call
// is admitted as a half-open trial.
func BreakDuration(d time.Duration) CircuitBreakerOption {
	return func(cfg *circuitBreakerConfig) {
		cfg.breakDuration = d
	}
}

// NewCircuitBreaker creates a circuit breaker with the given options.
func NewCircuitBreaker(
	clock Clock,
	hooks *Hooks,
	opts ...CircuitBreakerOption,
) *CircuitBreaker {
	cfg := defaultCircuitBreakerConfig()
	for _, o := range opts {
		o(&cfg)
	}

	return &CircuitBreaker{
		clock: clock,
		hooks: hooks,
		cfg:   cfg,
	}
}

// Allow checks whether a call should be admitted. Returns nil when the
// breaker is closed, or when the caller wins the half-open trial slot.
// Returns ErrCircuitOpen when the breaker is open and the break window
// hasn't elapsed, and for any call arriving while a trial is outstanding.
//
// The open→half-open transition is lazy: it happens on the first call that
// arrives at or after openedAt+breakDuration, and that call becomes the
// trial. If no calls arrive, the breaker simply stays open.
func (cb *CircuitBreaker) Allow() error {
	switch cb.state.Load() {
	case stateOpen:
		openedAt := time.Unix(0, cb.openedAtNano.Load())
		if cb.clock.Since(openedAt) < cb.cfg.breakDuration {
			return ErrCircuitOpen
		}

		// Invariant: probing is already false on entry to half-open,
		// since every transition out of half-open clears it. Touching it
		// here would release a slot a racing caller may already hold.
		if cb.state.CompareAndSwap(stateOpen, stateHalfOpen) {
			cb.hooks.emitHalfOpen()
		}
		// Even if the CAS lost (another goroutine already transitioned),
		// the state is now half-open: fall through to the trial slot.
		return cb.acquireProbe()

	case stateHalfOpen:
		return cb.acquireProbe()

	default:
		// stateClosed: every call is admitted.
		return nil
	}
}

// acquireProbe claims the single half-open trial slot. Losers are treated
// as if the breaker were still open.
func (cb *CircuitBreaker) acquireProbe() error {
	if cb.probing.CompareAndSwap(false, true) {
		return nil
	}

	return ErrCircuitOpen
}

// RecordSuccess records a successful call. While closed it resets the
// consecutive failure counter; a successful half-open trial closes the
// breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	switch cb.state.Load() {
	case stateClosed:
		cb.failures.Store(0)

	case stateHalfOpen:
		if !cb.state.CompareAndSwap(stateHalfOpen, stateClosed) {
			break
		}

		cb.failures.Store(0)
		cb.probing.Store(false)
		cb.hooks.emitReset()

	default:
		// stateOpen — no call ran, nothing to record
	}
}

// RecordFailure records a failed call with its cause. Use [CircuitBreaker.Abandon]
// instead for caller-initiated aborts, which carry no verdict about the
// dependency.
func (cb *CircuitBreaker) RecordFailure(cause error) {
	switch cb.state.Load() {
	case stateClosed:
		if cb.failures.Add(1) < int64(cb.cfg.failureThreshold) {
			break
		}

		// The timestamp must be visible before the Open state is: a
		// concurrent Allow that observes Open must also observe a window
		// that has just started.
		cb.openedAtNano.Store(cb.clock.Now().UnixNano())

		if !cb.state.CompareAndSwap(stateClosed, stateOpen) {
			break
		}

		cb.hooks.emitBreak(cause, cb.cfg.breakDuration)

	case stateHalfOpen:
		// A failed trial re-opens and restarts the break window. Same
		// ordering as above: timestamp first, then the state flip, and
		// the trial slot is released only once both are visible. A
		// caller racing with the transition is rejected either by the
		// occupied slot or by the fresh window.
		cb.openedAtNano.Store(cb.clock.Now().UnixNano())

		if !cb.state.CompareAndSwap(stateHalfOpen, stateOpen) {
			break
		}

		cb.probing.Store(false)
		cb.hooks.emitBreak(cause, cb.cfg.breakDuration)

	default:
		// stateOpen — already open, no state change needed
	}
}

// Abandon releases the half-open trial slot without recording a verdict.
// Called when the trial was cancelled by the caller rather than failed by
// the dependency: counters stay untouched and the next call becomes the new
// probe. A no-op outside the half-open state.
func (cb *CircuitBreaker) Abandon() {
	if cb.state.Load() == stateHalfOpen {
		cb.probing.Store(false)
	}
}

// Do runs fn through the breaker's admission check and records the verdict.
// It is the standalone entry point for callers that want the breaker
// without the surrounding pipeline. Caller cancellation is not recorded as
// a failure.
func (cb *CircuitBreaker) Do(
	ctx context.Context,
	fn func(context.Context) error,
) error {
	if err := cb.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	switch {
	case err == nil:
		cb.RecordSuccess()
	case isCancellation(err) && ctx.Err() != nil:
		cb.Abandon()
	default:
		cb.RecordFailure(err)
	}

	return err
}

// State returns the current state as a string: "closed", "open", or
// "half_open".
func (cb *CircuitBreaker) State() string {
	switch cb.state.Load() {
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Failures returns the current consecutive failure count. Exposed for
// observability; it resets to zero on any success while closed.
func (cb *CircuitBreaker) Failures() int64 {
	return cb.failures.Load()
}
