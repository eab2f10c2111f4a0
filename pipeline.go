package brk

import (
	"context"
	"time"
)

// ---------------------------------------------------------------------------
// Pipeline[T] — the central integration type
// ---------------------------------------------------------------------------

// Pipeline composes the circuit breaker and the bounded retry loop behind a
// single [Pipeline.Execute] method. Use [NewPipeline] with functional
// options to configure it.
//
// The stage order is fixed and deliberate: the breaker is outermost, the
// retry loop innermost. An open circuit rejects the call before any attempt
// is made, and the breaker's failure counter advances by at most one per
// external call, driven by the outcome of the entire retried sequence
// rather than per-attempt noise.
type Pipeline[T any] struct {
	name  string
	hooks Hooks
	clock Clock
	chain Middleware[T]

	// Breaker reference, kept for state reporting (nil with WithoutBreaker).
	cb *CircuitBreaker

	// Registry this pipeline is registered with (nil if anonymous or opted
	// out).
	registry *Registry
}

// Name returns the pipeline's name.
func (p *Pipeline[T]) Name() string { return p.name }

// Execute runs fn through the composed stages: admission check first, then
// the attempt loop, then one breaker verdict for the aggregate outcome.
func (p *Pipeline[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	wrapped := p.chain(fn)
	return wrapped(ctx)
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// settings holds configuration collected during NewPipeline. All fields are
// non-generic, so options stay plain typed functions.
type settings struct {
	clock      Clock
	hooks      Hooks
	registry   *Registry
	cbOpts     []CircuitBreakerOption
	retryOpts  []RetryOption
	delay      DelayStrategy
	maxRetries int
	noBreaker  bool
}

// Option configures a [Pipeline].
type Option func(*settings)

// WithClock sets the clock used by the breaker and the retry delays.
func WithClock(c Clock) Option {
	return func(s *settings) {
		s.clock = c
	}
}

// WithHooks sets the lifecycle hooks observed by the pipeline.
func WithHooks(h Hooks) Option {
	return func(s *settings) {
		s.hooks = h
	}
}

// WithRegistry sets an explicit registry for the pipeline to register with.
// If not provided, named pipelines auto-register with DefaultRegistry.
func WithRegistry(reg *Registry) Option {
	return func(s *settings) {
		s.registry = reg
	}
}

// WithFailureThreshold sets the number of consecutive failed calls that
// trips the breaker open.
func WithFailureThreshold(n int) Option {
	return func(s *settings) {
		s.cbOpts = append(s.cbOpts, FailureThreshold(n))
	}
}

// WithBreakDuration sets how long the breaker stays open before admitting a
// half-open trial.
func WithBreakDuration(d time.Duration) Option {
	return func(s *settings) {
		s.cbOpts = append(s.cbOpts, BreakDuration(d))
	}
}

// WithMaxRetries sets how many times a failed call is re-attempted. The
// count excludes the first attempt: WithMaxRetries(3) runs the operation up
// to 4 times. Zero (the default) disables retries.
func WithMaxRetries(n int) Option {
	return func(s *settings) {
		s.maxRetries = n
	}
}

// WithDelay sets the delay strategy between retries. The default is
// [NoDelay]: immediate re-attempt.
func WithDelay(ds DelayStrategy) Option {
	return func(s *settings) {
		s.delay = ds
	}
}

// WithRetryOptions forwards additional retry configuration such as
// [PerAttemptTimeout] and [RetryIf].
func WithRetryOptions(opts ...RetryOption) Option {
	return func(s *settings) {
		s.retryOpts = append(s.retryOpts, opts...)
	}
}

// WithoutBreaker builds a retry-only pipeline. Meant for callers that
// layer their own admission control; the default pipeline carries both
// stages.
func WithoutBreaker() Option {
	return func(s *settings) {
		s.noBreaker = true
	}
}

// ---------------------------------------------------------------------------
// NewPipeline[T] — construct and wire up the stages
// ---------------------------------------------------------------------------

// NewPipeline creates a new [Pipeline] with the given name and options.
// Named pipelines auto-register with [DefaultRegistry] unless an explicit
// registry is given via [WithRegistry].
func NewPipeline[T any](name string, opts ...Option) *Pipeline[T] {
	s := settings{
		delay: NoDelay(),
	}

	for _, opt := range opts {
		opt(&s)
	}

	if s.clock == nil {
		s.clock = RealClock{}
	}

	hooks := s.hooks
	clock := s.clock
	maxRetries := s.maxRetries
	delay := s.delay
	retryOpts := s.retryOpts

	var (
		mws []Middleware[T]
		cb  *CircuitBreaker
	)

	if !s.noBreaker {
		cb = NewCircuitBreaker(clock, &hooks, s.cbOpts...)
		cbRef := cb
		mws = append(mws, func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
			return func(ctx context.Context) (T, error) {
				if err := cbRef.Allow(); err != nil {
					var zero T
					return zero, err
				}

				val, err := next(ctx)
				switch {
				case err == nil:
					cbRef.RecordSuccess()
				case isCancellation(err) && ctx.Err() != nil:
					// Caller abort, not a dependency verdict.
					cbRef.Abandon()
				default:
					cbRef.RecordFailure(err)
				}

				return val, err
			}
		})
	}

	mws = append(mws, func(next func(context.Context) (T, error)) func(context.Context) (T, error) {
		return func(ctx context.Context) (T, error) {
			return DoAttempts[T](ctx, maxRetries, delay, next, &hooks, clock, retryOpts...)
		}
	})

	chain := Chain[T](mws...)

	// Auto-register if the pipeline has a name.
	var reg *Registry
	if name != "" {
		reg = s.registry
		if reg == nil {
			reg = DefaultRegistry()
		}
	}

	p := &Pipeline[T]{
		name:     name,
		hooks:    hooks,
		clock:    clock,
		chain:    chain,
		cb:       cb,
		registry: reg,
	}

	if reg != nil && name != "" {
		reg.Register(p)
	}

	return p
}
