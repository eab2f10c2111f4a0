package brk

import (
	"context"
	"fmt"
	"time"
)

// retryConfig holds the optional configuration for retry behavior.
type retryConfig struct {
	perAttemptTimeout time.Duration    // 0 means no per-attempt timeout
	retryIf           func(error) bool // nil means retry every recoverable failure
}

// RetryOption configures retry behavior.
type RetryOption func(*retryConfig)

// PerAttemptTimeout sets a timeout for each individual attempt. The attempt
// runs under a derived context; the overall call keeps going as long as
// retries remain and the caller's context is alive.
func PerAttemptTimeout(d time.Duration) RetryOption {
	return func(cfg *retryConfig) {
		cfg.perAttemptTimeout = d
	}
}

// RetryIf sets a custom predicate that decides whether a failure is worth
// re-attempting, in addition to the Unrecoverable classification.
func RetryIf(fn func(error) bool) RetryOption {
	return func(cfg *retryConfig) {
		cfg.retryIf = fn
	}
}

// Pattern: Bounded Retry — re-invokes a failing operation a fixed number of
// times; the classification contract is the error return itself: nil is
// success, everything else is a retryable failure unless marked
// Unrecoverable or vetoed by RetryIf.

// DoAttempts executes fn and re-invokes it on failure up to maxRetries
// times — maxRetries counts retries, not attempts, so a permanently failing
// fn runs exactly maxRetries+1 times. The delay strategy decides the wait
// between attempts; [NoDelay] re-attempts immediately.
//
// Caller cancellation aborts the loop at once: remaining retries are
// skipped and ctx.Err() is returned. Once every retry is consumed the last
// failure cause is returned wrapped in [ErrRetriesExhausted] (when retries
// were configured), so callers can tell "attempted and gave up" apart from
// a rejection that never ran; errors.Is and errors.As still reach the
// cause.
func DoAttempts[T any](
	ctx context.Context,
	maxRetries int,
	delay DelayStrategy,
	fn func(context.Context) (T, error),
	hooks *Hooks,
	clock Clock,
	opts ...RetryOption,
) (T, error) {
	var cfg retryConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	if delay == nil {
		delay = NoDelay()
	}

	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		// Execute fn, optionally under a per-attempt deadline.
		var result T
		var err error
		if cfg.perAttemptTimeout > 0 {
			attemptCtx, attemptCancel := context.WithTimeout(ctx, cfg.perAttemptTimeout)
			result, err = fn(attemptCtx)
			attemptCancel()
		} else {
			result, err = fn(ctx)
		}

		// On success: return the result immediately, fresh counter next call.
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Caller cancelled: abort without emitting OnRetry.
		if ctx.Err() != nil {
			return zero, ctx.Err() //nolint:wrapcheck // preserving context error identity
		}

		// Unrecoverable failures stop the loop at once.
		if IsUnrecoverable(err) {
			return zero, err
		}

		if cfg.retryIf != nil && !cfg.retryIf(err) {
			return zero, err
		}

		// Last attempt: no hook, no sleep.
		if attempt == maxRetries {
			break
		}

		// 1-based retry count.
		hooks.emitRetry(attempt+1, err)

		d := delay.Delay(attempt)
		if d <= 0 {
			continue
		}

		timer := clock.NewTimer(d)
		select {
		case <-timer.C():
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err() //nolint:wrapcheck // preserving context error identity
		}
	}

	if maxRetries == 0 {
		// Single attempt: nothing was retried, the failure passes through
		// unchanged.
		return zero, lastErr
	}

	return zero, fmt.Errorf("%w: %w", ErrRetriesExhausted, lastErr)
}
