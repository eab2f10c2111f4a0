package brk

import (
	"math"
	"math/rand/v2"
	"time"
)

// DelayStrategy determines how long the retry loop waits between attempts.
//
// Pattern: Strategy — swap delay algorithms (none, fixed, exponential)
// without changing the retry loop.
type DelayStrategy interface {
	// Delay returns the duration to wait before the given retry
	// (0-indexed: retry 0 is the delay before the first re-attempt).
	Delay(retry int) time.Duration
}

// ---------------------------------------------------------------------------
// DelayFunc — adapter for plain functions
// ---------------------------------------------------------------------------

// DelayFunc adapts an ordinary function into a [DelayStrategy].
// This allows callers to provide ad-hoc delay logic without defining a type.
type DelayFunc func(retry int) time.Duration

// Delay calls the underlying function.
func (f DelayFunc) Delay(retry int) time.Duration { return f(retry) }

// ---------------------------------------------------------------------------
// NoDelay
// ---------------------------------------------------------------------------

// noDelay re-attempts immediately.
type noDelay struct{}

func (noDelay) Delay(_ int) time.Duration { return 0 }

// NoDelay returns the default [DelayStrategy]: immediate re-attempt with no
// waiting between retries.
func NoDelay() DelayStrategy {
	return noDelay{}
}

// ---------------------------------------------------------------------------
// FixedDelay
// ---------------------------------------------------------------------------

// fixedDelay returns the same delay for every retry.
type fixedDelay struct {
	d time.Duration
}

func (s *fixedDelay) Delay(_ int) time.Duration { return s.d }

// FixedDelay returns a [DelayStrategy] that always waits d between retries,
// regardless of the retry number.
func FixedDelay(d time.Duration) DelayStrategy {
	return &fixedDelay{d: d}
}

// ---------------------------------------------------------------------------
// ExponentialDelay
// ---------------------------------------------------------------------------

// exponentialDelay returns base * 2^retry, capped at cap.
type exponentialDelay struct {
	base time.Duration
	cap  time.Duration
}

func (s *exponentialDelay) Delay(retry int) time.Duration {
	d := scaledDelay(s.base, retry)
	if s.cap > 0 && d > s.cap {
		return s.cap
	}

	return d
}

// ExponentialDelay returns a [DelayStrategy] whose delay doubles with each
// retry: base * 2^retry, capped at cap. A cap of 0 means uncapped.
func ExponentialDelay(base, cap time.Duration) DelayStrategy {
	return &exponentialDelay{base: base, cap: cap}
}

// ---------------------------------------------------------------------------
// ExponentialJitterDelay
// ---------------------------------------------------------------------------

// exponentialJitterDelay returns a random duration in [0, base * 2^retry],
// capped at cap.
type exponentialJitterDelay struct {
	base time.Duration
	cap  time.Duration
}

func (s *exponentialJitterDelay) Delay(retry int) time.Duration {
	upper := scaledDelay(s.base, retry)
	if s.cap > 0 && upper > s.cap {
		upper = s.cap
	}

	if upper <= 0 {
		return 0
	}

	return time.Duration(rand.Int64N(int64(upper) + 1))
}

// ExponentialJitterDelay returns a [DelayStrategy] whose delay is a random
// duration uniformly distributed in [0, base * 2^retry], capped at cap.
// Jitter spreads re-attempts across time to avoid thundering-herd effects.
// A cap of 0 means uncapped.
func ExponentialJitterDelay(base, cap time.Duration) DelayStrategy {
	return &exponentialJitterDelay{base: base, cap: cap}
}

// scaledDelay computes base * 2^retry, saturating near the Duration maximum
// instead of overflowing to a negative value.
func scaledDelay(base time.Duration, retry int) time.Duration {
	d := float64(base) * math.Pow(2, float64(retry))
	if d >= math.MaxInt64 {
		return math.MaxInt64 - 1
	}

	return time.Duration(d)
}
