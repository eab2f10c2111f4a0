package brk

import "time"

// Pattern: Factory Function — each preset produces a ready-made option
// bundle for a common use case, avoiding boilerplate configuration.

// StandardHTTPClient returns options for the classic outbound HTTP client
// profile: two consecutive failed calls trip a 30s break, and each call is
// retried 3 times with immediate re-attempt.
func StandardHTTPClient() []Option {
	return []Option{
		WithFailureThreshold(2),
		WithBreakDuration(30 * time.Second),
		WithMaxRetries(3),
	}
}

// PatientHTTPClient returns options for batch-style callers that prefer to
// wait rather than give up: 5-failure threshold with a 60s break, and 5
// retries under exponential jitter starting at 100ms and capped at 5s.
func PatientHTTPClient() []Option {
	return []Option{
		WithFailureThreshold(5),
		WithBreakDuration(60 * time.Second),
		WithMaxRetries(5),
		WithDelay(ExponentialJitterDelay(100*time.Millisecond, 5*time.Second)),
	}
}
