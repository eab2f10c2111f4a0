package brk

import "time"

// Hooks holds optional callback functions for pipeline lifecycle events.
// All fields are nil by default; callers set only the hooks they care about.
// Once constructed, a Hooks value must not be mutated — emit methods read
// the function fields without synchronisation, which is safe as long as the
// struct is read-only after initialisation.
//
// Hooks are a side channel, not control flow: nothing a hook does can alter
// the pipeline's behaviour, and the pipeline itself never logs.
//
// Pattern: Observer — decouples event emission from consumers (logging,
// metrics, alerting) without the breaker or retry loop knowing about them.
type Hooks struct {
	// OnBreak fires when the breaker trips open, with the triggering cause
	// and the duration of the break window.
	OnBreak func(cause error, d time.Duration)
	// OnReset fires when a successful half-open trial closes the breaker.
	OnReset func()
	// OnHalfOpen fires when the break window elapses and the breaker
	// starts admitting a trial call.
	OnHalfOpen func()
	// OnRetry fires before each re-attempt, with the 1-based retry count
	// and the failure cause of the previous attempt.
	OnRetry func(attempt int, cause error)
}

func (h *Hooks) emitBreak(cause error, d time.Duration) {
	if h.OnBreak != nil {
		h.OnBreak(cause, d)
	}
}

func (h *Hooks) emitReset() {
	if h.OnReset != nil {
		h.OnReset()
	}
}

func (h *Hooks) emitHalfOpen() {
	if h.OnHalfOpen != nil {
		h.OnHalfOpen()
	}
}

func (h *Hooks) emitRetry(attempt int, cause error) {
	if h.OnRetry != nil {
		h.OnRetry(attempt, cause)
	}
}
