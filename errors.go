package brk

import (
	"context"
	"errors"
	"strconv"
)

// ---------------------------------------------------------------------------
// Error classification wrappers
// ---------------------------------------------------------------------------.

type (
	// PipelineError identifies errors produced by the pipeline itself,
	// as opposed to errors from the wrapped operation.
	//nolint:iface // exported for use in tests and consumer error
	// classification.
	PipelineError interface {
		error
		// IsPipeline reports whether this error originates from the
		// pipeline layer.
		IsPipeline() bool
	}

	// TransportError marks a failure where the underlying call never
	// completed (connection refused, DNS failure, reset). It wraps the
	// transport cause so callers can still reach it via errors.As.
	TransportError struct {
		Err error
	}

	// StatusError marks a failure where the call completed but the result
	// indicator reports non-success (e.g. a non-2xx HTTP status). The
	// pipeline treats it exactly like a transport fault.
	StatusError struct {
		Code int
	}

	// unrecoverableError marks a wrapped error as non-retryable.
	unrecoverableError struct {
		err error
	}

	// pipelineError is the concrete type backing all sentinel errors.
	pipelineError string
)

// Sentinel pipeline errors.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call
	// without running it.
	ErrCircuitOpen error = pipelineError("circuit breaker is open")
	// ErrRetriesExhausted wraps the last failure cause once every retry
	// has been consumed.
	ErrRetriesExhausted error = pipelineError("retries exhausted")
)

func (e pipelineError) Error() string { return string(e) }

// IsPipeline reports whether the error is a pipeline infrastructure error.
func (pipelineError) IsPipeline() bool { return true }

func (e *TransportError) Error() string { return "transport fault: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

func (e *StatusError) Error() string {
	return "unsuccessful result: status " + strconv.Itoa(e.Code)
}

func (e *unrecoverableError) Error() string { return "unrecoverable: " + e.err.Error() }
func (e *unrecoverableError) Unwrap() error { return e.err }

// Transport wraps err to mark it as a transport-level fault.
// Returns nil if err is nil.
func Transport(err error) error {
	if err == nil {
		return nil
	}

	return &TransportError{Err: err}
}

// Unrecoverable wraps err to mark it as non-retryable. The retry loop stops
// immediately when the operation returns an unrecoverable error.
// Returns nil if err is nil.
func Unrecoverable(err error) error {
	if err == nil {
		return nil
	}

	return &unrecoverableError{err: err}
}

// IsTransport reports whether err carries a transport-level fault.
func IsTransport(err error) bool {
	var te *TransportError

	return errors.As(err, &te)
}

// IsStatus reports whether err carries a non-success result indicator.
func IsStatus(err error) bool {
	var se *StatusError

	return errors.As(err, &se)
}

// IsUnrecoverable reports whether err was explicitly marked as
// non-retryable. Returns false for nil and for unclassified errors —
// unclassified failures are retryable by default.
func IsUnrecoverable(err error) bool {
	if err == nil {
		return false
	}

	var ue *unrecoverableError

	return errors.As(err, &ue)
}

// isCancellation reports whether err represents a caller-initiated abort.
// Cancellations propagate to the caller but are never recorded as breaker
// failures: the dependency gave no verdict.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
