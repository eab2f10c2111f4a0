package brk

// ---------------------------------------------------------------------------
// StateReporter interface
// ---------------------------------------------------------------------------.

type (
	// StateReporter is implemented by all Pipeline[T] instances.
	// The interface is non-generic, allowing pipelines with different type
	// parameters to be collected in one registry.
	StateReporter interface {
		// Name returns the pipeline's name.
		Name() string
		// Status returns the current state of the pipeline.
		Status() PipelineStatus
	}

	// PipelineStatus represents the current state of a pipeline, derived
	// from its breaker.
	PipelineStatus struct {
		Name    string `json:"name"`
		Breaker string `json:"breaker"`
		Healthy bool   `json:"healthy"`
	}
)

// Status derives the pipeline's current state from its breaker. A pipeline
// is unhealthy while its breaker is open; a half-open breaker is recovering,
// not unhealthy. Retry-only pipelines report the breaker as "disabled" and
// are always healthy.
func (p *Pipeline[T]) Status() PipelineStatus {
	status := PipelineStatus{
		Name:    p.name,
		Breaker: "disabled",
		Healthy: true,
	}

	if p.cb != nil {
		status.Breaker = p.cb.State()
		status.Healthy = status.Breaker != "open"
	}

	return status
}
