package brk

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// StatesReport — result of checking all registered pipelines
// ---------------------------------------------------------------------------.

type (
	// StatesReport is the result of checking all registered pipelines.
	StatesReport struct {
		Pipelines []PipelineStatus `json:"pipelines"`
		Healthy   bool             `json:"healthy"`
	}

	// Registry tracks StateReporter instances and stores named pipeline
	// configurations loaded from a config file.
	//
	// Pattern: Singleton — DefaultRegistry uses sync.OnceValue for safe
	// lazy init; explicit registries can be created for testing or
	// multi-tenant scenarios.
	Registry struct {
		reporters atomic.Pointer[[]StateReporter]
		configs   map[string]PipelineConfig
		mu        sync.Mutex
	}
)

//nolint:gochecknoglobals // singleton via sync.OnceValue
var defaultRegistry = sync.OnceValue(NewRegistry)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}

	var empty []StateReporter

	r.reporters.Store(&empty)

	return r
}

// Register adds a StateReporter to the registry.
// This is typically called during startup by NewPipeline.
// It is safe for concurrent use but intended for initialization only.
func (r *Registry) Register(sr StateReporter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.reporters.Load()
	// Create a new slice (copy-on-write) to avoid mutating the slice
	// that concurrent readers may be iterating.
	updated := make([]StateReporter, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, sr)
	r.reporters.Store(&updated)
}

// CheckStates iterates all registered reporters and builds a StatesReport.
// Healthy is false if any pipeline's breaker is currently open.
func (r *Registry) CheckStates() StatesReport {
	reporters := *r.reporters.Load()

	report := StatesReport{
		Healthy:   true,
		Pipelines: make([]PipelineStatus, 0, len(reporters)),
	}

	for _, sr := range reporters {
		ps := sr.Status()
		report.Pipelines = append(report.Pipelines, ps)

		if !ps.Healthy {
			report.Healthy = false
		}
	}

	return report
}

// DefaultRegistry returns the package-level global registry, creating it
// on first call.
//
// Pattern: Singleton — lazy initialization via sync.OnceValue ensures
// exactly one global registry exists and is safe for concurrent access.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}
