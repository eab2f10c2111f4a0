// Package promhooks provides a brk.Hooks implementation backed by
// Prometheus metrics: one counter per pipeline lifecycle event plus a gauge
// tracking whether the breaker is currently open.
package promhooks

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/byte4ever/brk"
)

// Metrics holds the Prometheus collectors for one pipeline.
type Metrics struct {
	breaks    prometheus.Counter
	resets    prometheus.Counter
	halfOpens prometheus.Counter
	retries   prometheus.Counter
	open      prometheus.Gauge
}

// New creates and registers the collectors for the named pipeline with reg.
// All metrics carry a const "pipeline" label so several pipelines can share
// one registerer.
func New(reg prometheus.Registerer, pipeline string) (*Metrics, error) {
	labels := prometheus.Labels{"pipeline": pipeline}

	m := &Metrics{
		breaks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "brk",
			Name:        "breaker_breaks_total",
			Help:        "Number of times the circuit breaker tripped open.",
			ConstLabels: labels,
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "brk",
			Name:        "breaker_resets_total",
			Help:        "Number of successful half-open trials that closed the breaker.",
			ConstLabels: labels,
		}),
		halfOpens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "brk",
			Name:        "breaker_half_opens_total",
			Help:        "Number of times the breaker started admitting a trial call.",
			ConstLabels: labels,
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "brk",
			Name:        "retries_total",
			Help:        "Number of re-attempts after a failed call.",
			ConstLabels: labels,
		}),
		open: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "brk",
			Name:        "breaker_open",
			Help:        "1 while the circuit breaker is open, 0 otherwise.",
			ConstLabels: labels,
		}),
	}

	collectors := []prometheus.Collector{
		m.breaks, m.resets, m.halfOpens, m.retries, m.open,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("promhooks: register: %w", err)
		}
	}

	return m, nil
}

// Hooks returns a brk.Hooks value wired to the metrics. Pass it to
// brk.WithHooks, or copy individual fields into a composite Hooks value if
// the host observes events through other sinks as well.
func (m *Metrics) Hooks() brk.Hooks {
	return brk.Hooks{
		OnBreak: func(_ error, _ time.Duration) {
			m.breaks.Inc()
			m.open.Set(1)
		},
		OnReset: func() {
			m.resets.Inc()
			m.open.Set(0)
		},
		OnHalfOpen: func() {
			m.halfOpens.Inc()
			m.open.Set(0)
		},
		OnRetry: func(_ int, _ error) {
			m.retries.Inc()
		},
	}
}
