package promhooks_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/brk"
	"github.com/byte4ever/brk/promhooks"
)

func TestHooksCountEvents(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := promhooks.New(reg, "checkout")
	require.NoError(t, err)

	hooks := m.Hooks()

	boom := errors.New("boom")
	hooks.OnBreak(boom, 30*time.Second)
	hooks.OnBreak(boom, 30*time.Second)
	hooks.OnHalfOpen()
	hooks.OnReset()
	hooks.OnRetry(1, boom)
	hooks.OnRetry(2, boom)
	hooks.OnRetry(3, boom)

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				got[mf.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				got[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	require.Equal(t, 2.0, got["brk_breaker_breaks_total"])
	require.Equal(t, 1.0, got["brk_breaker_half_opens_total"])
	require.Equal(t, 1.0, got["brk_breaker_resets_total"])
	require.Equal(t, 3.0, got["brk_retries_total"])
	require.Equal(t, 0.0, got["brk_breaker_open"], "reset must clear the gauge")
}

func TestOpenGaugeTracksBreaker(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := promhooks.New(reg, "orders")
	require.NoError(t, err)

	hooks := m.Hooks()

	hooks.OnBreak(errors.New("down"), time.Second)
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP brk_breaker_open 1 while the circuit breaker is open, 0 otherwise.
# TYPE brk_breaker_open gauge
brk_breaker_open{pipeline="orders"} 1
`), "brk_breaker_open"))

	hooks.OnHalfOpen()
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP brk_breaker_open 1 while the circuit breaker is open, 0 otherwise.
# TYPE brk_breaker_open gauge
brk_breaker_open{pipeline="orders"} 0
`), "brk_breaker_open"))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := promhooks.New(reg, "dup")
	require.NoError(t, err)

	_, err = promhooks.New(reg, "dup")
	require.Error(t, err)
	require.ErrorContains(t, err, "promhooks: register")
}

func TestHooksDriveThroughPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := promhooks.New(reg, "inventory")
	require.NoError(t, err)

	p := brk.NewPipeline[int]("",
		brk.WithHooks(m.Hooks()),
		brk.WithFailureThreshold(1),
		brk.WithMaxRetries(2),
	)

	_, execErr := p.Execute(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("down")
	})
	require.ErrorIs(t, execErr, brk.ErrRetriesExhausted)

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				got[mf.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				got[mf.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	require.Equal(t, 2.0, got["brk_retries_total"])
	require.Equal(t, 1.0, got["brk_breaker_breaks_total"])
	require.Equal(t, 1.0, got["brk_breaker_open"])
}
