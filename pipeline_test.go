package brk

import (
	"context"
	"errors"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Stage ordering: breaker outermost, retry innermost
// ---------------------------------------------------------------------------

func TestPipelineOneVerdictPerCall(t *testing.T) {
	clk := &stubClock{now: time.Now()}
	p := NewPipeline[string]("",
		WithClock(clk),
		WithFailureThreshold(2),
		WithMaxRetries(3),
	)

	calls := 0
	_, err := p.Execute(context.Background(), func(context.Context) (string, error) {
		calls++
		return "", errors.New("boom")
	})

	if err == nil {
		t.Fatal("Execute() error = nil, want failure")
	}

	// One external call: 4 invocations, but the breaker counts one loss.
	if calls != 4 {
		t.Fatalf("operation ran %d times, want 4", calls)
	}
	if got := p.cb.Failures(); got != 1 {
		t.Fatalf("breaker failures = %d, want 1 (one verdict per call)", got)
	}
}

func TestPipelineOpenCircuitSkipsRetries(t *testing.T) {
	clk := &stubClock{now: time.Now()}

	var retries int
	p := NewPipeline[string]("",
		WithClock(clk),
		WithFailureThreshold(1),
		WithBreakDuration(time.Minute),
		WithMaxRetries(3),
		WithHooks(Hooks{OnRetry: func(int, error) { retries++ }}),
	)

	ctx := context.Background()

	// Trip the breaker.
	_, _ = p.Execute(ctx, func(context.Context) (string, error) {
		return "", errors.New("boom")
	})

	// Rejection happens before the retry loop is entered.
	retries = 0
	calls := 0
	_, err := p.Execute(ctx, func(context.Context) (string, error) {
		calls++
		return "", errors.New("boom")
	})

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute() = %v, want ErrCircuitOpen", err)
	}
	if calls != 0 {
		t.Fatalf("operation ran %d times while open, want 0", calls)
	}
	if retries != 0 {
		t.Fatalf("OnRetry fired %d times while open, want 0", retries)
	}
}

func TestPipelineRetriedSuccessLeavesBreakerClean(t *testing.T) {
	clk := &stubClock{now: time.Now()}
	p := NewPipeline[string]("",
		WithClock(clk),
		WithFailureThreshold(2),
		WithMaxRetries(3),
	)

	calls := 0
	got, err := p.Execute(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if got != "ok" {
		t.Fatalf("Execute() = %q, want %q", got, "ok")
	}
	if calls != 3 {
		t.Fatalf("operation ran %d times, want 3", calls)
	}

	// The retried sequence ultimately succeeded: no loss recorded.
	if got := p.cb.Failures(); got != 0 {
		t.Fatalf("breaker failures = %d, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// Error surface
// ---------------------------------------------------------------------------

func TestPipelineDistinguishesExhaustionFromRejection(t *testing.T) {
	clk := &stubClock{now: time.Now()}
	p := NewPipeline[int]("",
		WithClock(clk),
		WithFailureThreshold(1),
		WithBreakDuration(time.Minute),
		WithMaxRetries(2),
	)

	ctx := context.Background()
	boom := errors.New("boom")

	_, err := p.Execute(ctx, func(context.Context) (int, error) {
		return 0, boom
	})

	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("first call error = %v, want ErrRetriesExhausted", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("first call error = %v, want cause %v in chain", err, boom)
	}
	if errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("first call error = %v, must not be ErrCircuitOpen", err)
	}

	_, err = p.Execute(ctx, func(context.Context) (int, error) {
		return 0, boom
	})

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second call error = %v, want ErrCircuitOpen", err)
	}
	if errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("second call error = %v, must not be ErrRetriesExhausted", err)
	}
}

func TestPipelineCancellationNotCountedByBreaker(t *testing.T) {
	clk := &stubClock{now: time.Now()}
	p := NewPipeline[int]("",
		WithClock(clk),
		WithFailureThreshold(1),
		WithMaxRetries(3),
	)

	ctx, cancel := context.WithCancel(context.Background())

	_, err := p.Execute(ctx, func(context.Context) (int, error) {
		cancel()
		return 0, ctx.Err()
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() = %v, want context.Canceled", err)
	}

	// A caller abort is not a dependency verdict: the breaker stays closed
	// even with a threshold of 1.
	if got := p.cb.State(); got != "closed" {
		t.Fatalf("breaker state = %q, want %q", got, "closed")
	}
	if got := p.cb.Failures(); got != 0 {
		t.Fatalf("breaker failures = %d, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// Construction variants
// ---------------------------------------------------------------------------

func TestPipelineWithoutBreaker(t *testing.T) {
	p := NewPipeline[int]("",
		WithoutBreaker(),
		WithClock(newImmediateTestClock()),
		WithMaxRetries(2),
	)

	if p.cb != nil {
		t.Fatal("pipeline built a breaker despite WithoutBreaker")
	}

	calls := 0
	_, err := p.Execute(context.Background(), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})

	if calls != 3 {
		t.Fatalf("operation ran %d times, want 3", calls)
	}
	if errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("Execute() = %v, must never be ErrCircuitOpen", err)
	}
}

func TestPipelineNamedRegistersWithExplicitRegistry(t *testing.T) {
	reg := NewRegistry()

	p := NewPipeline[int]("payments",
		WithRegistry(reg),
		WithClock(&stubClock{now: time.Now()}),
	)

	if p.Name() != "payments" {
		t.Fatalf("Name() = %q, want %q", p.Name(), "payments")
	}

	report := reg.CheckStates()
	if len(report.Pipelines) != 1 {
		t.Fatalf("registry holds %d pipelines, want 1", len(report.Pipelines))
	}
	if report.Pipelines[0].Name != "payments" {
		t.Fatalf("registered name = %q, want %q", report.Pipelines[0].Name, "payments")
	}
}

func TestPipelineAnonymousDoesNotRegister(t *testing.T) {
	reg := NewRegistry()

	NewPipeline[int]("",
		WithRegistry(reg),
		WithClock(&stubClock{now: time.Now()}),
	)

	if got := len(reg.CheckStates().Pipelines); got != 0 {
		t.Fatalf("registry holds %d pipelines, want 0 for anonymous", got)
	}
}
