package brk

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPipelineStatusWithBreaker(t *testing.T) {
	clk := &stubClock{now: time.Now()}

	p := NewPipeline[int]("orders",
		WithClock(clk),
		WithFailureThreshold(1),
		WithBreakDuration(30*time.Second),
	)

	status := p.Status()
	if status.Name != "orders" || status.Breaker != "closed" || !status.Healthy {
		t.Fatalf("Status() = %+v, want closed and healthy", status)
	}

	_, _ = p.Execute(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("down")
	})

	status = p.Status()
	if status.Breaker != "open" || status.Healthy {
		t.Fatalf("Status() = %+v, want open and unhealthy", status)
	}
}

func TestPipelineStatusHalfOpenIsHealthy(t *testing.T) {
	clk := &stubClock{now: time.Now()}

	p := NewPipeline[int]("orders",
		WithClock(clk),
		WithFailureThreshold(1),
		WithBreakDuration(30*time.Second),
	)
	_, _ = p.Execute(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("down")
	})

	clk.setElapsed(30 * time.Second)
	if err := p.cb.Allow(); err != nil {
		t.Fatalf("Allow() after break window = %v, want nil", err)
	}

	status := p.Status()
	if status.Breaker != "half_open" {
		t.Fatalf("Breaker = %q, want half_open", status.Breaker)
	}
	if !status.Healthy {
		t.Fatal("half-open pipeline reported unhealthy; recovering is not down")
	}
}

func TestPipelineStatusWithoutBreaker(t *testing.T) {
	p := NewPipeline[int]("retry-only",
		WithoutBreaker(),
		WithMaxRetries(2),
	)

	status := p.Status()
	if status.Breaker != "disabled" {
		t.Fatalf("Breaker = %q, want disabled", status.Breaker)
	}
	if !status.Healthy {
		t.Fatal("retry-only pipeline reported unhealthy")
	}
}
