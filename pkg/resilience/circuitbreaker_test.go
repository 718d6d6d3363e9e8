package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/fn"
)

var errBackend = errors.New("backend down")

func failing(context.Context) error { return errBackend }
func succeeding(context.Context) error { return nil }

func TestBreakerTripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Call(ctx, failing); !errors.Is(err, errBackend) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	if err := b.Call(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("open breaker let call through: %v", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	_ = b.Call(ctx, failing)
	_ = b.Call(ctx, succeeding)
	_ = b.Call(ctx, failing)
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after reset", b.State())
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second, HalfOpenMax: 1})
	clock := time.Now()
	b.now = func() time.Time { return clock }
	ctx := context.Background()

	_ = b.Call(ctx, failing)
	if b.State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	clock = clock.Add(11 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after timeout", b.State())
	}
	if err := b.Call(ctx, succeeding); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("state = %v, want closed after successful probe", b.State())
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second})
	clock := time.Now()
	b.now = func() time.Time { return clock }
	ctx := context.Background()

	_ = b.Call(ctx, failing)
	clock = clock.Add(11 * time.Second)
	if err := b.Call(ctx, failing); !errors.Is(err, errBackend) {
		t.Fatalf("probe error = %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", b.State())
	}
}

func TestBreakerHalfOpenProbeLimit(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: 10 * time.Second, HalfOpenMax: 1})
	clock := time.Now()
	b.now = func() time.Time { return clock }
	ctx := context.Background()

	_ = b.Call(ctx, failing)
	clock = clock.Add(11 * time.Second)

	// First probe admitted; it holds the only half-open slot.
	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = b.Call(ctx, func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	if err := b.Call(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second probe should be rejected, got %v", err)
	}
	close(release)
}

func TestCallResult(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})
	ctx := context.Background()

	r := CallResult(b, ctx, func(context.Context) fn.Result[int] {
		return fn.Err[int](errBackend)
	})
	if r.IsOk() {
		t.Fatal("expected error result")
	}

	r = CallResult(b, ctx, func(context.Context) fn.Result[int] {
		t.Fatal("open breaker must not invoke f")
		return fn.Ok(0)
	})
	if _, err := r.Unwrap(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerStage(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Timeout: time.Minute})
	stage := BreakerStage(b, fn.MapStage(func(n int) int { return n * 2 }))
	r := stage(context.Background(), 4)
	if v, _ := r.Unwrap(); v != 8 {
		t.Fatalf("stage value = %d", v)
	}
}

func TestStateString(t *testing.T) {
	if StateClosed.String() != "closed" || StateOpen.String() != "open" || StateHalfOpen.String() != "half-open" {
		t.Fatal("state strings wrong")
	}
}
