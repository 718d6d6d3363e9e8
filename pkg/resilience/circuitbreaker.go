// Package resilience provides a circuit breaker used to shield the
// embedding and chat backends from repeated failures.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/faizanwasif/Website-Scrapping-Dynamic-RAG-System/pkg/fn"
)

// State is a breaker state.
type State int

const (
	StateClosed   State = iota // passing calls through
	StateOpen                  // rejecting calls
	StateHalfOpen              // allowing probe calls
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerOpts configures trip and recovery behavior.
type BreakerOpts struct {
	// FailThreshold is the consecutive-failure count that trips the breaker.
	FailThreshold int
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// HalfOpenMax bounds concurrent probes while half-open.
	HalfOpenMax int
}

// DefaultBreakerOpts suit a local model server.
var DefaultBreakerOpts = BreakerOpts{
	FailThreshold: 5,
	Timeout:       30 * time.Second,
	HalfOpenMax:   1,
}

// Breaker is a three-state circuit breaker.
type Breaker struct {
	mu         sync.Mutex
	opts       BreakerOpts
	state      State
	failures   int
	openedAt   time.Time
	probes     int
	now        func() time.Time // test seam
}

// NewBreaker creates a Breaker, filling zero options from defaults.
func NewBreaker(opts BreakerOpts) *Breaker {
	if opts.FailThreshold <= 0 {
		opts.FailThreshold = DefaultBreakerOpts.FailThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBreakerOpts.Timeout
	}
	if opts.HalfOpenMax <= 0 {
		opts.HalfOpenMax = DefaultBreakerOpts.HalfOpenMax
	}
	return &Breaker{opts: opts, now: time.Now}
}

// State reports the breaker's current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

// currentState applies the open-to-half-open timeout. Callers hold mu.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.opts.Timeout {
		b.state = StateHalfOpen
		b.probes = 0
	}
	return b.state
}

// admit decides whether a call may proceed. Callers hold mu.
func (b *Breaker) admit() bool {
	switch b.currentState() {
	case StateOpen:
		return false
	case StateHalfOpen:
		if b.probes >= b.opts.HalfOpenMax {
			return false
		}
		b.probes++
	}
	return true
}

// settle records the call outcome. Callers hold mu.
func (b *Breaker) settle(failed bool) {
	if failed {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.opts.FailThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
			b.failures = 0
			b.probes = 0
		}
		return
	}
	if b.state == StateHalfOpen {
		b.state = StateClosed
	}
	b.failures = 0
}

// Call runs f through the breaker.
func (b *Breaker) Call(ctx context.Context, f func(context.Context) error) error {
	b.mu.Lock()
	ok := b.admit()
	b.mu.Unlock()
	if !ok {
		return ErrCircuitOpen
	}

	err := f(ctx)

	b.mu.Lock()
	b.settle(err != nil)
	b.mu.Unlock()
	return err
}

// CallResult runs a Result-returning f through the breaker.
func CallResult[T any](b *Breaker, ctx context.Context, f func(context.Context) fn.Result[T]) fn.Result[T] {
	b.mu.Lock()
	ok := b.admit()
	b.mu.Unlock()
	if !ok {
		return fn.Err[T](ErrCircuitOpen)
	}

	result := f(ctx)

	b.mu.Lock()
	b.settle(result.IsErr())
	b.mu.Unlock()
	return result
}

// BreakerStage protects an fn.Stage with the breaker.
func BreakerStage[In, Out any](b *Breaker, stage fn.Stage[In, Out]) fn.Stage[In, Out] {
	return func(ctx context.Context, in In) fn.Result[Out] {
		return CallResult(b, ctx, func(ctx context.Context) fn.Result[Out] {
			return stage(ctx, in)
		})
	}
}
