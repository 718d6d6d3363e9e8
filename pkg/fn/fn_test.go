package fn

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestResultBasics(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok result misreported")
	}
	if v, err := r.Unwrap(); v != 42 || err != nil {
		t.Fatalf("Unwrap = %v, %v", v, err)
	}

	e := Err[int](errors.New("boom"))
	if e.IsOk() {
		t.Fatal("Err result misreported")
	}
	if e.UnwrapOr(7) != 7 {
		t.Fatal("UnwrapOr fallback not used")
	}
	if Ok(1).UnwrapOr(7) != 1 {
		t.Fatal("UnwrapOr ignored value")
	}
}

func TestFromPair(t *testing.T) {
	if r := FromPair(3, nil); r.IsErr() {
		t.Fatal("nil error should be ok")
	}
	if r := FromPair(0, errors.New("x")); r.IsOk() {
		t.Fatal("error should propagate")
	}
}

func TestMapAndThen(t *testing.T) {
	r := Ok(2).Map(func(n int) int { return n * 3 }).AndThen(func(n int) Result[int] {
		if n != 6 {
			return Errf[int]("got %d", n)
		}
		return Ok(n + 1)
	})
	if v, _ := r.Unwrap(); v != 7 {
		t.Fatalf("chained value = %d", v)
	}

	e := Err[int](errors.New("stop")).Map(func(n int) int {
		t.Fatal("Map ran on error")
		return n
	})
	if e.IsOk() {
		t.Fatal("error lost through Map")
	}
}

func TestCollect(t *testing.T) {
	all := Collect([]Result[int]{Ok(1), Ok(2), Ok(3)})
	if v, _ := all.Unwrap(); len(v) != 3 {
		t.Fatalf("Collect = %v", v)
	}
	bad := Collect([]Result[int]{Ok(1), Err[int](errors.New("mid")), Ok(3)})
	if bad.IsOk() {
		t.Fatal("Collect swallowed error")
	}
}

func TestThenShortCircuits(t *testing.T) {
	double := MapStage(func(n int) int { return n * 2 })
	fail := Stage[int, int](func(context.Context, int) Result[int] {
		return Err[int](errors.New("nope"))
	})
	ran := false
	after := Stage[int, int](func(_ context.Context, n int) Result[int] {
		ran = true
		return Ok(n)
	})

	r := Then(Then(double, fail), after)(context.Background(), 5)
	if r.IsOk() {
		t.Fatal("expected failure")
	}
	if ran {
		t.Fatal("stage after failure must not run")
	}
}

func TestPipeline(t *testing.T) {
	inc := MapStage(func(n int) int { return n + 1 })
	r := Pipeline(inc, inc, inc)(context.Background(), 0)
	if v, _ := r.Unwrap(); v != 3 {
		t.Fatalf("pipeline = %d", v)
	}
}

func TestTapStagePassesThrough(t *testing.T) {
	var seen int
	tap := TapStage(func(_ context.Context, n int) { seen = n })
	r := tap(context.Background(), 9)
	if v, _ := r.Unwrap(); v != 9 || seen != 9 {
		t.Fatalf("tap: v=%d seen=%d", v, seen)
	}
}

func TestTracedStagePropagates(t *testing.T) {
	ok := TracedStage("ok", MapStage(func(n int) int { return n }))
	if r := ok(context.Background(), 1); r.IsErr() {
		t.Fatal("traced stage altered success")
	}
	bad := TracedStage("bad", Stage[int, int](func(context.Context, int) Result[int] {
		return Err[int](errors.New("traced"))
	}))
	if r := bad(context.Background(), 1); r.IsOk() {
		t.Fatal("traced stage swallowed error")
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 5, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Err[int](errors.New("transient"))
		}
		return Ok(attempts)
	})
	if v, _ := r.Unwrap(); v != 3 {
		t.Fatalf("retry value = %d", v)
	}
}

func TestRetryExhausts(t *testing.T) {
	attempts := 0
	opts := RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond}
	r := Retry(context.Background(), opts, func(context.Context) Result[int] {
		attempts++
		return Err[int](errors.New("persistent"))
	})
	if r.IsOk() || attempts != 2 {
		t.Fatalf("attempts = %d, ok = %v", attempts, r.IsOk())
	}
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := RetryOpts{MaxAttempts: 10, InitialWait: time.Hour, MaxWait: time.Hour}
	r := Retry(ctx, opts, func(context.Context) Result[int] {
		return Err[int](errors.New("always"))
	})
	_, err := r.Unwrap()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSliceHelpers(t *testing.T) {
	doubled := Map([]int{1, 2, 3}, func(n int) int { return n * 2 })
	if len(doubled) != 3 || doubled[2] != 6 {
		t.Fatalf("Map = %v", doubled)
	}

	evens := Filter([]int{1, 2, 3, 4}, func(n int) bool { return n%2 == 0 })
	if len(evens) != 2 {
		t.Fatalf("Filter = %v", evens)
	}

	kept := FilterMap([]int{1, -1, 2}, func(n int) (int, bool) { return n * 10, n > 0 })
	if len(kept) != 2 || kept[1] != 20 {
		t.Fatalf("FilterMap = %v", kept)
	}

	uniq := UniqueBy([]string{"aa", "ab", "ba"}, func(s string) byte { return s[0] })
	if len(uniq) != 2 || uniq[0] != "aa" || uniq[1] != "ba" {
		t.Fatalf("UniqueBy = %v", uniq)
	}
}
