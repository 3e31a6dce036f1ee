package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		DefaultMaxAttempts: 3,
		InitialBackoff:     5 * time.Millisecond,
		MaxBackoff:         20 * time.Millisecond,
		IdempotencyTTL:     time.Second,
		GroupBuffer:        16,
		GroupIdleTTL:       time.Minute,
		CleanupInterval:    10 * time.Millisecond,
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal(msg)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestRouterDispatchExecutesHandler(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	defer r.Close()

	var got atomic.Value
	r.RegisterHandler("greet", func(ctx context.Context, payload any) error {
		got.Store(payload)
		return nil
	})

	if err := r.Dispatch(context.Background(), Task{Type: "greet", Payload: "hello"}); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	waitFor(t, func() bool { return got.Load() != nil }, "handler never ran")
	if got.Load() != "hello" {
		t.Fatalf("payload = %v, want hello", got.Load())
	}
}

func TestRouterUnknownTaskType(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	defer r.Close()

	err := r.Dispatch(context.Background(), Task{Type: "nope"})
	if !errors.Is(err, ErrUnknownTaskType) {
		t.Fatalf("Dispatch error = %v, want ErrUnknownTaskType", err)
	}
}

func TestRouterGroupSerializesExecution(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	defer r.Close()

	var mu sync.Mutex
	var order []int
	var running atomic.Int32
	r.RegisterHandler("step", func(ctx context.Context, payload any) error {
		if running.Add(1) > 1 {
			t.Error("two tasks in the same group ran concurrently")
		}
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		order = append(order, payload.(int))
		mu.Unlock()
		running.Add(-1)
		return nil
	})

	for i := 0; i < 5; i++ {
		err := r.Dispatch(context.Background(), Task{
			Type:    "step",
			Payload: i,
			Options: Options{GroupKey: "g"},
		})
		if err != nil {
			t.Fatalf("Dispatch %d returned error: %v", i, err)
		}
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 5
	}, "tasks did not all run")

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("execution order = %v, want FIFO", order)
		}
	}
}

func TestRouterIdempotencyDedupe(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	defer r.Close()

	var runs atomic.Int32
	r.RegisterHandler("once", func(ctx context.Context, payload any) error {
		runs.Add(1)
		return nil
	})

	opts := Options{IdempotencyKey: "only-one"}
	if err := r.Dispatch(context.Background(), Task{Type: "once", Options: opts}); err != nil {
		t.Fatalf("first Dispatch returned error: %v", err)
	}
	err := r.Dispatch(context.Background(), Task{Type: "once", Options: opts})
	if !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("second Dispatch error = %v, want ErrDuplicateTask", err)
	}

	waitFor(t, func() bool { return runs.Load() == 1 }, "task never ran")
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != 1 {
		t.Fatalf("task ran %d times, want 1", runs.Load())
	}
}

func TestRouterRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	defer r.Close()

	var attempts atomic.Int32
	r.RegisterHandler("flaky", func(ctx context.Context, payload any) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	err := r.Dispatch(context.Background(), Task{
		Type:    "flaky",
		Options: Options{MaxAttempts: 5},
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	waitFor(t, func() bool { return attempts.Load() == 3 }, "task did not retry to success")
}

func TestRouterStopsAtMaxAttempts(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	defer r.Close()

	var attempts atomic.Int32
	r.RegisterHandler("doomed", func(ctx context.Context, payload any) error {
		attempts.Add(1)
		return errors.New("permanent")
	})

	err := r.Dispatch(context.Background(), Task{
		Type:    "doomed",
		Options: Options{MaxAttempts: 2},
	})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	waitFor(t, func() bool { return attempts.Load() == 2 }, "task did not reach max attempts")
	time.Sleep(50 * time.Millisecond)
	if got := attempts.Load(); got != 2 {
		t.Fatalf("attempts = %d, want exactly 2", got)
	}
}

func TestRouterCloseRejectsDispatch(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	r.RegisterHandler("noop", func(ctx context.Context, payload any) error { return nil })
	r.Close()

	if err := r.Dispatch(context.Background(), Task{Type: "noop"}); !errors.Is(err, ErrRouterClosed) {
		t.Fatalf("Dispatch after Close error = %v, want ErrRouterClosed", err)
	}
}

func TestRouterScheduleEvery(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	defer r.Close()

	var runs atomic.Int32
	r.RegisterHandler("tick", func(ctx context.Context, payload any) error {
		runs.Add(1)
		return nil
	})

	cancel := r.ScheduleEvery(5*time.Millisecond, Task{Type: "tick"})

	waitFor(t, func() bool { return runs.Load() >= 2 }, "cron job never fired")

	cancel()
	settled := runs.Load()
	time.Sleep(60 * time.Millisecond)
	// One dispatch may already have been in flight when cancel ran.
	if runs.Load() > settled+1 {
		t.Fatalf("cron kept firing after cancel: %d -> %d", settled, runs.Load())
	}
}

func TestComputeBackoffStaysInBounds(t *testing.T) {
	t.Parallel()

	r := NewRouter(testConfig())
	defer r.Close()

	initial := 10 * time.Millisecond
	maxBackoff := 80 * time.Millisecond
	for attempt := 1; attempt <= 10; attempt++ {
		got := r.computeBackoff(initial, maxBackoff, attempt)
		if got < initial || got > maxBackoff {
			t.Fatalf("attempt %d: backoff %v outside [%v, %v]", attempt, got, initial, maxBackoff)
		}
	}
}

func TestClampDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v, lo, hi, want time.Duration
	}{
		{v: 5, lo: 1, hi: 10, want: 5},
		{v: 0, lo: 1, hi: 10, want: 1},
		{v: 20, lo: 1, hi: 10, want: 10},
	}
	for _, tt := range tests {
		if got := clampDuration(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Fatalf("clampDuration(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}
