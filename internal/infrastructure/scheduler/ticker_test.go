package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

type stubEngine struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (e *stubEngine) ReconcileAll(ctx context.Context, now time.Time) (*ports.ReconcileResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, now)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("pass context has no deadline")
	}
	if e.err != nil {
		return nil, e.err
	}
	return &ports.ReconcileResult{Total: 1, Updated: 1}, nil
}

func (e *stubEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func TestTicker_RunsImmediatelyThenPeriodically(t *testing.T) {
	engine := &stubEngine{}
	tk := NewTicker(engine, 20*time.Millisecond, 0, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		tk.Run(ctx)
		close(stopped)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for engine.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if engine.count() < 3 {
		t.Fatalf("expected at least 3 passes, got %d", engine.count())
	}
}

func TestTicker_RunOnceUsesClock(t *testing.T) {
	engine := &stubEngine{}
	tk := NewTicker(engine, time.Minute, 0, zerolog.Nop())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tk.now = func() time.Time { return fixed }

	tk.RunOnce(context.Background())

	if engine.count() != 1 || !engine.calls[0].Equal(fixed) {
		t.Fatalf("expected one pass at %v, got %v", fixed, engine.calls)
	}
}

func TestTicker_RunOnceToleratesErrors(t *testing.T) {
	for _, err := range []error{domain.ErrPassInProgress, errors.New("mongo down")} {
		engine := &stubEngine{err: err}
		tk := NewTicker(engine, time.Minute, 0, zerolog.Nop())

		tk.RunOnce(context.Background())

		if engine.count() != 1 {
			t.Fatalf("%v: expected one attempt, got %d", err, engine.count())
		}
	}
}

func TestNewTicker_DefaultInterval(t *testing.T) {
	tk := NewTicker(&stubEngine{}, 0, 0, zerolog.Nop())
	if tk.interval != defaultInterval {
		t.Fatalf("expected %v, got %v", defaultInterval, tk.interval)
	}
}

func TestNewTicker_PassTimeout(t *testing.T) {
	cases := []struct {
		interval, passTimeout, want time.Duration
	}{
		{time.Minute, 55 * time.Second, 55 * time.Second},
		{10 * time.Minute, 55 * time.Second, 55 * time.Second},
		{time.Minute, 0, time.Minute},
		{time.Minute, 5 * time.Minute, time.Minute},
	}

	for _, tc := range cases {
		tk := NewTicker(&stubEngine{}, tc.interval, tc.passTimeout, zerolog.Nop())
		if tk.timeout != tc.want {
			t.Errorf("interval %v, pass timeout %v: expected %v, got %v", tc.interval, tc.passTimeout, tc.want, tk.timeout)
		}
	}
}

type deadlineEngine struct {
	remaining time.Duration
}

func (e *deadlineEngine) ReconcileAll(ctx context.Context, _ time.Time) (*ports.ReconcileResult, error) {
	deadline, _ := ctx.Deadline()
	e.remaining = time.Until(deadline)
	return &ports.ReconcileResult{}, nil
}

func TestTicker_RunOnceEndsBeforeLockExpires(t *testing.T) {
	engine := &deadlineEngine{}
	tk := NewTicker(engine, 10*time.Minute, 55*time.Second, zerolog.Nop())

	tk.RunOnce(context.Background())

	if engine.remaining <= 0 || engine.remaining > 55*time.Second {
		t.Fatalf("expected the pass deadline within the lock TTL, got %v", engine.remaining)
	}
}
