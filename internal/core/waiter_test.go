package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func fastWaiter(attempts int) Waiter {
	return Waiter{
		FirstDelay:     time.Millisecond,
		Interval:       time.Millisecond,
		MaxAttempts:    attempts,
		AttemptTimeout: time.Second,
	}
}

func TestWaiter_SucceedsOnNthAttempt(t *testing.T) {
	var calls atomic.Int32
	ping := func(ctx context.Context) error {
		if calls.Add(1) < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := fastWaiter(5).Wait(context.Background(), ping); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("ping called %d times, want 3", got)
	}
}

func TestWaiter_StopsAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	refused := errors.New("connection refused")
	ping := func(ctx context.Context) error {
		calls.Add(1)
		return refused
	}

	err := fastWaiter(4).Wait(context.Background(), ping)
	if !errors.Is(err, ErrConnectionTimeout) {
		t.Fatalf("expected ErrConnectionTimeout, got %v", err)
	}
	if !errors.Is(err, refused) {
		t.Errorf("expected the last ping error to be wrapped, got %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("ping called %d times, want exactly 4", got)
	}
}

func TestWaiter_ZeroAttemptsMeansOne(t *testing.T) {
	var calls atomic.Int32
	ping := func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("down")
	}

	_ = fastWaiter(0).Wait(context.Background(), ping)
	if got := calls.Load(); got != 1 {
		t.Errorf("ping called %d times, want 1", got)
	}
}

func TestWaiter_HonorsFirstDelay(t *testing.T) {
	w := fastWaiter(1)
	w.FirstDelay = 60 * time.Millisecond

	start := time.Now()
	if err := w.Wait(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("first attempt after %v, want at least the first delay", elapsed)
	}
}

func TestWaiter_ContextCancelled(t *testing.T) {
	w := fastWaiter(1000)
	w.Interval = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 70*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	err := w.Wait(ctx, func(context.Context) error {
		calls.Add(1)
		return errors.New("down")
	})

	if !errors.Is(err, ErrConnectionTimeout) {
		t.Errorf("expected ErrConnectionTimeout, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded in chain, got %v", err)
	}
	if got := calls.Load(); got >= 1000 {
		t.Errorf("waiter did not stop early: %d attempts", got)
	}
}

func TestWaiter_AttemptTimeout(t *testing.T) {
	w := fastWaiter(1)
	w.AttemptTimeout = 20 * time.Millisecond

	err := w.Wait(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected attempt deadline, got %v", err)
	}
}

func TestWaiter_Budget(t *testing.T) {
	if got, want := DefaultWaiter().Budget(), 16*time.Second; got != want {
		t.Errorf("default Budget = %v, want %v", got, want)
	}
	if got := (Waiter{FirstDelay: time.Second}).Budget(); got != time.Second {
		t.Errorf("Budget with no attempts = %v, want 1s", got)
	}
}
