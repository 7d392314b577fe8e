package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/sqlcourse/internal/logging"
)

// Default readiness budget: 2s head start, then up to 15 attempts 1s apart.
const (
	DefaultFirstDelay     = 2 * time.Second
	DefaultRetryInterval  = 1 * time.Second
	DefaultMaxAttempts    = 15
	DefaultAttemptTimeout = 5 * time.Second
)

// PingFunc makes one connection attempt.
type PingFunc func(ctx context.Context) error

// Waiter polls a freshly launched instance until it accepts connections or
// the attempt budget is spent. The instance is never stopped by the waiter.
type Waiter struct {
	FirstDelay     time.Duration // Delay before the first attempt
	Interval       time.Duration // Delay between later attempts
	MaxAttempts    int           // Total attempts, at least 1
	AttemptTimeout time.Duration // Per-attempt bound; 0 disables
	Logger         *slog.Logger  // Default: the logger carried by ctx
}

// DefaultWaiter returns a Waiter with the default budget.
func DefaultWaiter() Waiter {
	return Waiter{
		FirstDelay:     DefaultFirstDelay,
		Interval:       DefaultRetryInterval,
		MaxAttempts:    DefaultMaxAttempts,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Budget returns the longest time Wait can take, excluding attempt durations.
func (w Waiter) Budget() time.Duration {
	n := max(w.MaxAttempts, 1)
	return w.FirstDelay + time.Duration(n-1)*w.Interval
}

// Wait calls ping until it succeeds. After MaxAttempts failures it returns a
// ConnectionTimeoutError wrapping the last ping error and makes no further
// attempts. Cancelling ctx stops the timer and returns early.
func (w Waiter) Wait(ctx context.Context, ping PingFunc) error {
	maxAttempts := max(w.MaxAttempts, 1)
	logger := w.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	timer := time.NewTimer(w.FirstDelay)
	defer timer.Stop()

	var lastErr error
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ConnectionTimeoutError("wait for instance",
				fmt.Errorf("stopped after %d attempts: %w", attempt-1, ctx.Err()))
		case <-timer.C:
		}

		err := w.attempt(ctx, ping)
		if err == nil {
			logger.Debug("instance ready", "attempt", attempt)
			return nil
		}
		lastErr = err

		if attempt >= maxAttempts {
			return ConnectionTimeoutError("wait for instance",
				fmt.Errorf("not ready after %d attempts: %w", attempt, lastErr))
		}

		logger.Debug("instance not ready", "attempt", attempt, "max_attempts", maxAttempts, "error", err)
		timer.Reset(w.Interval)
	}
}

func (w Waiter) attempt(ctx context.Context, ping PingFunc) error {
	if w.AttemptTimeout <= 0 {
		return ping(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, w.AttemptTimeout)
	defer cancel()
	return ping(attemptCtx)
}
