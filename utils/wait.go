package utils

import (
	"context"
	"time"
)

// DefaultPollInterval is how often WaitFor re-evaluates its predicate
const DefaultPollInterval = 250 * time.Millisecond

// Sleep pauses for d, returning early with ctx.Err() when ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitFor suspends until cond holds or timeout elapses. It reports whether
// cond held; a timeout is not an error. Errors from cond count as "not yet".
func WaitFor(ctx context.Context, timeout, interval time.Duration, cond func(context.Context) (bool, error)) (bool, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.Now().Add(timeout)
	for {
		if ok, err := cond(ctx); err == nil && ok {
			return true, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		if remaining < interval {
			interval = remaining
		}
		if err := Sleep(ctx, interval); err != nil {
			return false, err
		}
	}
}
