package otp

import (
	"context"
	"time"
)

// RunTask waits for delay and then runs fn, unless ctx ends first. The
// continuation never runs after cancellation, so a caller whose screen or
// request went away cannot mutate state it no longer owns.
func RunTask(ctx context.Context, delay time.Duration, fn func()) error {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if fn != nil {
		fn()
	}
	return nil
}
