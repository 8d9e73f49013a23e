package utils

import (
	"context"
	"time"
)

// ContextSleep waits for d and returns the wake-up time, or nil if ctx ends first.
func ContextSleep(ctx context.Context, d time.Duration) *time.Time {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil
	case t := <-timer.C:
		return &t
	}
}

// WithOptionalTimeout bounds ctx by d, a non-positive d only adds cancellation.
func WithOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
