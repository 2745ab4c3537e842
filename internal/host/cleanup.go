package host

import (
	"context"
	"time"
)

// Bounded runs the cleanup steps in order and returns true if they all
// completed before the timeout. Steps receive a context carrying the
// deadline; a step that ignores it cannot hold up the caller past the
// timeout, only its own goroutine.
func Bounded(timeout time.Duration, steps ...func(context.Context)) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, step := range steps {
			if ctx.Err() != nil {
				return
			}
			step(ctx)
		}
	}()

	select {
	case <-done:
		return ctx.Err() == nil
	case <-ctx.Done():
		return false
	}
}
