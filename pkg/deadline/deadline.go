// Package deadline races a call against a timer. Whichever settles first
// wins; the loser's eventual result is dropped.
package deadline

import (
	"context"
	"errors"
	"time"
)

var ErrTimedOut = errors.New("deadline: timed out")

type outcome[T any] struct {
	value T
	err   error
}

// Run invokes fn with a context that expires after d and waits at most d for
// it to settle. A call that outlives the timer keeps running in the
// background but its result is ignored.
func Run[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, d)

	ch := make(chan outcome[T], 1)
	go func() {
		defer cancel()
		v, err := fn(callCtx)
		ch <- outcome[T]{value: v, err: err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case out := <-ch:
		if errors.Is(out.err, context.DeadlineExceeded) {
			var zero T
			return zero, ErrTimedOut
		}
		return out.value, out.err
	case <-timer.C:
		var zero T
		return zero, ErrTimedOut
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
