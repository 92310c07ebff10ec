package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// admission caps how many browsers may be alive at once. Slots gate the
// creation of sessions; sessions themselves are never reused.
type admission struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

func newAdmission(limit int, timeout time.Duration) *admission {
	return &admission{sem: semaphore.NewWeighted(int64(limit)), timeout: timeout}
}

// acquire waits for a slot for at most the queue timeout. The caller's own
// cancellation is returned as is.
func (a *admission) acquire(ctx context.Context) error {
	wctx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	if err := a.sem.Acquire(wctx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return &Error{
				Kind:    KindOverloaded,
				Message: fmt.Sprintf("no browser slot available within %d ms", a.timeout.Milliseconds()),
				Err:     err,
			}
		}
		return err
	}
	return nil
}

func (a *admission) release() {
	a.sem.Release(1)
}
