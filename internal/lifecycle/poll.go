package lifecycle

import (
	"context"
	"time"
)

// PollFunc checks a remote status once. done ends polling successfully; an
// error only counts as a spent attempt.
type PollFunc func(ctx context.Context, attempt int) (done bool, err error)

// Poll waits interval before each check and gives up after maxAttempts
// checks. It returns the number of checks made and whether one reported done.
// A cancelled ctx stops polling with ctx.Err().
func Poll(ctx context.Context, interval time.Duration, maxAttempts int, check PollFunc) (attempts int, done bool, err error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempts < maxAttempts {
		select {
		case <-ctx.Done():
			return attempts, false, ctx.Err()
		case <-ticker.C:
		}
		attempts++
		ok, cerr := check(ctx, attempts)
		if cerr == nil && ok {
			return attempts, true, nil
		}
	}
	return attempts, false, nil
}
