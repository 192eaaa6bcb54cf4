package batch

import (
	"context"
	"time"
)

// cancellationGrace is how long in-flight DirectionsClient calls are given
// to finish or time out after the caller's context is cancelled (spec.md §5:
// "wait at most 3 s for in-flight DirectionsClient calls to complete").
const cancellationGrace = 3 * time.Second

// withGracePeriod derives a context that only becomes Done grace after
// parent is cancelled, so calls already dispatched get a bounded window to
// finish instead of being aborted the instant the cancellation signal
// arrives. The returned stop func must be called once the caller is done
// with the derived context to release the background goroutine.
func withGracePeriod(parent context.Context, grace time.Duration) (ctx context.Context, stop func()) {
	child, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		select {
		case <-parent.Done():
			select {
			case <-time.After(grace):
			case <-done:
			}
			cancel()
		case <-done:
			cancel()
		}
	}()

	return child, func() { close(done) }
}
