package collector

import (
	"context"
	"time"
)

// Clock abstracts backoff waits so tests run without real elapsed time.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration)
}

// SystemClock waits on the wall clock, honoring context cancellation.
type SystemClock struct{}

func (SystemClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
