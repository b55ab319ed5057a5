// Package poller runs the timed collection loops that feed the cell store.
package poller

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Interval is the pause between two collection cycles.
const Interval = 3 * time.Second

// run calls cycle, then waits interval, until ctx is cancelled. ctx is
// checked before each cycle and before each wait.
func run(ctx context.Context, interval time.Duration, logger *zap.Logger, cycle func(context.Context)) {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if err := safeRun(func() { cycle(ctx) }); err != nil {
			logger.Error("poll cycle failed", zap.Error(err))
		}
		if ctx.Err() != nil {
			return
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// safeRun executes fn and turns a panic into an error.
func safeRun(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	fn()
	return nil
}
