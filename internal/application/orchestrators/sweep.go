package orchestrators

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig holds configuration for the background auto-checkout sweep.
type SweepConfig struct {
	Interval time.Duration // zero disables the sweep
}

// StartAutoCheckoutSweep starts a goroutine that runs the auto-checkout
// sweep for every branch on each tick. The page-load sweep keeps working
// whether or not this runs.
// PRE: deps.BranchStore and deps.AttendanceStore are set
// POST: Returns a stop function that cancels the goroutine and waits for it
func StartAutoCheckoutSweep(ctx context.Context, deps AttendanceDeps, cfg SweepConfig) func() {
	if cfg.Interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	slog.Info("sweep_event", "event", "sweep_started", "interval", cfg.Interval.String())

	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				closed, err := ExecuteAutoCheckoutAll(ctx, SystemActorFor(), deps)
				if err != nil {
					slog.Error("sweep_event", "event", "sweep_failed", "error", err)
				}
				if closed > 0 {
					slog.Info("sweep_event", "event", "sweep_closed", "closed", closed)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
		slog.Info("sweep_event", "event", "sweep_stopped")
	}
}
