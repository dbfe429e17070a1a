package usecase

import (
	"context"
	"log/slog"
	"time"

	"CredibilityScanner/internal/ports"
)

// Warmer constructs heavy capabilities ahead of the first request.
type Warmer interface {
	Warm(ctx context.Context) []string
}

// Warmup re-warms the capability registry on every scheduler tick so a
// capability that failed to load is retried outside the request path.
type Warmup struct {
	driver ports.Scheduler
	warmer Warmer
	logger *slog.Logger
}

// NewWarmup returns a helper to start/stop recurring warm-ups.
func NewWarmup(driver ports.Scheduler, warmer Warmer, logger *slog.Logger) *Warmup {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Warmup{driver: driver, warmer: warmer, logger: logger}
}

// Start registers the warm-up job with the scheduler.
func (w *Warmup) Start(ctx context.Context) error {
	if w.driver == nil || w.warmer == nil {
		return nil
	}

	job := func(trigger time.Time) {
		failed := w.warmer.Warm(ctx)
		if len(failed) > 0 {
			w.logger.Warn("capabilities unavailable", "failed", failed, "tick", trigger)
			return
		}
		w.logger.Debug("capabilities ready", "tick", trigger)
	}

	return w.driver.Start(ctx, job)
}

// Stop tears down the underlying scheduler.
func (w *Warmup) Stop(ctx context.Context) error {
	if w.driver == nil {
		return nil
	}
	return w.driver.Stop(ctx)
}
