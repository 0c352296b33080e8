package worker

import (
	"context"
	"log/slog"
	"time"
)

// MetricsSource recomputes the collection gauges.
type MetricsSource interface {
	RefreshMetrics(ctx context.Context) error
}

// MetricsWorker periodically refreshes collection gauges so that they stay
// current between listings.
type MetricsWorker struct {
	source   MetricsSource
	interval time.Duration
}

// NewMetricsWorker creates a worker with the given source and interval.
func NewMetricsWorker(source MetricsSource, interval time.Duration) *MetricsWorker {
	return &MetricsWorker{
		source:   source,
		interval: interval,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
func (w *MetricsWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "metrics",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "metrics",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// refresh executes a single refresh cycle.
func (w *MetricsWorker) refresh(ctx context.Context) {
	start := time.Now()
	if err := w.source.RefreshMetrics(ctx); err != nil {
		// Check for graceful shutdown
		if ctx.Err() != nil {
			return
		}
		slog.Error("metrics refresh failed",
			"component", "worker",
			"action", "metrics_refresh",
			"error", err,
		)
		return
	}
	slog.Debug("metrics refreshed",
		"component", "worker",
		"action", "metrics_refresh",
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
