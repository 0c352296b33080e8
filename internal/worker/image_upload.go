package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/cellar/internal/wine"
)

// ImageSource defines the collection operations needed by the image upload worker.
type ImageSource interface {
	PendingImages(ctx context.Context, limit int) ([]wine.Wine, error)
	UploadInlineImages(ctx context.Context, w *wine.Wine) (bool, error)
}

// ImageUploadWorker moves label images that were stored inline, because
// object storage was unreachable when the wine was saved, into the bucket.
type ImageUploadWorker struct {
	source      ImageSource
	interval    time.Duration
	maxAttempts int
	batchSize   int
	attempts    map[string]int      // failed attempts per wine ID
	skipped     map[string]struct{} // wines that exhausted their attempts
}

// NewImageUploadWorker creates a new image upload worker.
func NewImageUploadWorker(
	source ImageSource,
	interval time.Duration,
	maxAttempts int,
	batchSize int,
) *ImageUploadWorker {
	return &ImageUploadWorker{
		source:      source,
		interval:    interval,
		maxAttempts: maxAttempts,
		batchSize:   batchSize,
		attempts:    make(map[string]int),
		skipped:     make(map[string]struct{}),
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
func (w *ImageUploadWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "image-upload",
		"interval", w.interval.String(),
		"max_attempts", w.maxAttempts,
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Process immediately on start, then on each tick
	w.processPending(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "image-upload",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

func (w *ImageUploadWorker) processPending(ctx context.Context) {
	// Skipped wines still match the query, so read past them.
	wines, err := w.source.PendingImages(ctx, w.batchSize+len(w.skipped))
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("failed to list wines with inline images",
			"component", "worker",
			"error", err,
		)
		return
	}

	var uploaded, processed int
	for i := range wines {
		if processed == w.batchSize || ctx.Err() != nil {
			break
		}
		id := wines[i].ID
		if _, ok := w.skipped[id]; ok {
			continue
		}
		processed++

		done, err := w.source.UploadInlineImages(ctx, &wines[i])
		if err != nil {
			slog.Error("failed to save uploaded image urls",
				"component", "worker",
				"wine_id", id,
				"error", err,
			)
		}
		if err == nil && done {
			delete(w.attempts, id)
			uploaded++
			continue
		}

		w.attempts[id]++
		if w.attempts[id] >= w.maxAttempts {
			w.skip(id)
		}
	}

	if uploaded > 0 {
		slog.Info("uploaded pending label images",
			"component", "worker",
			"action", "image_upload",
			"count", uploaded,
		)
	}
}

func (w *ImageUploadWorker) skip(id string) {
	slog.Error("label image upload permanently failed",
		"component", "worker",
		"action", "image_upload",
		"wine_id", id,
		"attempts", w.attempts[id],
	)
	w.skipped[id] = struct{}{}
	delete(w.attempts, id)
}
