// Package images moves label photographs out of wine records and into
// S3-compatible object storage. When storage is not configured (empty bucket)
// the NoopStore is used and images stay inline as data URLs.
package images

import (
	"context"
	"log/slog"

	"github.com/hyperengineering/cellar/internal/config"
	"github.com/hyperengineering/cellar/internal/observability"
)

// Side names which label a photograph shows.
type Side string

const (
	Front Side = "front"
	Back  Side = "back"
)

// Store persists label images.
type Store interface {
	// Upload stores an inline image and returns its public URL. Values that
	// are not data URLs are returned unchanged.
	Upload(ctx context.Context, wineID string, side Side, image string) (string, error)

	// DeleteAll removes every stored image of a wine.
	DeleteAll(ctx context.Context, wineID string) error

	// Enabled reports whether images leave the wine record.
	Enabled() bool
}

// NoopStore keeps images inline.
type NoopStore struct{}

// Upload returns the image unchanged.
func (NoopStore) Upload(ctx context.Context, wineID string, side Side, image string) (string, error) {
	return image, nil
}

// DeleteAll is a no-op.
func (NoopStore) DeleteAll(ctx context.Context, wineID string) error {
	return nil
}

// Enabled always reports false.
func (NoopStore) Enabled() bool { return false }

// NewStore creates the appropriate Store based on configuration.
func NewStore(cfg config.ImagesConfig) (Store, error) {
	if !cfg.Configured() {
		return NoopStore{}, nil
	}
	return NewMinIOStore(cfg)
}

// UploadPair uploads front and back independently. A failed upload keeps the
// original value so the photograph is not lost; the failure is logged and the
// image can be retried later.
func UploadPair(ctx context.Context, store Store, wineID, front, back string) (string, string) {
	return UploadOrKeep(ctx, store, wineID, Front, front), UploadOrKeep(ctx, store, wineID, Back, back)
}

// UploadOrKeep uploads one inline image and returns its URL, or the original
// value when it is not inline or the upload fails.
func UploadOrKeep(ctx context.Context, store Store, wineID string, side Side, image string) string {
	if image == "" || !IsDataURL(image) {
		return image
	}
	url, err := store.Upload(ctx, wineID, side, image)
	if err != nil {
		observability.ImageUploads.WithLabelValues(observability.OutcomeFailure).Inc()
		slog.Warn("label upload failed, keeping inline image",
			"component", "images",
			"action", "upload",
			"wine_id", wineID,
			"side", string(side),
			"error", err,
		)
		return image
	}
	if store.Enabled() {
		observability.ImageUploads.WithLabelValues(observability.OutcomeSuccess).Inc()
	}
	return url
}
