package cellar

import (
	"context"

	"github.com/hyperengineering/cellar/internal/images"
	"github.com/hyperengineering/cellar/internal/wine"
)

// ImagesEnabled reports whether label images are moved to object storage.
func (s *Service) ImagesEnabled() bool {
	return s.images.Enabled()
}

// PendingImages returns stored wines that still carry inline label images.
func (s *Service) PendingImages(ctx context.Context, limit int) ([]wine.Wine, error) {
	return s.store.WinesWithInlineImages(ctx, limit)
}

// UploadInlineImages moves a wine's inline images to object storage and
// reports whether none remain inline.
func (s *Service) UploadInlineImages(ctx context.Context, w *wine.Wine) (bool, error) {
	front, back := images.UploadPair(ctx, s.images, w.ID, w.FrontImage, w.BackImage)

	patch := wine.Patch{}
	if front != w.FrontImage {
		patch["frontImage"] = front
	}
	if back != w.BackImage {
		patch["backImage"] = back
	}
	if len(patch) > 0 {
		if _, err := s.store.UpdateWine(ctx, w.ID, patch); err != nil {
			return false, err
		}
	}
	return !images.IsDataURL(front) && !images.IsDataURL(back), nil
}
