package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/virajbhatt/cardintel/constants"
)

// CardImage is an opaque reference to image bytes on the temp store. The
// orchestrator owns it for the duration of one extraction and deletes it at
// the end of every code path.
type CardImage struct {
	Path        string
	Size        int64
	ContentType string
	Side        constants.ImageSide
}

var (
	ErrMissingFront = errors.New("front image is required")
	ErrImageType    = errors.New("unsupported image type")
	ErrImageSize    = errors.New("image exceeds size limit")
)

// validateImages enforces type and size limits before any external call is
// made. Front is mandatory, back optional.
func validateImages(front *CardImage, back *CardImage) error {
	if front == nil || front.Path == "" {
		return ErrMissingFront
	}
	for _, img := range []*CardImage{front, back} {
		if img == nil {
			continue
		}
		if _, ok := constants.AllowedImageTypes[img.ContentType]; !ok {
			return fmt.Errorf("%w: %s image is %q, want jpeg or png", ErrImageType, img.Side, img.ContentType)
		}
		if img.Size > constants.MaxImageBytes {
			return fmt.Errorf("%w: %s image is %d bytes, limit %d", ErrImageSize, img.Side, img.Size, int64(constants.MaxImageBytes))
		}
	}
	return nil
}

// cleanupImages removes temp images best-effort. Failures are logged, never
// propagated; the response is already decided by the time this runs.
func cleanupImages(log *slog.Logger, images ...*CardImage) {
	for _, img := range images {
		if img == nil || img.Path == "" {
			continue
		}
		if err := os.Remove(img.Path); err != nil && !os.IsNotExist(err) {
			log.Warn("pipeline.cleanup_failed", "path", img.Path, "side", img.Side, "error", err)
		}
	}
}
