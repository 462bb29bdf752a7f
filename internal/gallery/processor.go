package gallery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/catalog"
	"github.com/driveshelf/driveshelf/internal/logging"
	"github.com/driveshelf/driveshelf/internal/remote"
)

// Uploader writes derived assets to an object store. Satisfied by the S3
// client; thumbnails only ever write under the derived-asset prefix.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
}

// Processor downloads catalog images, extracts EXIF, and uploads
// thumbnails to the derived-asset prefix.
type Processor struct {
	client   remote.Client
	uploader Uploader
}

// NewProcessor creates a thumbnail processor.
func NewProcessor(client remote.Client, uploader Uploader) *Processor {
	return &Processor{client: client, uploader: uploader}
}

// IsImageLocator reports whether a locator is a gallery image.
func IsImageLocator(l catalog.Locator) bool {
	if strings.HasPrefix(l.MimeType, "image/") {
		return true
	}
	lower := strings.ToLower(l.Name)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ProcessLocator generates and uploads a thumbnail for one image locator.
// Returns the extracted EXIF data.
func (p *Processor) ProcessLocator(ctx context.Context, l catalog.Locator) (*ExifData, error) {
	body, err := p.client.Download(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("download image %s: %w", l.Slug(), err)
	}
	data, err := io.ReadAll(body)
	body.Close()
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", l.Slug(), err)
	}

	// EXIF and thumbnail each need their own read of the bytes.
	exifData := ExtractExif(bytes.NewReader(data))

	thumb, w, h, err := GenerateThumbnail(bytes.NewReader(data), exifData.Orientation)
	if err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w", l.Slug(), err)
	}

	key := ThumbKey(l.Slug())
	if err := p.uploader.Upload(ctx, key, bytes.NewReader(thumb), "image/jpeg"); err != nil {
		return nil, fmt.Errorf("upload thumbnail %s: %w", key, err)
	}

	logging.Debug("thumbnail uploaded",
		zap.String("key", key),
		zap.Int("width", w),
		zap.Int("height", h))
	return exifData, nil
}

// ProcessAll processes every image locator in a catalog. Failures on
// individual images are logged and skipped; the count of successes is
// returned.
func (p *Processor) ProcessAll(ctx context.Context, locators []catalog.Locator) (int, error) {
	done := 0
	for _, l := range locators {
		if !IsImageLocator(l) {
			continue
		}
		if _, err := p.ProcessLocator(ctx, l); err != nil {
			logging.Warn("image processing failed",
				zap.String("slug", l.Slug()),
				zap.Error(err))
			continue
		}
		done++
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
	}
	return done, nil
}
