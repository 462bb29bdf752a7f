package gallery

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"

	"github.com/disintegration/imaging"
)

const (
	ThumbMaxSize = 400
	ThumbQuality = 80
)

// ThumbKey returns the derived-asset storage key for a locator slug.
// Thumbnails live under their own prefix and never overwrite sources.
func ThumbKey(slug string) string {
	return "_thumbs/" + slug + ".jpg"
}

// GenerateThumbnail decodes an image, corrects EXIF orientation, fits it
// within ThumbMaxSize, and returns the JPEG bytes with dimensions.
func GenerateThumbnail(r io.Reader, orientation int) ([]byte, int, int, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, 0, 0, err
	}

	img = applyOrientation(img, orientation)
	thumb := imaging.Fit(img, ThumbMaxSize, ThumbMaxSize, imaging.Lanczos)

	bounds := thumb.Bounds()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: ThumbQuality}); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// applyOrientation transforms an image according to EXIF orientation.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
