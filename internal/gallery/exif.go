// Package gallery precomputes derived image assets (EXIF metadata and
// thumbnails) for image locators in the catalog.
package gallery

import (
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifData holds extracted EXIF metadata.
type ExifData struct {
	CameraMake  string     `json:"camera_make,omitempty"`
	CameraModel string     `json:"camera_model,omitempty"`
	DateTaken   *time.Time `json:"date_taken,omitempty"`
	Orientation int        `json:"orientation"`
}

// ExtractExif reads EXIF data from an image reader. Images without EXIF
// return default data (orientation 1), not an error.
func ExtractExif(r io.Reader) *ExifData {
	x, err := exif.Decode(r)
	if err != nil {
		return &ExifData{Orientation: 1}
	}

	d := &ExifData{Orientation: 1}
	d.CameraMake = getTagString(x, exif.Make)
	d.CameraModel = getTagString(x, exif.Model)

	if o, err := x.Get(exif.Orientation); err == nil {
		if v, err := o.Int(0); err == nil && v >= 1 && v <= 8 {
			d.Orientation = v
		}
	}

	if t, err := x.DateTime(); err == nil {
		d.DateTaken = &t
	}

	return d
}

func getTagString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}
