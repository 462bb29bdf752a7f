// Package render transforms resolved catalog targets into typed,
// presentation-ready render specifications via a prioritized adapter
// registry.
package render

import (
	"time"

	"github.com/driveshelf/driveshelf/internal/bundle"
	"github.com/driveshelf/driveshelf/internal/catalog"
	"github.com/driveshelf/driveshelf/internal/markdown"
)

// Kind discriminates the render spec variants. Consumers dispatch purely
// on Kind; the matching payload field is the only one populated.
type Kind string

const (
	KindMDX         Kind = "mdx"
	KindPDF         Kind = "pdf"
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindJSON        Kind = "json"
	KindAudio       Kind = "audio"
	KindVideo       Kind = "video"
	KindSmartBundle Kind = "smartBundle"
	KindFallback    Kind = "fallback"
)

// Meta carries presentation metadata alongside a spec.
type Meta struct {
	Title        string    `json:"title,omitempty"`
	Description  string    `json:"description,omitempty"`
	Breadcrumbs  []string  `json:"breadcrumbs,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Size         int64     `json:"size,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime,omitzero"`
}

// CachePolicy controls how long an assembled result stays cached.
// Revalidate ≤ 0 means the entry never expires under TTL rules.
type CachePolicy struct {
	Revalidate int `json:"revalidate"` // seconds
}

// DocumentSpec is the payload for compiled markdown documents.
type DocumentSpec struct {
	HTML   string              `json:"html"`
	TOC    []markdown.TOCEntry `json:"toc,omitempty"`
	Source string              `json:"source,omitempty"`
}

// PDFSpec carries a preview URL and optional download URL.
type PDFSpec struct {
	PDFURL      string `json:"pdfUrl"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// TextSpec is plain text content.
type TextSpec struct {
	Text string `json:"text"`
}

// ImageRef is one image in a gallery.
type ImageRef struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
	ID  string `json:"id"`
}

// ImageSpec is an ordered image gallery.
type ImageSpec struct {
	Images []ImageRef `json:"images"`
}

// JSONSpec carries raw JSON text plus its parsed form when valid.
// Parsed is left nil when the raw text does not parse.
type JSONSpec struct {
	Raw    string `json:"raw"`
	Parsed any    `json:"parsed,omitempty"`
}

// MediaSource is one playable source for a media spec.
type MediaSource struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// MediaSpec is the payload for audio and video kinds.
type MediaSpec struct {
	Sources         []MediaSource `json:"sources"`
	PosterURL       string        `json:"posterUrl,omitempty"`
	DurationSeconds float64       `json:"durationSeconds,omitempty"`
}

// BundleSpec is the composite payload for a smart bundle.
type BundleSpec struct {
	Key         string     `json:"key"`
	PrimaryData *Spec      `json:"primaryData,omitempty"` // json or text kind
	Gallery     *ImageSpec `json:"gallery,omitempty"`
	Media       *MediaSpec `json:"media,omitempty"`
	Attachments []TextSpec `json:"attachments,omitempty"`
}

// FallbackSpec explains why no richer spec could be produced.
type FallbackSpec struct {
	Reason string `json:"reason"`
}

// Spec is the tagged union handed to the presentation layer. Exactly the
// payload matching Kind is set.
type Spec struct {
	Kind     Kind          `json:"kind"`
	Meta     *Meta         `json:"meta,omitempty"`
	Document *DocumentSpec `json:"document,omitempty"`
	PDF      *PDFSpec      `json:"pdf,omitempty"`
	Text     *TextSpec     `json:"text,omitempty"`
	Image    *ImageSpec    `json:"image,omitempty"`
	JSON     *JSONSpec     `json:"json,omitempty"`
	Media    *MediaSpec    `json:"media,omitempty"`
	Bundle   *BundleSpec   `json:"bundle,omitempty"`
	Fallback *FallbackSpec `json:"fallback,omitempty"`
}

// Result wraps a spec with its metadata and cache policy.
type Result struct {
	Kind        Kind         `json:"kind"`
	Meta        Meta         `json:"meta"`
	Spec        Spec         `json:"renderSpec"`
	CachePolicy *CachePolicy `json:"cachePolicy,omitempty"`
}

// Target is the tagged input to adapter dispatch: exactly one of Locator
// or Bundle is set.
type Target struct {
	Locator *catalog.Locator
	Bundle  *bundle.Descriptor
}

// LocatorTarget wraps a single catalog locator.
func LocatorTarget(l catalog.Locator) Target {
	return Target{Locator: &l}
}

// BundleTarget wraps a bundle descriptor.
func BundleTarget(b bundle.Descriptor) Target {
	return Target{Bundle: &b}
}
