package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var mediaExt = regexp.MustCompile(`(?i)\.(mp3|mp4|wav|mov|m4a)$`)

// mediaAdapter serves audio and video files through a preview URL. The
// emitted kind is audio when the mime type says so, video otherwise.
type mediaAdapter struct{}

func (a *mediaAdapter) Kind() Kind { return KindVideo }

func (a *mediaAdapter) Match(t Target) bool {
	if t.Locator == nil {
		return false
	}
	return mediaExt.MatchString(t.Locator.Name) ||
		strings.HasPrefix(t.Locator.MimeType, "audio/") ||
		strings.HasPrefix(t.Locator.MimeType, "video/")
}

func (a *mediaAdapter) Load(ctx context.Context, t Target, actx *Context) (*Result, error) {
	locator := t.Locator
	url, err := actx.Client.PreviewURL(ctx, locator.ID, locator.MimeType)
	if err != nil {
		return nil, fmt.Errorf("load media %s: %w", locator.Slug(), err)
	}

	kind := KindVideo
	if strings.HasPrefix(locator.MimeType, "audio/") {
		kind = KindAudio
	}

	meta := Meta{Title: locator.Name, ModifiedTime: locator.ModifiedTime}

	return &Result{
		Kind:        kind,
		Meta:        meta,
		CachePolicy: &CachePolicy{Revalidate: actx.revalidate(120)},
		Spec: Spec{
			Kind: kind,
			Meta: &meta,
			Media: &MediaSpec{
				Sources: []MediaSource{{URL: url, Type: locator.MimeType}},
			},
		},
	}, nil
}
