package render

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var imageExt = regexp.MustCompile(`(?i)\.(png|jpe?g)$`)

// imageAdapter produces a single-image gallery for image files.
type imageAdapter struct{}

func (a *imageAdapter) Kind() Kind { return KindImage }

func (a *imageAdapter) Match(t Target) bool {
	if t.Locator == nil {
		return false
	}
	return imageExt.MatchString(t.Locator.Name) || strings.HasPrefix(t.Locator.MimeType, "image/")
}

func (a *imageAdapter) Load(ctx context.Context, t Target, actx *Context) (*Result, error) {
	locator := t.Locator
	url, err := actx.Client.PreviewURL(ctx, locator.ID, locator.MimeType)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", locator.Slug(), err)
	}

	meta := Meta{Title: locator.Name, ModifiedTime: locator.ModifiedTime}

	return &Result{
		Kind:        KindImage,
		Meta:        meta,
		CachePolicy: &CachePolicy{Revalidate: actx.revalidate(300)},
		Spec: Spec{
			Kind: KindImage,
			Meta: &meta,
			Image: &ImageSpec{
				Images: []ImageRef{{URL: url, Alt: locator.Name, ID: locator.ID}},
			},
		},
	}, nil
}
