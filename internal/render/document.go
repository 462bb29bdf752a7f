package render

import (
	"context"
	"fmt"
	"regexp"

	"github.com/driveshelf/driveshelf/internal/markdown"
)

var documentExt = regexp.MustCompile(`(?i)\.mdx?$`)

// documentAdapter compiles markdown/MDX documents into HTML with a table
// of contents.
type documentAdapter struct{}

func (a *documentAdapter) Kind() Kind { return KindMDX }

func (a *documentAdapter) Match(t Target) bool {
	return t.Locator != nil && documentExt.MatchString(t.Locator.Name)
}

func (a *documentAdapter) Load(ctx context.Context, t Target, actx *Context) (*Result, error) {
	locator := t.Locator
	source, err := actx.Client.DownloadText(ctx, locator.ID)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", locator.Slug(), err)
	}

	compiled, err := markdown.Compile(locator.Slug(), source)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", locator.Slug(), err)
	}

	meta := Meta{
		Title:        compiled.Title,
		Description:  compiled.Description,
		ModifiedTime: locator.ModifiedTime,
		Size:         locator.Size,
	}
	if meta.Title == "" {
		meta.Title = locator.Name
	}

	return &Result{
		Kind:        KindMDX,
		Meta:        meta,
		CachePolicy: &CachePolicy{Revalidate: actx.revalidate(30)},
		Spec: Spec{
			Kind: KindMDX,
			Meta: &meta,
			Document: &DocumentSpec{
				HTML:   compiled.HTML,
				TOC:    compiled.TOC,
				Source: source,
			},
		},
	}, nil
}
