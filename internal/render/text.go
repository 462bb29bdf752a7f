package render

import (
	"context"
	"fmt"
	"strings"
)

// textAdapter serves plain .txt files verbatim.
type textAdapter struct{}

func (a *textAdapter) Kind() Kind { return KindText }

func (a *textAdapter) Match(t Target) bool {
	return t.Locator != nil && strings.HasSuffix(strings.ToLower(t.Locator.Name), ".txt")
}

func (a *textAdapter) Load(ctx context.Context, t Target, actx *Context) (*Result, error) {
	locator := t.Locator
	text, err := actx.Client.DownloadText(ctx, locator.ID)
	if err != nil {
		return nil, fmt.Errorf("load text %s: %w", locator.Slug(), err)
	}

	meta := Meta{Title: locator.Name, ModifiedTime: locator.ModifiedTime}

	return &Result{
		Kind:        KindText,
		Meta:        meta,
		CachePolicy: &CachePolicy{Revalidate: actx.revalidate(30)},
		Spec: Spec{
			Kind: KindText,
			Meta: &meta,
			Text: &TextSpec{Text: text},
		},
	}, nil
}
