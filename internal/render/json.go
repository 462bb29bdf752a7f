package render

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// jsonAdapter serves .json files with a best-effort parsed form. Parse
// failures degrade to raw-only rather than erroring.
type jsonAdapter struct{}

func (a *jsonAdapter) Kind() Kind { return KindJSON }

func (a *jsonAdapter) Match(t Target) bool {
	return t.Locator != nil && strings.HasSuffix(strings.ToLower(t.Locator.Name), ".json")
}

func (a *jsonAdapter) Load(ctx context.Context, t Target, actx *Context) (*Result, error) {
	locator := t.Locator
	raw, err := actx.Client.DownloadText(ctx, locator.ID)
	if err != nil {
		return nil, fmt.Errorf("load json %s: %w", locator.Slug(), err)
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		parsed = nil
	}

	meta := Meta{Title: locator.Name, ModifiedTime: locator.ModifiedTime}

	return &Result{
		Kind:        KindJSON,
		Meta:        meta,
		CachePolicy: &CachePolicy{Revalidate: actx.revalidate(15)},
		Spec: Spec{
			Kind: KindJSON,
			Meta: &meta,
			JSON: &JSONSpec{Raw: raw, Parsed: parsed},
		},
	}, nil
}
