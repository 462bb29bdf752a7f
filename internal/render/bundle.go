package render

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/driveshelf/driveshelf/internal/bundle"
	"github.com/driveshelf/driveshelf/internal/catalog"
)

// bundleAdapter resolves a smart bundle into a composite spec: primary
// payload, image gallery, media sources, and attachment texts. Sub-fetches
// are independent, so they fan out concurrently; any failure aborts the
// whole load so a partial bundle is never cached.
type bundleAdapter struct{}

func (a *bundleAdapter) Kind() Kind { return KindSmartBundle }

func (a *bundleAdapter) Match(t Target) bool {
	return t.Bundle != nil
}

func (a *bundleAdapter) Load(ctx context.Context, t Target, actx *Context) (*Result, error) {
	desc := t.Bundle

	var galleryAssets, mediaAssets []bundle.Asset
	for _, asset := range desc.Assets {
		switch asset.Role {
		case bundle.RoleImage:
			galleryAssets = append(galleryAssets, asset)
		case bundle.RoleMedia:
			mediaAssets = append(mediaAssets, asset)
		}
	}

	var (
		primary     *Spec
		images      = make([]ImageRef, len(galleryAssets))
		sources     = make([]MediaSource, len(mediaAssets))
		attachments = make([]TextSpec, len(desc.Attachments))
	)

	g, gctx := errgroup.WithContext(ctx)

	if desc.PrimaryData != nil {
		primaryLocator := *desc.PrimaryData
		g.Go(func() error {
			spec, err := loadPrimary(gctx, actx, primaryLocator)
			if err != nil {
				return err
			}
			primary = spec
			return nil
		})
	}

	for i, asset := range galleryAssets {
		g.Go(func() error {
			url, err := actx.Client.PreviewURL(gctx, asset.Locator.ID, asset.Locator.MimeType)
			if err != nil {
				return fmt.Errorf("bundle image %s: %w", asset.Locator.Name, err)
			}
			images[i] = ImageRef{URL: url, Alt: asset.Locator.Name, ID: asset.Locator.ID}
			return nil
		})
	}

	for i, asset := range mediaAssets {
		g.Go(func() error {
			url, err := actx.Client.PreviewURL(gctx, asset.Locator.ID, asset.Locator.MimeType)
			if err != nil {
				return fmt.Errorf("bundle media %s: %w", asset.Locator.Name, err)
			}
			sources[i] = MediaSource{URL: url, Type: asset.Locator.MimeType}
			return nil
		})
	}

	for i, attachment := range desc.Attachments {
		g.Go(func() error {
			text, err := actx.Client.DownloadText(gctx, attachment.ID)
			if err != nil {
				return fmt.Errorf("bundle attachment %s: %w", attachment.Name, err)
			}
			attachments[i] = TextSpec{Text: text}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load bundle %s: %w", desc.Key, err)
	}

	spec := &BundleSpec{Key: desc.Key, PrimaryData: primary}
	if len(images) > 0 {
		spec.Gallery = &ImageSpec{Images: images}
	}
	if len(sources) > 0 {
		spec.Media = &MediaSpec{Sources: sources}
	}
	if len(attachments) > 0 {
		spec.Attachments = attachments
	}

	meta := Meta{Title: desc.Label}

	return &Result{
		Kind:        KindSmartBundle,
		Meta:        meta,
		CachePolicy: &CachePolicy{Revalidate: actx.revalidate(120)},
		Spec: Spec{
			Kind:   KindSmartBundle,
			Meta:   &meta,
			Bundle: spec,
		},
	}, nil
}

// loadPrimary fetches the primary payload as a json spec when the file is
// JSON, a text spec otherwise. Unlike the standalone json adapter, a
// malformed primary JSON payload fails the bundle: the descriptor claims
// structured data and a silent downgrade would cache a misleading bundle.
func loadPrimary(ctx context.Context, actx *Context, locator catalog.Locator) (*Spec, error) {
	raw, err := actx.Client.DownloadText(ctx, locator.ID)
	if err != nil {
		return nil, fmt.Errorf("bundle primary %s: %w", locator.Name, err)
	}

	if strings.HasSuffix(locator.Name, ".json") {
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("bundle primary %s: %w", locator.Name, err)
		}
		return &Spec{Kind: KindJSON, JSON: &JSONSpec{Raw: raw, Parsed: parsed}}, nil
	}
	return &Spec{Kind: KindText, Text: &TextSpec{Text: raw}}, nil
}
