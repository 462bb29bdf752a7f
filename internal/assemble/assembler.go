// Package assemble orchestrates catalog resolution, bundle matching,
// adapter dispatch, and caching into one per-slug result.
package assemble

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/bundle"
	"github.com/driveshelf/driveshelf/internal/catalog"
	"github.com/driveshelf/driveshelf/internal/events"
	"github.com/driveshelf/driveshelf/internal/logging"
	"github.com/driveshelf/driveshelf/internal/remote"
	"github.com/driveshelf/driveshelf/internal/render"
)

// Options configures an Assembler.
type Options struct {
	Client             remote.Client
	RootID             string
	EnableSmartBundles bool
	Defaults           render.Defaults
	DefaultCacheTTL    int // seconds; 0 uses the 30s default
	WalkOptions        catalog.Options
	Events             *events.Broadcaster // optional
}

// Assembler resolves slugs into cached render results. It is an
// explicitly constructed service: build one per process (or per tenant)
// and pass it by reference; the caches inside are not shared globally.
type Assembler struct {
	client             remote.Client
	registry           *render.Registry
	cache              *ContentCache
	rootID             string
	enableSmartBundles bool
	defaults           render.Defaults
	walkOptions        catalog.Options
	events             *events.Broadcaster
}

// New creates an Assembler.
func New(opts Options) *Assembler {
	ttl := opts.DefaultCacheTTL
	if ttl == 0 {
		ttl = 30
	}
	cache := NewContentCache(ttl)
	if opts.Events != nil {
		cache.SetOnEvict(func(key string) {
			opts.Events.Publish(events.Event{Type: events.EventEvicted, Slug: key})
		})
	}
	return &Assembler{
		client:             opts.Client,
		registry:           render.NewRegistry(),
		cache:              cache,
		rootID:             opts.RootID,
		enableSmartBundles: opts.EnableSmartBundles,
		defaults:           opts.Defaults,
		walkOptions:        opts.WalkOptions,
		events:             opts.Events,
	}
}

// Cache exposes the content cache (tests and diagnostics).
func (a *Assembler) Cache() *ContentCache {
	return a.cache
}

// Assemble resolves one slug into a render result. A nil result with nil
// error means the slug matched no locator and no bundle (not found).
// Uncached requests walk the catalog from the root on every call; catalog
// freshness across requests is the manifest cache's concern, not this
// component's.
func (a *Assembler) Assemble(ctx context.Context, slug []string) (*render.Result, error) {
	cacheKey := strings.Join(slug, "/")
	if cached := a.cache.Get(cacheKey); cached != nil {
		return cached, nil
	}

	locators, err := catalog.Walk(ctx, a.client, a.rootID, a.walkOptions)
	if err != nil {
		return nil, err
	}

	var target render.Target
	if locator := catalog.FindBySlug(locators, slug); locator != nil {
		target = render.LocatorTarget(*locator)
	} else if a.enableSmartBundles {
		bundles := bundle.Group(locators)
		if desc := bundle.Find(bundles, cacheKey); desc != nil {
			target = render.BundleTarget(*desc)
		}
	}

	if target.Locator == nil && target.Bundle == nil {
		logging.Debug("slug not found", zap.String("slug", cacheKey))
		return nil, nil
	}

	result, err := a.registry.Load(ctx, target, &render.Context{
		Client:   a.client,
		Defaults: a.defaults,
	})
	if err != nil {
		return nil, err
	}

	a.cache.Set(cacheKey, result)
	if a.events != nil {
		a.events.Publish(events.Event{
			Type: events.EventLoaded,
			Slug: cacheKey,
			Kind: string(result.Kind),
		})
	}
	return result, nil
}
