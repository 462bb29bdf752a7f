package render

import (
	"context"
	"time"

	"github.com/driveshelf/driveshelf/internal/metrics"
	"github.com/driveshelf/driveshelf/internal/remote"
)

// Context carries the client capability set and default policies into
// adapter loads.
type Context struct {
	Client   remote.Client
	Defaults Defaults
}

// Defaults overrides per-adapter cache policy defaults when set.
type Defaults struct {
	Revalidate int // seconds; 0 keeps each adapter's own default
}

func (c *Context) revalidate(adapterDefault int) int {
	if c.Defaults.Revalidate > 0 {
		return c.Defaults.Revalidate
	}
	return adapterDefault
}

// exportURL resolves the optional export capability of the client.
func (c *Context) exportURL(ctx context.Context, fileID, mimeType string) string {
	exporter, ok := c.Client.(remote.Exporter)
	if !ok {
		return ""
	}
	url, err := exporter.ExportURL(ctx, fileID, mimeType)
	if err != nil {
		return ""
	}
	return url
}

// Adapter recognizes one content shape and converts it to a render spec.
type Adapter interface {
	Kind() Kind
	Match(t Target) bool
	Load(ctx context.Context, t Target, actx *Context) (*Result, error)
}

// Registry dispatches targets to adapters in fixed priority order. Order
// matters: the bundle adapter must win over locator adapters, and a name
// matching several extensions resolves to the first listed adapter.
type Registry struct {
	adapters []Adapter
}

// NewRegistry creates a registry with the standard adapter set.
func NewRegistry() *Registry {
	return &Registry{
		adapters: []Adapter{
			&bundleAdapter{},
			&documentAdapter{},
			&pdfAdapter{},
			&textAdapter{},
			&imageAdapter{},
			&jsonAdapter{},
			&mediaAdapter{},
		},
	}
}

// AdapterFor returns the first matching adapter, or nil.
func (r *Registry) AdapterFor(t Target) Adapter {
	for _, a := range r.adapters {
		if a.Match(t) {
			return a
		}
	}
	return nil
}

// Kinds lists the registered adapter kinds in priority order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.adapters))
	for _, a := range r.adapters {
		kinds = append(kinds, a.Kind())
	}
	return kinds
}

// Load dispatches to the first matching adapter. Targets matching no
// adapter produce a fallback result rather than an error, so every
// request yields something renderable.
func (r *Registry) Load(ctx context.Context, t Target, actx *Context) (*Result, error) {
	adapter := r.AdapterFor(t)
	if adapter == nil {
		return &Result{
			Kind: KindFallback,
			Spec: Spec{
				Kind:     KindFallback,
				Fallback: &FallbackSpec{Reason: "Unsupported content"},
			},
			CachePolicy: &CachePolicy{Revalidate: 30},
		}, nil
	}

	start := time.Now()
	result, err := adapter.Load(ctx, t, actx)
	metrics.RecordAdapterLoad(string(adapter.Kind()), time.Since(start), err == nil)
	return result, err
}
