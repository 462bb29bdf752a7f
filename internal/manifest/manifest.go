// Package manifest provides the precomputed catalog snapshot and its
// revalidating cache.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/events"
	"github.com/driveshelf/driveshelf/internal/logging"
	"github.com/driveshelf/driveshelf/internal/metrics"
	"github.com/driveshelf/driveshelf/internal/remote"
)

// FileEntry describes one file in the manifest.
type FileEntry struct {
	Name string `json:"name"`
	Mime string `json:"mime"`
}

// Manifest is a precomputed folder→file snapshot fetched as a JSON blob
// from the remote store.
type Manifest struct {
	Folders      map[string]string            `json:"folders"`
	Tree         map[string][]string          `json:"tree"`
	Files        map[string]FileEntry         `json:"files"`
	InlineAssets map[string]map[string]string `json:"inlineAssets,omitempty"`
	UpdatedAt    *float64                     `json:"updatedAt,omitempty"`
}

// Cache is a read-through manifest cache with mandatory revalidation:
// every Get fetches the remote manifest, but the previously cached object
// is returned as-is when the version stamps match, so long-lived derived
// state (a page tree, say) can compare identity and skip rebuilding.
type Cache struct {
	client remote.Client
	fileID string

	mu     sync.Mutex
	cached *Manifest
	events *events.Broadcaster
}

// NewCache creates a manifest cache reading the given remote file.
func NewCache(client remote.Client, fileID string) *Cache {
	return &Cache{client: client, fileID: fileID}
}

// SetBroadcaster attaches an event broadcaster notified on snapshot
// replacement. Call before the first Get.
func (c *Cache) SetBroadcaster(b *events.Broadcaster) {
	c.events = b
}

func (c *Cache) fetch(ctx context.Context) (*Manifest, error) {
	raw, err := c.client.DownloadText(ctx, c.fileID)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest %s: %w", c.fileID, err)
	}

	var m Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", c.fileID, err)
	}
	return &m, nil
}

// Get returns the current manifest. The remote object is fetched on every
// call; if both the cached and fresh updatedAt stamps are numeric and
// equal, the cached object is returned unchanged. Otherwise the fresh
// manifest wholesale-replaces the cache. Fetch errors propagate and leave
// the cached manifest in place.
func (c *Cache) Get(ctx context.Context) (*Manifest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached == nil {
		m, err := c.fetch(ctx)
		if err != nil {
			metrics.RecordManifestRefresh("error")
			return nil, err
		}
		c.cached = m
		metrics.RecordManifestRefresh("initial")
		return c.cached, nil
	}

	latest, err := c.fetch(ctx)
	if err != nil {
		metrics.RecordManifestRefresh("error")
		return nil, err
	}

	if latest.UpdatedAt != nil && c.cached.UpdatedAt != nil {
		if *latest.UpdatedAt == *c.cached.UpdatedAt {
			metrics.RecordManifestRefresh("unchanged")
			return c.cached, nil
		}
		logging.Debug("manifest stamp changed",
			zap.Float64("old", *c.cached.UpdatedAt),
			zap.Float64("new", *latest.UpdatedAt))
	}

	c.cached = latest
	metrics.RecordManifestRefresh("replaced")
	if c.events != nil {
		c.events.Publish(events.Event{Type: events.EventManifestReplaced})
	}
	return c.cached, nil
}
