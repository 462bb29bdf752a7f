// Package catalog enumerates the remote file store into a flat list of
// locators.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/logging"
	"github.com/driveshelf/driveshelf/internal/metrics"
	"github.com/driveshelf/driveshelf/internal/remote"
)

// Locator identifies one remote object. ID is stable across requests for
// the same underlying object; Path is unique within one catalog snapshot.
type Locator struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Path         []string  `json:"path"`
	MimeType     string    `json:"mimeType,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime,omitempty"`
	Size         int64     `json:"size,omitempty"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
}

// Slug returns the locator's path joined by "/".
func (l Locator) Slug() string {
	return strings.Join(l.Path, "/")
}

// Options controls a catalog walk.
type Options struct {
	// MimeAllowlist, when non-empty, drops entries whose mime type is set
	// and not in the list. Folders are always descended into.
	MimeAllowlist []string
}

func (o Options) allows(mimeType string) bool {
	if len(o.MimeAllowlist) == 0 || mimeType == "" {
		return true
	}
	for _, m := range o.MimeAllowlist {
		if m == mimeType {
			return true
		}
	}
	return false
}

// Walk recursively enumerates rootID into locators: depth-first, parent
// before children, siblings in provider listing order. Any listing error
// aborts the walk; no partial catalog is returned.
func Walk(ctx context.Context, client remote.Client, rootID string, opts Options) ([]Locator, error) {
	start := time.Now()
	var results []Locator

	var walk func(folderID string, path []string) error
	walk = func(folderID string, path []string) error {
		files, err := client.ListChildren(ctx, folderID)
		if err != nil {
			return err
		}

		for _, f := range files {
			if f.ID == "" || f.Name == "" {
				continue
			}

			current := append(append([]string(nil), path...), f.Name)
			if f.IsFolder {
				if err := walk(f.ID, current); err != nil {
					return err
				}
				continue
			}

			if !opts.allows(f.MimeType) {
				continue
			}
			results = append(results, Locator{
				ID:           f.ID,
				Name:         f.Name,
				Path:         current,
				MimeType:     f.MimeType,
				ModifiedTime: f.ModifiedTime,
				Size:         f.Size,
				WebViewLink:  f.WebViewLink,
			})
		}
		return nil
	}

	if err := walk(rootID, nil); err != nil {
		return nil, fmt.Errorf("walk catalog %s: %w", rootID, err)
	}

	metrics.RecordCatalogWalk(time.Since(start), len(results))
	logging.Debug("catalog walk complete",
		zap.String("root", rootID),
		zap.Int("locators", len(results)),
		zap.Duration("duration", time.Since(start)))
	return results, nil
}

// FindBySlug returns the locator whose path matches the slug, or nil.
func FindBySlug(locators []Locator, slug []string) *Locator {
	want := strings.Join(slug, "/")
	for i := range locators {
		if locators[i].Slug() == want {
			return &locators[i]
		}
	}
	return nil
}
