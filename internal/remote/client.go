// Package remote defines the catalog client boundary to the remote file
// store and provides Drive-style REST and S3 implementations. All
// provider-specific URL shapes live behind this boundary; the content
// pipeline never constructs preview or export URLs itself.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// File is one object as listed from the remote store.
type File struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime,omitempty"`
	Size         int64     `json:"size,omitempty"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
	Parents      []string  `json:"parents,omitempty"`
	IsFolder     bool      `json:"isFolder,omitempty"`
}

// Client is the capability set consumed by the catalog walker and the
// content adapters.
type Client interface {
	// ListChildren lists the direct children of a container. It paginates
	// to exhaustion internally; callers never observe a partial page set.
	ListChildren(ctx context.Context, folderID string) ([]File, error)

	// GetFile returns metadata for a single file, or nil if it does not exist.
	GetFile(ctx context.Context, fileID string) (*File, error)

	// Download streams the raw content of a file.
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)

	// DownloadText returns the full textual content of a file.
	DownloadText(ctx context.Context, fileID string) (string, error)

	// PreviewURL returns a URL usable for inline rendering of the file.
	PreviewURL(ctx context.Context, fileID, mimeType string) (string, error)
}

// Exporter is an optional client capability for direct-download URLs.
type Exporter interface {
	ExportURL(ctx context.Context, fileID, mimeType string) (string, error)
}

// StatusError is a non-2xx response from the remote store. It carries the
// HTTP status and response body uninterpreted; the pipeline propagates it
// to the caller without retrying.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote store returned %d: %s", e.Status, e.Body)
}

// IsUnauthorized reports whether err is a credential failure at the client
// boundary.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && (se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden)
}
