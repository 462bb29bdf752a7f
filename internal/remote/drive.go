package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/driveshelf/driveshelf/internal/metrics"
	"github.com/driveshelf/driveshelf/internal/retry"
)

// DriveFolderMimeType marks container entries in Drive listings.
const DriveFolderMimeType = "application/vnd.google-apps.folder"

const driveListFields = "files(id,name,mimeType,modifiedTime,size,webViewLink,parents),nextPageToken"
const driveFileFields = "id,name,mimeType,modifiedTime,size,webViewLink,parents"

// DriveConfig holds Drive client settings.
type DriveConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	RetryConfig retry.Config
	HTTPClient  *http.Client
}

// DriveClient talks to a Google-Drive-style REST API. Transient network
// failures are retried with backoff; HTTP error statuses are returned as
// StatusError without retry.
type DriveClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	retryConfig retry.Config
}

// NewDriveClient creates a Drive REST client.
func NewDriveClient(cfg DriveConfig) (*DriveClient, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("drive client requires an access token")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/drive/v3"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		}
	}

	return &DriveClient{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		httpClient:  httpClient,
		retryConfig: cfg.RetryConfig,
	}, nil
}

// get performs an authorized GET. Network failures are marked retryable;
// non-2xx statuses are drained into a StatusError.
func (c *DriveClient) get(ctx context.Context, rawURL string) (*http.Response, error) {
	return retry.DoWithResult(ctx, c.retryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
		}
		return resp, nil
	})
}

type driveFile struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MimeType     string   `json:"mimeType"`
	ModifiedTime string   `json:"modifiedTime"`
	Size         string   `json:"size"`
	WebViewLink  string   `json:"webViewLink"`
	Parents      []string `json:"parents"`
}

func (f driveFile) toFile() File {
	out := File{
		ID:          f.ID,
		Name:        f.Name,
		MimeType:    f.MimeType,
		WebViewLink: f.WebViewLink,
		Parents:     f.Parents,
		IsFolder:    f.MimeType == DriveFolderMimeType,
	}
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			out.ModifiedTime = t
		}
	}
	if f.Size != "" {
		if n, err := strconv.ParseInt(f.Size, 10, 64); err == nil {
			out.Size = n
		}
	}
	return out
}

// ListChildren lists the direct children of a folder, following page
// tokens until exhausted.
func (c *DriveClient) ListChildren(ctx context.Context, folderID string) ([]File, error) {
	start := time.Now()
	var files []File
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
		params.Set("fields", driveListFields)
		params.Set("pageSize", "1000")
		params.Set("supportsAllDrives", "true")
		params.Set("includeItemsFromAllDrives", "true")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		resp, err := c.get(ctx, c.baseURL+"/files?"+params.Encode())
		if err != nil {
			metrics.RecordRemoteOperation("list_children", time.Since(start), false)
			return nil, fmt.Errorf("list children of %s: %w", folderID, err)
		}

		var page struct {
			Files         []driveFile `json:"files"`
			NextPageToken string      `json:"nextPageToken"`
		}
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			metrics.RecordRemoteOperation("list_children", time.Since(start), false)
			return nil, fmt.Errorf("decode listing of %s: %w", folderID, err)
		}

		for _, f := range page.Files {
			files = append(files, f.toFile())
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	metrics.RecordRemoteOperation("list_children", time.Since(start), true)
	return files, nil
}

// GetFile returns metadata for a single file, or nil if it does not exist.
func (c *DriveClient) GetFile(ctx context.Context, fileID string) (*File, error) {
	start := time.Now()
	params := url.Values{}
	params.Set("fields", driveFileFields)
	params.Set("supportsAllDrives", "true")

	resp, err := c.get(ctx, c.baseURL+"/files/"+url.PathEscape(fileID)+"?"+params.Encode())
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			metrics.RecordRemoteOperation("get_file", time.Since(start), true)
			return nil, nil
		}
		metrics.RecordRemoteOperation("get_file", time.Since(start), false)
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	var f driveFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		metrics.RecordRemoteOperation("get_file", time.Since(start), false)
		return nil, fmt.Errorf("decode file %s: %w", fileID, err)
	}

	metrics.RecordRemoteOperation("get_file", time.Since(start), true)
	file := f.toFile()
	return &file, nil
}

// Download streams the raw content of a file.
func (c *DriveClient) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	start := time.Now()
	resp, err := c.get(ctx, c.baseURL+"/files/"+url.PathEscape(fileID)+"?alt=media")
	if err != nil {
		metrics.RecordRemoteOperation("download", time.Since(start), false)
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	metrics.RecordRemoteOperation("download", time.Since(start), true)
	return resp.Body, nil
}

// DownloadText returns the full textual content of a file.
func (c *DriveClient) DownloadText(ctx context.Context, fileID string) (string, error) {
	body, err := c.Download(ctx, fileID)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", fileID, err)
	}
	return string(data), nil
}

// PreviewURL returns the provider preview URL shape for the file. PDFs
// route to the viewer shape; everything else to the generic content shape.
func (c *DriveClient) PreviewURL(ctx context.Context, fileID, mimeType string) (string, error) {
	if mimeType == "application/pdf" {
		return "https://drive.google.com/file/d/" + url.PathEscape(fileID) + "/preview", nil
	}
	return "https://drive.google.com/uc?id=" + url.QueryEscape(fileID), nil
}

// ExportURL returns a direct-download URL for the file.
func (c *DriveClient) ExportURL(ctx context.Context, fileID, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	return "https://drive.google.com/uc?id=" + url.QueryEscape(fileID) + "&export=" + url.QueryEscape(mimeType), nil
}
