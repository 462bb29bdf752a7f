package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/driveshelf/driveshelf/internal/metrics"
)

// S3FolderMimeType marks container entries in S3 listings. S3 has no real
// folders; common prefixes under a delimiter are surfaced as containers.
const S3FolderMimeType = "application/x-directory"

const presignExpiry = 15 * time.Minute

// S3Config holds S3 connection settings.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// S3Client implements Client against an S3/MinIO bucket. File IDs are
// object keys; folder IDs are key prefixes ending in "/" (the root folder
// ID is the empty string).
type S3Client struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Client creates an S3-backed catalog client.
func NewS3Client(ctx context.Context, cfg S3Config) (*S3Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               cfg.Endpoint,
				HostnameImmutable: true,
			}, nil
		},
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &S3Client{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
	}, nil
}

// ListChildren lists the direct children of a prefix, following
// continuation tokens until exhausted.
func (c *S3Client) ListChildren(ctx context.Context, folderID string) ([]File, error) {
	start := time.Now()
	prefix := folderID
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var files []File
	var continuation *string

	for {
		out, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.bucket),
			Prefix:            aws.String(prefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: continuation,
		})
		if err != nil {
			metrics.RecordRemoteOperation("list_children", time.Since(start), false)
			return nil, fmt.Errorf("list %q: %w", prefix, err)
		}

		for _, cp := range out.CommonPrefixes {
			key := aws.ToString(cp.Prefix)
			files = append(files, File{
				ID:       key,
				Name:     path.Base(strings.TrimSuffix(key, "/")),
				MimeType: S3FolderMimeType,
				IsFolder: true,
			})
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue // the folder placeholder object itself
			}
			f := File{
				ID:       key,
				Name:     path.Base(key),
				MimeType: mime.TypeByExtension(path.Ext(key)),
				Size:     aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				f.ModifiedTime = *obj.LastModified
			}
			files = append(files, f)
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		continuation = out.NextContinuationToken
	}

	metrics.RecordRemoteOperation("list_children", time.Since(start), true)
	return files, nil
}

// GetFile returns metadata for an object, or nil if it does not exist.
func (c *S3Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	start := time.Now()
	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			metrics.RecordRemoteOperation("get_file", time.Since(start), true)
			return nil, nil
		}
		metrics.RecordRemoteOperation("get_file", time.Since(start), false)
		return nil, fmt.Errorf("head object %s: %w", fileID, err)
	}

	f := &File{
		ID:       fileID,
		Name:     path.Base(fileID),
		MimeType: aws.ToString(out.ContentType),
		Size:     aws.ToInt64(out.ContentLength),
	}
	if f.MimeType == "" {
		f.MimeType = mime.TypeByExtension(path.Ext(fileID))
	}
	if out.LastModified != nil {
		f.ModifiedTime = *out.LastModified
	}

	metrics.RecordRemoteOperation("get_file", time.Since(start), true)
	return f, nil
}

// Download streams the raw content of an object.
func (c *S3Client) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	start := time.Now()
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		metrics.RecordRemoteOperation("download", time.Since(start), false)
		return nil, fmt.Errorf("get object %s: %w", fileID, err)
	}
	metrics.RecordRemoteOperation("download", time.Since(start), true)
	return out.Body, nil
}

// DownloadText returns the full textual content of an object.
func (c *S3Client) DownloadText(ctx context.Context, fileID string) (string, error) {
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

// Upload writes a derived asset to the bucket. The content pipeline never
// writes back to source objects; this exists for thumbnail precompute.
func (c *S3Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	start := time.Now()
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		metrics.RecordRemoteOperation("upload", time.Since(start), false)
		return fmt.Errorf("put object %s: %w", key, err)
	}
	metrics.RecordRemoteOperation("upload", time.Since(start), true)
	return nil
}

// PreviewURL returns a presigned GET URL for inline rendering.
func (c *S3Client) PreviewURL(ctx context.Context, fileID, mimeType string) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fileID),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", fileID, err)
	}
	return req.URL, nil
}

// ExportURL returns a presigned GET URL that forces a download.
func (c *S3Client) ExportURL(ctx context.Context, fileID, mimeType string) (string, error) {
	disposition := fmt.Sprintf("attachment; filename=%q", path.Base(fileID))
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(c.bucket),
		Key:                        aws.String(fileID),
		ResponseContentDisposition: aws.String(disposition),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign export %s: %w", fileID, err)
	}
	return req.URL, nil
}
