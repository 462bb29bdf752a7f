package remote

import (
	"context"
	"fmt"
)

// Config selects and configures a client implementation.
type Config struct {
	Provider string // "drive" or "s3"
	Drive    DriveConfig
	S3       S3Config
}

// NewClient creates a Client for the configured provider.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Provider {
	case "drive":
		return NewDriveClient(cfg.Drive)
	case "s3":
		return NewS3Client(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown remote provider: %s", cfg.Provider)
	}
}
