// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all driveshelf server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Remote store provider ("drive" or "s3")
	Provider string

	// Drive-style REST provider
	DriveBaseURL     string
	DriveAccessToken string

	// S3 provider
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	// Content pipeline
	RootFolderID       string
	ManifestFileID     string
	EnableSmartBundles bool
	ContentCacheTTL    int // default revalidate window in seconds

	// Rate limiting (requests per minute per client, 0 disables)
	RateLimitRPM int

	// Auth (optional; if neither is set, the API is open)
	JWTSecret     string
	OIDCIssuerURL string
	OIDCClientID  string

	// Ingest (ragprep only)
	DatabaseURL string
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr: envOr("METRICS_ADDR", ":9090"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogFormat:   envOr("LOG_FORMAT", "json"),

		Provider:         envOr("REMOTE_PROVIDER", "drive"),
		DriveBaseURL:     envOr("DRIVE_BASE_URL", "https://www.googleapis.com/drive/v3"),
		DriveAccessToken: envOr("DRIVE_ACCESS_TOKEN", ""),

		S3Endpoint:  envOr("S3_ENDPOINT", "http://localhost:9000"),
		S3Bucket:    envOr("S3_BUCKET", "driveshelf"),
		S3AccessKey: envOr("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey: envOr("S3_SECRET_KEY", "minioadmin"),
		S3Region:    envOr("S3_REGION", "us-east-1"),
		S3UseSSL:    envBool("S3_USE_SSL", false),

		RootFolderID:       envOr("ROOT_FOLDER_ID", ""),
		ManifestFileID:     envOr("MANIFEST_FILE_ID", ""),
		EnableSmartBundles: envBool("ENABLE_SMART_BUNDLES", true),
		ContentCacheTTL:    envInt("CONTENT_CACHE_TTL", 30),

		RateLimitRPM: envInt("RATE_LIMIT_RPM", 0),

		JWTSecret:     envOr("JWT_SECRET", ""),
		OIDCIssuerURL: envOr("OIDC_ISSUER_URL", ""),
		OIDCClientID:  envOr("OIDC_CLIENT_ID", ""),

		DatabaseURL: envOr("DATABASE_URL", ""),
	}

	if cfg.RootFolderID == "" {
		return nil, fmt.Errorf("ROOT_FOLDER_ID is required")
	}
	if cfg.Provider != "drive" && cfg.Provider != "s3" {
		return nil, fmt.Errorf("unknown REMOTE_PROVIDER: %s", cfg.Provider)
	}
	if cfg.Provider == "drive" && cfg.DriveAccessToken == "" {
		return nil, fmt.Errorf("DRIVE_ACCESS_TOKEN is required for the drive provider")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
