// DriveShelf Server
//
// Features:
// - Prometheus metrics & structured logging (zap)
// - Content resolution API over a remote file store (Drive-style or S3)
// - Adapter pipeline for docs, PDFs, images, media, JSON, smart bundles
// - Manifest snapshot cache with identity-preserving revalidation
// - Optional JWT/OIDC bearer auth
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/api"
	"github.com/driveshelf/driveshelf/internal/assemble"
	"github.com/driveshelf/driveshelf/internal/auth"
	"github.com/driveshelf/driveshelf/internal/config"
	"github.com/driveshelf/driveshelf/internal/events"
	"github.com/driveshelf/driveshelf/internal/logging"
	"github.com/driveshelf/driveshelf/internal/manifest"
	"github.com/driveshelf/driveshelf/internal/metrics"
	"github.com/driveshelf/driveshelf/internal/remote"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("DriveShelf Server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("provider", cfg.Provider))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize remote store client
	client, err := remote.NewClient(ctx, remote.Config{
		Provider: cfg.Provider,
		Drive: remote.DriveConfig{
			BaseURL:     cfg.DriveBaseURL,
			AccessToken: cfg.DriveAccessToken,
		},
		S3: remote.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		},
	})
	if err != nil {
		logging.Fatal("remote client init failed", zap.Error(err))
	}

	// Initialize auth
	authHandler := auth.New(cfg.JWTSecret)
	if cfg.OIDCIssuerURL != "" {
		oidcProvider, err := auth.NewOIDCProvider(ctx, auth.OIDCConfig{
			IssuerURL: cfg.OIDCIssuerURL,
			ClientID:  cfg.OIDCClientID,
		})
		if err != nil {
			logging.Fatal("OIDC provider init failed", zap.Error(err))
		}
		if oidcProvider != nil {
			authHandler.SetOIDCProvider(oidcProvider)
		}
	}
	if !authHandler.Enabled() {
		logging.Warn("no JWT secret or OIDC issuer configured, API is open")
	}

	// Initialize SSE broadcaster
	broadcaster := events.NewBroadcaster()

	// Initialize manifest cache (optional)
	var manifestCache *manifest.Cache
	if cfg.ManifestFileID != "" {
		manifestCache = manifest.NewCache(client, cfg.ManifestFileID)
		manifestCache.SetBroadcaster(broadcaster)
		logging.Info("manifest cache initialized", zap.String("file_id", cfg.ManifestFileID))
	}

	// Initialize content assembler
	assembler := assemble.New(assemble.Options{
		Client:             client,
		RootID:             cfg.RootFolderID,
		EnableSmartBundles: cfg.EnableSmartBundles,
		DefaultCacheTTL:    cfg.ContentCacheTTL,
		Events:             broadcaster,
	})

	srv := api.NewServer(assembler, manifestCache, client, authHandler, broadcaster, cfg)

	// Start metrics server on a separate port
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
		httpServer.Close()
		metricsServer.Close()
	}()

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}
}
