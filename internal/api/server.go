// Package api provides the HTTP server and handlers.
package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/assemble"
	"github.com/driveshelf/driveshelf/internal/auth"
	"github.com/driveshelf/driveshelf/internal/catalog"
	"github.com/driveshelf/driveshelf/internal/config"
	"github.com/driveshelf/driveshelf/internal/events"
	"github.com/driveshelf/driveshelf/internal/logging"
	"github.com/driveshelf/driveshelf/internal/manifest"
	"github.com/driveshelf/driveshelf/internal/metrics"
	"github.com/driveshelf/driveshelf/internal/quota"
	"github.com/driveshelf/driveshelf/internal/remote"
)

// Pool gzip writers to reduce allocations on catalog responses.
var gzipPool = sync.Pool{
	New: func() any { return gzip.NewWriter(nil) },
}

// Server is the HTTP server.
type Server struct {
	assembler   *assemble.Assembler
	manifest    *manifest.Cache
	client      remote.Client
	auth        *auth.Auth
	config      *config.Config
	broadcaster *events.Broadcaster
	rateLimiter *quota.RateLimiter
}

// NewServer creates a new server. manifestCache and broadcaster may be
// nil when no manifest file is configured or SSE is unused.
func NewServer(
	assembler *assemble.Assembler,
	manifestCache *manifest.Cache,
	client remote.Client,
	authHandler *auth.Auth,
	broadcaster *events.Broadcaster,
	cfg *config.Config,
) *Server {
	return &Server{
		assembler:   assembler,
		manifest:    manifestCache,
		client:      client,
		auth:        authHandler,
		config:      cfg,
		broadcaster: broadcaster,
		rateLimiter: quota.NewRateLimiter(),
	}
}

// Handler returns the HTTP handler with auth and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	// Protected endpoints
	protected := http.NewServeMux()
	protected.HandleFunc("GET /api/v1/content/{slug...}", s.handleContent)
	protected.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	protected.HandleFunc("GET /api/v1/manifest", s.handleManifest)
	if s.broadcaster != nil {
		protected.HandleFunc("GET /api/v1/events", s.handleEvents)
	}

	var handler http.Handler = protected
	if s.auth != nil && s.auth.Enabled() {
		handler = s.auth.Middleware(handler)
	}
	if s.config.RateLimitRPM > 0 {
		getClientKey := func(ctx context.Context) (string, bool) {
			claims := auth.GetClaims(ctx)
			if claims == nil {
				return "", false
			}
			return claims.Subject, true
		}
		handler = quota.RateLimitMiddleware(s.rateLimiter, s.config.RateLimitRPM, getClientKey)(handler)
	}
	mux.Handle("/api/v1/", handler)

	return metrics.Middleware(logging.Middleware(mux))
}

// handleEvents streams content pipeline events over SSE.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": "1.0"})
}

// handleContent resolves a slug path to a render result. Every response
// carries the cache policy chosen by the adapter that produced it.
func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	slug := splitSlug(r.PathValue("slug"))
	if len(slug) == 0 {
		s.sendError(w, http.StatusBadRequest, "empty content path")
		return
	}

	result, err := s.assembler.Assemble(r.Context(), slug)
	if err != nil {
		if remote.IsUnauthorized(err) {
			logging.Error("upstream authorization failed", zap.Error(err))
			s.sendError(w, http.StatusBadGateway, "upstream authorization failed")
			return
		}
		logging.Error("content assembly failed",
			zap.Strings("slug", slug),
			zap.Error(err))
		s.sendError(w, http.StatusBadGateway, "content assembly failed")
		return
	}
	if result == nil {
		s.sendError(w, http.StatusNotFound, "content not found")
		return
	}

	revalidate := 0
	if result.CachePolicy != nil {
		revalidate = result.CachePolicy.Revalidate
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", cacheControl(revalidate))
	json.NewEncoder(w).Encode(result)
}

// handleCatalog lists all renderable content under the root folder.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	locators, err := catalog.Walk(r.Context(), s.client, s.config.RootFolderID, catalog.Options{})
	if err != nil {
		logging.Error("catalog walk failed", zap.Error(err))
		s.sendError(w, http.StatusBadGateway, "catalog listing failed")
		return
	}

	resp := struct {
		Items []catalog.Locator `json:"items"`
		Count int               `json:"count"`
	}{Items: locators, Count: len(locators)}

	if acceptsGzip(r) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Encoding", "gzip")
		gw := gzipPool.Get().(*gzip.Writer)
		gw.Reset(w)
		json.NewEncoder(gw).Encode(resp)
		gw.Close()
		gzipPool.Put(gw)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleManifest returns the current manifest snapshot.
func (s *Server) handleManifest(w http.ResponseWriter, r *http.Request) {
	if s.manifest == nil {
		s.sendError(w, http.StatusNotFound, "no manifest configured")
		return
	}

	m, err := s.manifest.Get(r.Context())
	if err != nil {
		logging.Error("manifest fetch failed", zap.Error(err))
		s.sendError(w, http.StatusBadGateway, "manifest fetch failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": message,
		"code":  code,
	})
}

func splitSlug(raw string) []string {
	var parts []string
	for _, p := range strings.Split(raw, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func cacheControl(revalidate int) string {
	if revalidate <= 0 {
		return "no-store"
	}
	return "public, s-maxage=" + strconv.Itoa(revalidate) + ", stale-while-revalidate"
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept-Encoding"), "gzip")
}
