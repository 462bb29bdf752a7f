package quota

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/driveshelf/driveshelf/internal/metrics"
)

// ClientKeyFromContext derives a rate-limit key from the request context.
// This function type allows decoupling from the auth package.
type ClientKeyFromContext func(ctx context.Context) (key string, ok bool)

// RateLimitMiddleware returns middleware that enforces a fixed per-client
// request rate. Unauthenticated requests fall back to the remote address.
func RateLimitMiddleware(limiter *RateLimiter, rpm int, getClientKey ClientKeyFromContext) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := getClientKey(r.Context())
			if !ok {
				key, _, _ = net.SplitHostPort(r.RemoteAddr)
				if key == "" {
					key = r.RemoteAddr
				}
			}

			if !limiter.Allow(key, rpm) {
				metrics.RecordRateLimitHit()
				retryAfter := limiter.RetryAfter(key, rpm)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"error": "rate limit exceeded",
					"code":  http.StatusTooManyRequests,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
