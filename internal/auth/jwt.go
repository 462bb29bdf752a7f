// Package auth provides bearer-token authentication middleware with metrics.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/driveshelf/driveshelf/internal/metrics"
)

type contextKey string

const userContextKey contextKey = "user"

const tokenLifetime = 30 * 24 * time.Hour

// Claims holds token claims for an authenticated reader.
type Claims struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Auth validates bearer tokens on incoming requests. Tokens are either
// locally-signed HS256 JWTs or, when an OIDC provider is configured,
// ID tokens issued by that provider.
type Auth struct {
	secret []byte
	oidc   *OIDCProvider
}

// New creates an Auth handler. An empty secret disables local tokens;
// requests then authenticate via OIDC only.
func New(jwtSecret string) *Auth {
	return &Auth{secret: []byte(jwtSecret)}
}

// Enabled reports whether any token validation path is configured.
func (a *Auth) Enabled() bool {
	return len(a.secret) > 0 || a.oidc != nil
}

// Middleware returns HTTP middleware that validates bearer tokens,
// trying local JWT first and falling back to OIDC when configured.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := extractToken(r)
		if tokenStr == "" {
			metrics.RecordAuthAttempt(false)
			sendAuthError(w, http.StatusUnauthorized, "missing authentication token")
			return
		}

		if len(a.secret) > 0 {
			claims, err := a.validateToken(tokenStr)
			if err == nil {
				metrics.RecordAuthAttempt(true)
				ctx := context.WithValue(r.Context(), userContextKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		if a.oidc != nil {
			claims, err := a.oidc.ValidateToken(r.Context(), tokenStr)
			if err == nil {
				metrics.RecordAuthAttempt(true)
				ctx := context.WithValue(r.Context(), userContextKey, claims)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}

		metrics.RecordAuthAttempt(false)
		sendAuthError(w, http.StatusUnauthorized, "invalid token")
	})
}

// GetClaims extracts claims from the request context.
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(userContextKey).(*Claims)
	return claims
}

// WithClaims injects claims into a context.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// IssueToken signs a local token for the given subject. Used by the
// command-line tooling to mint service tokens.
func (a *Auth) IssueToken(subject, email string, isAdmin bool) (string, time.Time, error) {
	if len(a.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("no signing secret configured")
	}

	now := time.Now()
	claims := &Claims{
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "driveshelf",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenStr, claims.ExpiresAt.Time, nil
}

func (a *Auth) validateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func extractToken(r *http.Request) string {
	// Bearer token from Authorization header
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// Query parameter fallback
	return r.URL.Query().Get("token")
}

func sendAuthError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": message,
		"code":  code,
	})
}
