package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnabled(t *testing.T) {
	assert.False(t, New("").Enabled())
	assert.True(t, New("secret").Enabled())

	open := New("")
	open.SetOIDCProvider(&OIDCProvider{})
	assert.True(t, open.Enabled())
}

func TestIssueAndValidateToken(t *testing.T) {
	a := New("test-secret")

	tokenStr, expires, err := a.IssueToken("reader-1", "reader@example.com", true)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenStr)
	assert.True(t, expires.After(time.Now().Add(29*24*time.Hour)))

	claims, err := a.validateToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "reader-1", claims.Subject)
	assert.Equal(t, "reader@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "driveshelf", claims.Issuer)
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	_, _, err := New("").IssueToken("s", "e", false)
	assert.Error(t, err)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	tokenStr, _, err := New("secret-a").IssueToken("reader-1", "", false)
	require.NoError(t, err)

	_, err = New("secret-b").validateToken(tokenStr)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	a := New("test-secret")
	tokenStr, _, err := a.IssueToken("reader-1", "reader@example.com", false)
	require.NoError(t, err)

	var seen *Claims
	handler := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetClaims(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "reader-1", seen.Subject)
	})

	t.Run("query parameter fallback", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events?token="+tokenStr, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
	})
}

func TestClaimsContextRoundTrip(t *testing.T) {
	ctx := WithClaims(t.Context(), &Claims{Email: "a@b.c"})
	claims := GetClaims(ctx)
	require.NotNil(t, claims)
	assert.Equal(t, "a@b.c", claims.Email)

	assert.Nil(t, GetClaims(t.Context()))
}
