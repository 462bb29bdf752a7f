package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/logging"
)

// OIDCConfig holds OIDC provider configuration.
type OIDCConfig struct {
	IssuerURL  string // e.g. https://keycloak.example.com/realms/driveshelf
	ClientID   string
	AdminClaim string // claim key for admin status (default: "is_admin")
	AdminValue string // claim value that indicates admin (default: "true")
}

// OIDCProvider validates ID tokens issued by an external identity provider.
type OIDCProvider struct {
	verifier *oidc.IDTokenVerifier
	config   OIDCConfig
}

// NewOIDCProvider creates an OIDC provider from config.
// Returns nil if IssuerURL is empty (OIDC disabled).
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig) (*OIDCProvider, error) {
	if cfg.IssuerURL == "" {
		return nil, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc provider init: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})

	if cfg.AdminClaim == "" {
		cfg.AdminClaim = "is_admin"
	}
	if cfg.AdminValue == "" {
		cfg.AdminValue = "true"
	}

	logging.Info("OIDC provider initialized",
		zap.String("issuer", cfg.IssuerURL),
		zap.String("client_id", cfg.ClientID))

	return &OIDCProvider{
		verifier: verifier,
		config:   cfg,
	}, nil
}

// ValidateToken verifies a token as an OIDC ID token and maps its
// claims onto local Claims.
func (o *OIDCProvider) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	idToken, err := o.verifier.Verify(ctx, tokenStr)
	if err != nil {
		return nil, err
	}

	var oidcClaims struct {
		Sub               string `json:"sub"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
	}
	if err := idToken.Claims(&oidcClaims); err != nil {
		return nil, fmt.Errorf("parse oidc claims: %w", err)
	}

	subject := oidcClaims.PreferredUsername
	if subject == "" {
		subject = oidcClaims.Email
	}
	if subject == "" {
		subject = oidcClaims.Sub
	}

	var rawClaims map[string]interface{}
	idToken.Claims(&rawClaims)
	isAdmin := false
	if val, ok := rawClaims[o.config.AdminClaim]; ok {
		isAdmin = fmt.Sprintf("%v", val) == o.config.AdminValue
	}

	return &Claims{
		Email:   oidcClaims.Email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
			Issuer:  idToken.Issuer,
		},
	}, nil
}

// SetOIDCProvider sets the OIDC provider on the Auth handler.
func (a *Auth) SetOIDCProvider(p *OIDCProvider) {
	a.oidc = p
}
