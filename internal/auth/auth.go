// Package auth authenticates HTTP requests against a tenant's API key and
// resolves the tenant's rule-override configuration for the scan that follows.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrMissingAPIKey   = errors.New("missing or invalid authorization header")
	ErrInvalidAPIKey   = errors.New("invalid API key format")
	ErrAuthUnavailable = errors.New("auth service unavailable")
)

// TenantContext holds the authenticated tenant's resolved configuration.
type TenantContext struct {
	TenantID        string
	Threshold       int
	DisabledRuleIDs map[string]bool
	CustomWeights   map[string]float64
}

// Authenticator validates an API key and returns the tenant it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, apiKey string) (*TenantContext, error)
}

// ExtractBearerToken extracts the token from "Authorization: Bearer <token>"
// and validates the fcs_ prefix required of every tenant API key.
func ExtractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingAPIKey
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", ErrMissingAPIKey
	}
	token := strings.TrimSpace(auth[len(prefix):])
	if len(token) < 8 || !strings.HasPrefix(token, "fcs_") {
		return "", ErrInvalidAPIKey
	}
	return token, nil
}
