// Package auth provides JWT-based authentication for the broker API.
// Tokens issued by the configured identity provider are validated against its
// JWKS endpoints; revoked tokens are tracked in the injected key-value store.
package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims represents the JWT claims the broker cares about. RegisteredClaims
// carries the standard fields (sub, iss, exp, jti).
type Claims struct {
	jwt.RegisteredClaims
	Role   string `json:"role,omitempty"` // Caller role, informational
	Active bool   `json:"act,omitempty"`  // Account active flag
}

// GetClaims retrieves JWT claims from the request context.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// GetUserID extracts the subject from claims in context. Returns empty string
// when the request is unauthenticated.
func GetUserID(ctx context.Context) string {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return ""
	}
	return claims.Subject
}
