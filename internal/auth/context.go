// ABOUTME: Authentication context for tracking the calling channel through request handlers
// ABOUTME: Provides WithAuth/FromContext for propagating verified token claims via context

package auth

import (
	"context"
	"slices"
)

// AuthContext holds the verified claims of an inbound token.
type AuthContext struct {
	Subject    string
	Issuer     string
	Audience   []string
	AppID      string // "appid" or "azp" claim
	ServiceURL string // Bot Framework "serviceurl" claim; empty when absent
}

// HasAudience reports whether aud is one of the token's audiences.
func (a *AuthContext) HasAudience(aud string) bool {
	return slices.Contains(a.Audience, aud)
}

// authContextKey is the key type for storing AuthContext in context.Context.
type authContextKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *AuthContext {
	auth, _ := ctx.Value(authContextKey{}).(*AuthContext)
	return auth
}
