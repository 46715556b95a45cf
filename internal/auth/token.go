// ABOUTME: JWT verification for inbound channel requests
// ABOUTME: HS256 shared-secret verifier for local testing, plus the common claim extraction

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrMissingClaim = errors.New("missing required claim")
	ErrUnknownKey   = errors.New("unknown signing key")
)

// Bot Framework specific claim names.
const (
	claimServiceURL = "serviceurl"
	claimAppID      = "appid"
	claimAzp        = "azp"
)

// clockSkew tolerated on exp/nbf/iat.
const clockSkew = 5 * time.Minute

// TokenVerifier validates a bearer token and returns the caller's identity.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*AuthContext, error)
}

// JWTVerifier implements TokenVerifier using HS256 signed JWTs
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTVerifier creates a verifier for tokens signed with secret. Empty issuer
// or audience skips that check.
func NewJWTVerifier(secret []byte, issuer, audience string) (*JWTVerifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes, got %d", len(secret))
	}
	return &JWTVerifier{secret: secret, issuer: issuer, audience: audience}, nil
}

// Verify validates the token signature and standard claims.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*AuthContext, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	return authContextFromToken(token, err)
}

// Generate creates a signed token carrying the Bot Framework claims. Used by
// local tooling and tests to call the webhook.
func (v *JWTVerifier) Generate(appID, serviceURL string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":           appID,
		claimAppID:      appID,
		claimServiceURL: serviceURL,
		"iat":           now.Unix(),
		"nbf":           now.Unix(),
		"exp":           now.Add(expiresIn).Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}
	if v.audience != "" {
		claims["aud"] = v.audience
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// authContextFromToken maps parse results to the package errors and builds
// the AuthContext.
func authContextFromToken(token *jwt.Token, err error) (*AuthContext, error) {
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	issuer, _ := claims.GetIssuer()
	audience, _ := claims.GetAudience()
	subject, _ := claims.GetSubject()
	serviceURL, _ := claims[claimServiceURL].(string)

	appID, _ := claims[claimAppID].(string)
	if appID == "" {
		appID, _ = claims[claimAzp].(string)
	}
	if appID == "" && subject == "" && len(audience) == 0 {
		return nil, fmt.Errorf("%w: aud", ErrMissingClaim)
	}

	return &AuthContext{
		Subject:    subject,
		Issuer:     issuer,
		Audience:   audience,
		AppID:      appID,
		ServiceURL: serviceURL,
	}, nil
}
