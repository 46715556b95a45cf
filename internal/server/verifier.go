// ABOUTME: Selects the inbound token verifier from the m365 config
// ABOUTME: Anonymous disables checks, a shared secret means HS256, otherwise Bot Framework JWKS

package server

import (
	"errors"
	"log/slog"

	"github.com/2389/foundry-agent/internal/auth"
	"github.com/2389/foundry-agent/internal/config"
)

// NewVerifier returns the verifier for cfg, or nil when inbound auth is off.
func NewVerifier(cfg config.M365Config, logger *slog.Logger) (auth.TokenVerifier, error) {
	switch {
	case cfg.Anonymous:
		return nil, nil
	case cfg.AppID == "":
		return nil, errors.New("m365.app_id is required unless m365.anonymous is set")
	case cfg.JWTSecret != "":
		v, err := auth.NewJWTVerifier([]byte(cfg.JWTSecret), cfg.Issuer, cfg.AppID)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		v, err := auth.NewJWKSVerifier(auth.JWKSVerifierConfig{
			MetadataURL: cfg.OpenIDMetadataURL,
			Issuer:      cfg.Issuer,
			Audience:    cfg.AppID,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}
