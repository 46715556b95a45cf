// ABOUTME: RS256 verifier for Bot Framework channel tokens
// ABOUTME: Signing keys come from the OpenID metadata document and are cached with a TTL

package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Key cache tuning.
const (
	DefaultKeyTTL      = 24 * time.Hour
	minRefreshInterval = 5 * time.Minute
)

// JWKSVerifierConfig configures a JWKSVerifier.
type JWKSVerifierConfig struct {
	MetadataURL string
	Issuer      string
	Audience    string
	KeyTTL      time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// JWKSVerifier validates RS256 tokens against keys published by an OpenID
// provider.
type JWKSVerifier struct {
	cfg    JWKSVerifierConfig
	client *http.Client
	logger *slog.Logger

	mu             sync.Mutex
	keys           map[string]*rsa.PublicKey
	fetchedAt      time.Time
	lastKidRefresh time.Time
}

// NewJWKSVerifier creates a verifier. Keys are fetched lazily on first use.
func NewJWKSVerifier(cfg JWKSVerifierConfig) (*JWKSVerifier, error) {
	if cfg.MetadataURL == "" {
		return nil, fmt.Errorf("openid metadata url is required")
	}
	if cfg.Audience == "" {
		return nil, fmt.Errorf("audience is required")
	}
	if cfg.KeyTTL <= 0 {
		cfg.KeyTTL = DefaultKeyTTL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &JWKSVerifier{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "auth.jwks"),
	}, nil
}

// Verify checks signature, issuer, audience and lifetime.
func (v *JWKSVerifier) Verify(ctx context.Context, tokenString string) (*AuthContext, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("%w: token has no kid", ErrUnknownKey)
		}
		return v.key(ctx, kid)
	}, opts...)
	return authContextFromToken(token, err)
}

// key returns the public key for kid, refreshing the set when it is stale or
// the kid is new. Refreshes for unknown kids are rate limited.
func (v *JWKSVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := time.Now()
	stale := v.keys == nil || now.Sub(v.fetchedAt) > v.cfg.KeyTTL
	if key, ok := v.keys[kid]; ok && !stale {
		return key, nil
	}

	if stale || now.Sub(v.lastKidRefresh) > minRefreshInterval {
		if !stale {
			v.lastKidRefresh = now
		}
		keys, err := v.fetchKeys(ctx)
		if err != nil {
			if v.keys == nil {
				return nil, err
			}
			v.logger.Warn("refreshing signing keys failed, using cached set", "error", err)
		} else {
			v.keys = keys
			v.fetchedAt = now
			v.logger.Debug("signing keys refreshed", "count", len(keys))
		}
	}

	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, kid)
}

type openIDMetadata struct {
	JWKSURI string `json:"jwks_uri"`
}

type jsonWebKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jsonWebKeySet struct {
	Keys []jsonWebKey `json:"keys"`
}

func (v *JWKSVerifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	var meta openIDMetadata
	if err := v.getJSON(ctx, v.cfg.MetadataURL, &meta); err != nil {
		return nil, fmt.Errorf("fetching openid metadata: %w", err)
	}
	if meta.JWKSURI == "" {
		return nil, fmt.Errorf("openid metadata has no jwks_uri")
	}

	var set jsonWebKeySet
	if err := v.getJSON(ctx, meta.JWKSURI, &set); err != nil {
		return nil, fmt.Errorf("fetching jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaPublicKey(k.N, k.E)
		if err != nil {
			v.logger.Warn("skipping malformed key", "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks contains no usable RSA keys")
	}
	return keys, nil
}

func (v *JWKSVerifier) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func rsaPublicKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	exp := new(big.Int).SetBytes(eb)
	if !exp.IsInt64() || exp.Int64() < 3 || exp.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("unsupported exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: int(exp.Int64())}, nil
}
