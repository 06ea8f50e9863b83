package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
)

// Apple verifies Sign in with Apple identity tokens against Apple's JWKS.
type Apple struct {
	client   *httpx.Client
	baseURL  string
	bundleID string
	ttl      time.Duration
	now      func() time.Time
	logger   *zap.Logger

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	fetched time.Time
}

// AppleOptions configures an Apple verifier.
type AppleOptions struct {
	BaseURL  string
	BundleID string
	// KeysTTL bounds how long fetched keys are trusted.
	KeysTTL time.Duration
	Logger  *zap.Logger
}

// NewApple builds an Apple verifier.
func NewApple(client *httpx.Client, opts AppleOptions) *Apple {
	if opts.KeysTTL <= 0 {
		opts.KeysTTL = 15 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Apple{
		client:   client,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		bundleID: opts.BundleID,
		ttl:      opts.KeysTTL,
		now:      time.Now,
		logger:   logger.Named("apple"),
	}
}

// Verify checks the token's RS256 signature, issuer and audience and returns
// the identity it carries.
func (a *Apple) Verify(ctx context.Context, token string) (Identity, error) {
	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		jwt.RegisteredClaims
	}
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			kid, _ := t.Header["kid"].(string)
			return a.key(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(a.baseURL),
		jwt.WithAudience(a.bundleID),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || claims.Subject == "" {
		a.logger.Warn("apple token verification failed", zap.Error(err))
		return Identity{}, apperr.Unauthorized("Apple token authentication failed.")
	}
	return Identity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// key returns the public key for kid, refreshing the set when it is stale
// or does not know kid.
func (a *Apple) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	fresh := a.now().Sub(a.fetched) < a.ttl
	if k, ok := a.keys[kid]; ok && fresh {
		return k, nil
	}
	keys, err := a.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}
	a.keys = keys
	a.fetched = a.now()
	if k, ok := keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("apple signing key %q not found", kid)
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (a *Apple) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	var set struct {
		Keys []jwk `json:"keys"`
	}
	if err := a.client.GetJSON(ctx, a.baseURL+"/auth/keys", nil, &set); err != nil {
		return nil, fmt.Errorf("fetch apple keys: %w", err)
	}
	out := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		pub, err := k.publicKey()
		if err != nil {
			a.logger.Warn("skipping apple key", zap.String("kid", k.Kid), zap.Error(err))
			continue
		}
		out[k.Kid] = pub
	}
	if len(out) == 0 {
		return nil, errors.New("apple key set is empty")
	}
	return out, nil
}

func (k jwk) publicKey() (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}
