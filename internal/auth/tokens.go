package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// Token types carried in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the payload of access and refresh tokens.
type Claims struct {
	UserID int64      `json:"sub"`
	Role   store.Role `json:"role"`
	Type   string     `json:"type"`
	jwt.RegisteredClaims
}

// TokenConfig configures a Tokens issuer.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Tokens issues and verifies HS256 access and refresh tokens.
type Tokens struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokens builds a Tokens issuer. Zero TTLs default to 10 minutes for
// access and one hour for refresh tokens.
func NewTokens(cfg TokenConfig) *Tokens {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 10 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = time.Hour
	}
	return &Tokens{cfg: cfg, now: time.Now}
}

func (t *Tokens) secret(refresh bool) []byte {
	if refresh {
		return []byte(t.cfg.RefreshSecret)
	}
	return []byte(t.cfg.AccessSecret)
}

// Issue signs a token for the user.
func (t *Tokens) Issue(userID int64, role store.Role, refresh bool) (string, error) {
	typ, ttl := TypeAccess, t.cfg.AccessTTL
	if refresh {
		typ, ttl = TypeRefresh, t.cfg.RefreshTTL
	}
	now := t.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret(refresh))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Pair is an access and refresh token issued together.
type Pair struct {
	RefreshToken string `json:"refreshToken"`
	AccessToken  string `json:"accessToken"`
}

// IssuePair signs both tokens for the user.
func (t *Tokens) IssuePair(userID int64, role store.Role) (Pair, error) {
	refresh, err := t.Issue(userID, role, true)
	if err != nil {
		return Pair{}, err
	}
	access, err := t.Issue(userID, role, false)
	if err != nil {
		return Pair{}, err
	}
	return Pair{RefreshToken: refresh, AccessToken: access}, nil
}

// Verify checks the signature and time claims with the matching secret.
// Errors wrap the jwt sentinels (jwt.ErrTokenExpired and friends).
func (t *Tokens) Verify(token string, refresh bool) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return t.secret(refresh), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// VerifyRefresh verifies a refresh token and converts failures into client
// errors.
func (t *Tokens) VerifyRefresh(token string) (Claims, error) {
	claims, err := t.Verify(token, true)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, apperr.Unauthorized("Refresh token has expired.")
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return Claims{}, apperr.Unauthorized("Token is not yet active.")
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return Claims{}, apperr.Unauthorized("Invalid token format.")
	default:
		return Claims{}, apperr.Unauthorized("Unable to verify token.")
	}
}

// peekType reads the "type" claim without verifying the token.
func peekType(token string) (string, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return "", err
	}
	return claims.Type, nil
}
