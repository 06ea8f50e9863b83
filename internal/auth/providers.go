package auth

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
)

// Identity is what a provider tells us about a user.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Kakao looks up users with a Kakao access token.
type Kakao struct {
	client  *httpx.Client
	baseURL string
	logger  *zap.Logger
}

// NewKakao builds a Kakao client against the user-info endpoint.
func NewKakao(client *httpx.Client, baseURL string, logger *zap.Logger) *Kakao {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kakao{client: client, baseURL: baseURL, logger: logger.Named("kakao")}
}

// Verify returns the account email for the access token.
func (k *Kakao) Verify(ctx context.Context, accessToken string) (Identity, error) {
	var body struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email string `json:"email"`
		} `json:"kakao_account"`
	}
	header := http.Header{"Authorization": {"Bearer " + accessToken}}
	if err := k.client.GetJSON(ctx, k.baseURL, header, &body); err != nil {
		k.logger.Warn("kakao user lookup failed", zap.Error(err))
		return Identity{}, apperr.Unauthorized("Kakao token authentication failed.")
	}
	if body.KakaoAccount.Email == "" {
		return Identity{}, apperr.BadRequest("Kakao user email information is missing.")
	}
	return Identity{Email: body.KakaoAccount.Email}, nil
}

// Google validates Google id tokens through the tokeninfo endpoint.
type Google struct {
	client  *httpx.Client
	baseURL string
	logger  *zap.Logger
}

// NewGoogle builds a Google client.
func NewGoogle(client *httpx.Client, baseURL string, logger *zap.Logger) *Google {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Google{client: client, baseURL: baseURL, logger: logger.Named("google")}
}

// Verify returns the identity behind idToken.
func (g *Google) Verify(ctx context.Context, idToken string) (Identity, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return Identity{}, apperr.Unauthorized("Google token authentication failed.")
	}
	q := u.Query()
	q.Set("id_token", idToken)
	u.RawQuery = q.Encode()

	var body struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := g.client.GetJSON(ctx, u.String(), nil, &body); err != nil || body.Sub == "" {
		g.logger.Warn("google token lookup failed", zap.Error(err))
		return Identity{}, apperr.Unauthorized("Google token authentication failed.")
	}
	return Identity{Subject: body.Sub, Email: body.Email, Name: body.Name, Picture: body.Picture}, nil
}
