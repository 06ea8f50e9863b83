package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/auth"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const avatarURL = "https://api.dicebear.com/9.x/dylan/svg?seed="

// IdentityVerifier checks a provider token and returns the identity it
// belongs to.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// LoginResult is returned by every sign-in flow.
type LoginResult struct {
	User      store.User `json:"user"`
	AuthData  auth.Pair  `json:"authData"`
	Recovered bool       `json:"recovered"`
}

// AccessToken is returned by the refresh flow.
type AccessToken struct {
	AccessToken string `json:"accessToken"`
}

// AuthService registers, signs in and withdraws users.
type AuthService struct {
	users  store.UserRepository
	tokens *auth.Tokens
	hasher auth.Hasher
	kakao  IdentityVerifier
	google IdentityVerifier
	apple  IdentityVerifier
	logger *zap.Logger
}

// AuthDeps are the collaborators of an AuthService.
type AuthDeps struct {
	Users  store.UserRepository
	Tokens *auth.Tokens
	Hasher auth.Hasher
	Kakao  IdentityVerifier
	Google IdentityVerifier
	Apple  IdentityVerifier
	Logger *zap.Logger
}

// NewAuthService builds an AuthService.
func NewAuthService(d AuthDeps) *AuthService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:  d.Users,
		tokens: d.Tokens,
		hasher: d.Hasher,
		kakao:  d.Kakao,
		google: d.Google,
		apple:  d.Apple,
		logger: logger.Named("auth"),
	}
}

// Register creates a local account from a Basic authorization header.
func (s *AuthService) Register(ctx context.Context, basicHeader string) (store.User, error) {
	creds, err := auth.ParseBasicToken(basicHeader)
	if err != nil {
		return store.User{}, err
	}
	_, err = s.users.FindUserByEmail(ctx, creds.Email, true)
	switch {
	case err == nil:
		return store.User{}, apperr.BadRequest("This email is already in use.")
	case !errors.Is(err, store.ErrNotFound):
		return store.User{}, err
	}

	hash, err := s.hasher.Hash(creds.Password)
	if err != nil {
		return store.User{}, err
	}
	u, err := s.users.CreateUser(ctx, store.User{Email: creds.Email, Password: hash, Role: store.RoleUser})
	if errors.Is(err, store.ErrConflict) {
		return store.User{}, apperr.BadRequest("This email is already in use.")
	}
	if err != nil {
		return store.User{}, err
	}
	return u, nil
}

// Login signs a local account in, restoring it if it was withdrawn.
func (s *AuthService) Login(ctx context.Context, basicHeader string) (LoginResult, error) {
	creds, err := auth.ParseBasicToken(basicHeader)
	if err != nil {
		return LoginResult{}, err
	}
	u, err := s.users.FindUserByEmail(ctx, creds.Email, true)
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, apperr.BadRequest("Invalid login credentials.")
	}
	if err != nil {
		return LoginResult{}, err
	}
	if u.Password == "" || !s.hasher.Compare(u.Password, creds.Password) {
		return LoginResult{}, apperr.BadRequest("Invalid login credentials.")
	}
	return s.signIn(ctx, u)
}

// Refresh issues a new access token for a Bearer refresh token.
func (s *AuthService) Refresh(bearerHeader string) (AccessToken, error) {
	token, err := auth.ParseBearerToken(bearerHeader)
	if err != nil {
		return AccessToken{}, err
	}
	claims, err := s.tokens.VerifyRefresh(token)
	if err != nil {
		return AccessToken{}, err
	}
	access, err := s.tokens.Issue(claims.UserID, claims.Role, false)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{AccessToken: access}, nil
}

// KakaoLogin signs in with a Kakao access token. Kakao accounts are matched
// by email.
func (s *AuthService) KakaoLogin(ctx context.Context, token string) (LoginResult, error) {
	id, err := s.kakao.Verify(ctx, token)
	if err != nil {
		return LoginResult{}, err
	}
	u, err := s.users.FindUserByEmail(ctx, id.Email, true)
	if errors.Is(err, store.ErrNotFound) {
		u, err = s.users.CreateUser(ctx, store.User{
			Provider: store.ProviderKakao,
			Email:    id.Email,
			Role:     store.RoleUser,
			Avatar:   randomAvatar(),
		})
	}
	if err != nil {
		return LoginResult{}, err
	}
	return s.signIn(ctx, u)
}

// GoogleLogin signs in with a Google id token.
func (s *AuthService) GoogleLogin(ctx context.Context, token string) (LoginResult, error) {
	return s.providerLogin(ctx, s.google, store.ProviderGoogle, token)
}

// AppleLogin signs in with an Apple identity token.
func (s *AuthService) AppleLogin(ctx context.Context, token string) (LoginResult, error) {
	return s.providerLogin(ctx, s.apple, store.ProviderApple, token)
}

func (s *AuthService) providerLogin(
	ctx context.Context,
	verifier IdentityVerifier,
	provider store.Provider,
	token string,
) (LoginResult, error) {
	id, err := verifier.Verify(ctx, token)
	if err != nil {
		return LoginResult{}, err
	}
	u, err := s.users.FindUserByProvider(ctx, provider, id.Subject, true)
	if errors.Is(err, store.ErrNotFound) {
		avatar := id.Picture
		if avatar == "" {
			avatar = randomAvatar()
		}
		u, err = s.users.CreateUser(ctx, store.User{
			Provider:   provider,
			ProviderID: id.Subject,
			Email:      id.Email,
			Name:       id.Name,
			Role:       store.RoleUser,
			Avatar:     avatar,
		})
	}
	if err != nil {
		return LoginResult{}, err
	}
	return s.signIn(ctx, u)
}

// signIn restores a withdrawn account and issues a token pair.
func (s *AuthService) signIn(ctx context.Context, u store.User) (LoginResult, error) {
	recovered := false
	if u.Deleted() {
		if err := s.users.RestoreUser(ctx, u.ID); err != nil {
			return LoginResult{}, fmt.Errorf("restore user %d: %w", u.ID, err)
		}
		u.DeletedAt = nil
		recovered = true
		s.logger.Info("withdrawn user recovered", zap.Int64("user_id", u.ID))
	}
	pair, err := s.tokens.IssuePair(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, AuthData: pair, Recovered: recovered}, nil
}

// Withdraw soft deletes the user and clears their collections.
func (s *AuthService) Withdraw(ctx context.Context, userID int64) (Deleted[int64], error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return Deleted[int64]{}, translate(err, "User not found!")
	}
	if err := s.users.WithdrawUser(ctx, userID); err != nil {
		return Deleted[int64]{}, translate(err, "User not found!")
	}
	return Deleted[int64]{ID: userID}, nil
}

func randomAvatar() string {
	return avatarURL + uuid.NewString()
}
