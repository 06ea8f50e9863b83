package auth

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware attaches principals to requests and gates routes by role.
type Middleware struct {
	tokens   *Tokens
	writeErr ErrorWriter
	logger   *zap.Logger
}

// NewMiddleware builds a Middleware. A nil writeErr falls back to
// http.Error with the error's status.
func NewMiddleware(tokens *Tokens, writeErr ErrorWriter, logger *zap.Logger) *Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writeErr == nil {
		writeErr = func(w http.ResponseWriter, _ *http.Request, err error) {
			status := http.StatusInternalServerError
			if ae, ok := apperr.As(err); ok {
				status = ae.Status()
			}
			http.Error(w, err.Error(), status)
		}
	}
	return &Middleware{tokens: tokens, writeErr: writeErr, logger: logger.Named("auth")}
}

// AttachUser verifies an optional bearer access token. Requests without a
// header, with a non-access token or with an unverifiable token continue
// anonymously; a malformed header is rejected with 400 and an expired
// access token with 401.
func (m *Middleware) AttachUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, err := ParseBearerToken(header)
		if err != nil {
			m.writeErr(w, r, err)
			return
		}

		typ, err := peekType(token)
		if err != nil || typ != TypeAccess {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.tokens.Verify(token, false)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				m.writeErr(w, r, apperr.Unauthorized("Token has expired."))
				return
			}
			m.logger.Debug("ignoring unverifiable token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithPrincipal(r.Context(), Principal{UserID: claims.UserID, Role: claims.Role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous requests with 401.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			m.writeErr(w, r, apperr.Unauthorized("Unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MinimumRole rejects requests whose principal is missing or less
// privileged than role with 403.
func (m *Middleware) MinimumRole(role store.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok || !p.AtLeast(role) {
				m.writeErr(w, r, apperr.Forbidden("Forbidden resource"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
