package auth

import (
	"context"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// Principal is the verified caller of a request.
type Principal struct {
	UserID int64
	Role   store.Role
}

// AtLeast reports whether the principal holds role or a more privileged
// one. Lower role values are more privileged.
func (p Principal) AtLeast(role store.Role) bool {
	return p.Role <= role
}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored on ctx.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// UserIDFrom returns a pointer to the caller's id, or nil for anonymous
// requests.
func UserIDFrom(ctx context.Context) *int64 {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return nil
	}
	id := p.UserID
	return &id
}
