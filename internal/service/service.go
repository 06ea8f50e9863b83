// Package service holds the application logic behind each API resource.
// Methods return *apperr.Error for failures the client caused; anything
// else is an internal error.
package service

import (
	"errors"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// translate maps store sentinels onto client errors. Other errors pass
// through untouched.
func translate(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound(notFound)
	default:
		return err
	}
}

// Deleted is the response of delete endpoints that echo the removed id.
type Deleted[T any] struct {
	ID T `json:"id"`
}
