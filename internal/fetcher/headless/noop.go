package headless

import (
	"context"
	"errors"

	"github.com/JakeFAU/bible-atlas-api/internal/fetcher"
)

// ErrUnavailable is returned by Noop.
var ErrUnavailable = errors.New("headless fetcher not configured")

// Noop stands in for the browser fetcher when Chrome is not installed.
type Noop struct{}

// NewNoop creates a Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch always fails with ErrUnavailable.
func (Noop) Fetch(context.Context, fetcher.Request) (fetcher.Response, error) {
	return fetcher.Response{}, ErrUnavailable
}
