// Package storage defines the blob store abstraction shared by the scraper
// (writing scrape output) and the importer (reading merged files back).
// Backends live in the gcs, local and memory subpackages.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned by GetObject when the path does not exist.
var ErrObjectNotFound = errors.New("object not found")

// BlobStore reads and writes opaque objects addressed by slash-separated
// paths.
type BlobStore interface {
	// PutObject writes the object and returns a URI describing where it
	// landed (gs://, file:// or memory://).
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
	GetObject(ctx context.Context, path string) ([]byte, error)
	// ListObjects returns the paths under prefix in lexical order.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}
