package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/bible-atlas-api/internal/storage"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// PushResult counts what a push wrote.
type PushResult struct {
	Places    int
	Relations int
}

// Message is the summary returned to the admin client.
func (r PushResult) Message() string {
	return fmt.Sprintf("%d places and %d relations saved", r.Places, r.Relations)
}

// Importer loads curated scrape files into the place tables.
type Importer struct {
	blobs  storage.BlobStore
	repo   store.ReloadRepository
	prefix string
	logger *zap.Logger
}

// NewImporter builds an Importer reading *.json objects under prefix.
func NewImporter(blobs storage.BlobStore, repo store.ReloadRepository, prefix string, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{blobs: blobs, repo: repo, prefix: prefix, logger: logger.Named("importer")}
}

// Push reads every file under the import prefix, merges them and replaces
// the place graph in one transaction. Nothing is written when any file
// fails to load.
func (i *Importer) Push(ctx context.Context) (PushResult, error) {
	paths, err := i.blobs.ListObjects(ctx, i.prefix)
	if err != nil {
		return PushResult{}, fmt.Errorf("list import files: %w", err)
	}
	var jsonPaths []string
	for _, p := range paths {
		if strings.HasSuffix(p, ".json") {
			jsonPaths = append(jsonPaths, p)
		}
	}

	files := make([]File, len(jsonPaths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for idx, path := range jsonPaths {
		g.Go(func() error {
			body, err := i.blobs.GetObject(gctx, path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			if err := json.Unmarshal(body, &files[idx]); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PushResult{}, err
	}

	graph, err := Merge(files)
	if err != nil {
		return PushResult{}, err
	}
	if err := i.repo.ReplacePlaceGraph(ctx, graph); err != nil {
		return PushResult{}, fmt.Errorf("replace place graph: %w", err)
	}

	res := PushResult{Places: len(graph.Places), Relations: len(graph.Relations)}
	i.logger.Info("place graph replaced",
		zap.Int("files", len(files)),
		zap.Int("places", res.Places),
		zap.Int("relations", res.Relations))
	return res, nil
}
