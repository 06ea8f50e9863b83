package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	"github.com/JakeFAU/bible-atlas-api/internal/fetcher"
	"github.com/JakeFAU/bible-atlas-api/internal/hash/sha256"
	"github.com/JakeFAU/bible-atlas-api/internal/httpx"
	"github.com/JakeFAU/bible-atlas-api/internal/progress"
	"github.com/JakeFAU/bible-atlas-api/internal/storage"
)

// Config tunes a Scraper.
type Config struct {
	AtlasBaseURL string
	GeoBaseURL   string
	BatchSize    int
	PageSize     int
	BatchDelay   time.Duration
	OutputPrefix string
	ContentType  string
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.PageSize <= 0 {
		c.PageSize = 20
	}
	if c.OutputPrefix == "" {
		c.OutputPrefix = "places-data"
	}
	if c.ContentType == "" {
		c.ContentType = "application/json"
	}
	return c
}

// Job identifies one scrape of a listing page.
type Job struct {
	ID     string
	UserID int64
	Page   int
}

// Result describes a finished scrape.
type Result struct {
	File        File
	Path        string
	BlobURI     string
	ContentHash string
}

// Scraper fetches atlas pages and stores the extracted records.
type Scraper struct {
	cfg    Config
	pages  fetcher.Fetcher
	geo    *httpx.Client
	blobs  storage.BlobStore
	hasher sha256.Hasher
	clock  clock.Clock
	logger *zap.Logger
}

// New builds a Scraper. HTML pages go through pages; GeoJSON documents are
// fetched with geo.
func New(
	cfg Config,
	pages fetcher.Fetcher,
	geo *httpx.Client,
	blobs storage.BlobStore,
	clk clock.Clock,
	logger *zap.Logger,
) *Scraper {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		cfg:    cfg.withDefaults(),
		pages:  pages,
		geo:    geo,
		blobs:  blobs,
		hasher: sha256.New(),
		clock:  clk,
		logger: logger.Named("scraper"),
	}
}

// Run scrapes one listing page and writes the result to blob storage.
// Progress for both passes is sent to emit; terminal events are left to the
// caller.
func (s *Scraper) Run(ctx context.Context, job Job, emit progress.Emitter) (Result, error) {
	logger := s.logger.With(zap.String("job_id", job.ID), zap.Int("page", job.Page))

	listing, err := fetcher.Document(ctx, s.pages, s.cfg.AtlasBaseURL+"/geo/atlas/all")
	if err != nil {
		return Result{}, fmt.Errorf("fetch listing: %w", err)
	}
	parents := pageSlice(ParseListing(listing), job.Page, s.cfg.PageSize)
	logger.Info("scrape started", zap.Int("parents", len(parents)))

	var relations []Relation
	err = s.inBatches(ctx, len(parents), func(ctx context.Context, i int) error {
		return s.scrapeParent(ctx, &parents[i])
	}, func(done int) {
		s.emit(emit, job, progress.StageParentBatch, progress.Percent(0, 50, done, len(parents)))
	})
	if err != nil {
		return Result{}, err
	}

	var paths []string
	seen := map[string]bool{}
	for _, p := range parents {
		for _, path := range p.IdentificationPaths {
			if !seen[path] {
				seen[path] = true
				paths = append(paths, path)
			}
		}
	}
	for _, p := range parents {
		relations = append(relations, p.relations...)
	}

	children := make([]*Record, len(paths))
	err = s.inBatches(ctx, len(paths), func(ctx context.Context, i int) error {
		rec, err := s.scrapeChild(ctx, paths[i])
		if err != nil {
			return err
		}
		children[i] = rec
		return nil
	}, func(done int) {
		s.emit(emit, job, progress.StageChildBatch, progress.Percent(50, 50, done, len(paths)))
	})
	if err != nil {
		return Result{}, err
	}

	file := File{Relations: relations}
	for _, p := range parents {
		file.Data = append(file.Data, p.Record)
	}
	for _, c := range children {
		if c != nil {
			file.Data = append(file.Data, *c)
		}
	}
	if file.Data == nil {
		file.Data = []Record{}
	}
	if file.Relations == nil {
		file.Relations = []Relation{}
	}
	file.Total = len(file.Data)

	body, err := json.Marshal(file)
	if err != nil {
		return Result{}, fmt.Errorf("encode scrape file: %w", err)
	}
	path := fmt.Sprintf("%s/%d&page=%d&limit=%d.json",
		s.cfg.OutputPrefix, s.clock.Now().UnixMilli(), job.Page, s.cfg.PageSize)
	uri, err := s.blobs.PutObject(ctx, path, s.cfg.ContentType, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("store scrape file: %w", err)
	}
	logger.Info("scrape stored",
		zap.String("uri", uri),
		zap.Int("records", file.Total),
		zap.Int("relations", len(file.Relations)))

	return Result{File: file, Path: path, BlobURI: uri, ContentHash: s.hasher.Hash(body)}, nil
}

// parent pairs a listing record with the relations found on its detail
// page.
type parent struct {
	Record
	relations []Relation
}

func (s *Scraper) scrapeParent(ctx context.Context, p *parent) error {
	doc, err := fetcher.Document(ctx, s.pages, s.cfg.AtlasBaseURL+p.PlaceURL)
	if err != nil {
		return fmt.Errorf("fetch place %s: %w", p.ID, err)
	}
	detail := parseParent(doc, p.ID)
	geo, err := s.geoJSON(ctx, p.ID)
	if err != nil {
		return err
	}
	p.Types = detail.types
	p.UnknownPlacePossibility = detail.unknown
	p.IdentificationPaths = detail.paths
	p.GeoJSONText = geo
	p.relations = detail.relations
	return nil
}

func (s *Scraper) scrapeChild(ctx context.Context, path string) (*Record, error) {
	doc, err := fetcher.Document(ctx, s.pages, s.cfg.AtlasBaseURL+path)
	if err != nil {
		return nil, fmt.Errorf("fetch identification %s: %w", path, err)
	}
	rec, ok := parseChild(doc, path)
	if !ok {
		s.logger.Debug("identification page skipped", zap.String("path", path))
		return nil, nil
	}
	if rec.GeoJSONText, err = s.geoJSON(ctx, rec.ID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// geoJSON fetches a place's GeoJSON document in compact form.
func (s *Scraper) geoJSON(ctx context.Context, id string) (string, error) {
	resp, err := s.geo.Get(ctx, fmt.Sprintf("%s/%s.geojson", s.cfg.GeoBaseURL, id), nil)
	if err != nil {
		return "", fmt.Errorf("fetch geojson %s: %w", id, err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, resp.Body); err != nil {
		return "", fmt.Errorf("decode geojson %s: %w", id, err)
	}
	return buf.String(), nil
}

// inBatches runs fn over [0, total) in parallel batches of BatchSize. After
// each batch it reports the number of finished items and waits BatchDelay.
func (s *Scraper) inBatches(
	ctx context.Context,
	total int,
	fn func(ctx context.Context, i int) error,
	report func(done int),
) error {
	for start := 0; start < total; start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, total)
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error { return fn(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
		report(end)
		if err := sleep(ctx, s.cfg.BatchDelay); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scraper) emit(emit progress.Emitter, job Job, stage progress.Stage, pct float64) {
	if emit == nil {
		return
	}
	emit.Emit(progress.Event{
		JobID:    job.ID,
		UserID:   job.UserID,
		TS:       s.clock.Now(),
		Stage:    stage,
		Progress: pct,
	})
}

func pageSlice(all []Record, page, size int) []parent {
	start := page * size
	if page < 0 || start >= len(all) {
		return nil
	}
	end := min(start+size, len(all))
	out := make([]parent, 0, end-start)
	for _, rec := range all[start:end] {
		out = append(out, parent{Record: rec})
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
