package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/apperr"
	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	"github.com/JakeFAU/bible-atlas-api/internal/queue"
	"github.com/JakeFAU/bible-atlas-api/internal/scraper"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// IDGenerator mints job ids.
type IDGenerator interface {
	NewID() (string, error)
}

// Enqueuer accepts scrape work.
type Enqueuer interface {
	Enqueue(ctx context.Context, item queue.Item) error
}

// Pusher reloads the place graph from stored scrape output.
type Pusher interface {
	Push(ctx context.Context) (scraper.PushResult, error)
}

// ScrapeAccepted is returned when a scrape is queued.
type ScrapeAccepted struct {
	JobID string `json:"jobId"`
}

// PushMessage reports a completed import.
type PushMessage struct {
	Message string `json:"message"`
}

// ScrapeService queues scrapes and imports their output.
type ScrapeService struct {
	jobs     store.ScrapeJobRepository
	queue    Enqueuer
	ids      IDGenerator
	importer Pusher
	clock    clock.Clock
	onPush   func(context.Context)
	logger   *zap.Logger
}

// ScrapeDeps are the collaborators of a ScrapeService.
type ScrapeDeps struct {
	Jobs     store.ScrapeJobRepository
	Queue    Enqueuer
	IDs      IDGenerator
	Importer Pusher
	Clock    clock.Clock
	// OnPush runs after a successful import, e.g. to drop cached counts.
	OnPush func(context.Context)
	Logger *zap.Logger
}

// NewScrapeService builds a ScrapeService.
func NewScrapeService(d ScrapeDeps) *ScrapeService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := d.Clock
	if clk == nil {
		clk = clock.System{}
	}
	return &ScrapeService{
		jobs:     d.Jobs,
		queue:    d.Queue,
		ids:      d.IDs,
		importer: d.Importer,
		clock:    clk,
		onPush:   d.OnPush,
		logger:   logger.Named("scrape"),
	}
}

// Scrape records a queued job for the 0-based listing page and hands it to the workers.
// Progress is streamed on the user's channel.
func (s *ScrapeService) Scrape(ctx context.Context, userID int64, page int) (ScrapeAccepted, error) {
	if page < 0 {
		return ScrapeAccepted{}, apperr.BadRequest("page must not be negative")
	}
	id, err := s.ids.NewID()
	if err != nil {
		return ScrapeAccepted{}, fmt.Errorf("generate job id: %w", err)
	}
	job := store.ScrapeJob{
		ID:        id,
		UserID:    userID,
		Page:      page,
		Status:    store.ScrapeQueued,
		CreatedAt: s.clock.Now(),
	}
	if err := s.jobs.CreateScrapeJob(ctx, job); err != nil {
		return ScrapeAccepted{}, err
	}
	if err := s.queue.Enqueue(ctx, queue.Item{JobID: id, UserID: userID, Page: page}); err != nil {
		s.logger.Error("failed to enqueue scrape job", zap.String("job_id", id), zap.Error(err))
		if cerr := s.jobs.CompleteScrapeJob(ctx, id, s.clock.Now(), store.ScrapeResult{
			Status: store.ScrapeError,
			Error:  err.Error(),
		}); cerr != nil {
			s.logger.Warn("failed to mark job failed", zap.String("job_id", id), zap.Error(cerr))
		}
		return ScrapeAccepted{}, apperr.Conflict("Scrape queue is not accepting jobs.")
	}
	s.logger.Info("scrape job queued", zap.String("job_id", id), zap.Int64("user_id", userID), zap.Int("page", page))
	return ScrapeAccepted{JobID: id}, nil
}

// Jobs lists scrape jobs, optionally filtered by status.
func (s *ScrapeService) Jobs(
	ctx context.Context,
	status *store.ScrapeJobStatus,
	page store.Page,
) (store.PageResult[store.ScrapeJob], error) {
	page = page.Normalize()
	jobs, total, err := s.jobs.ListScrapeJobs(ctx, status, page)
	if err != nil {
		return store.PageResult[store.ScrapeJob]{}, err
	}
	return store.NewPageResult(jobs, total, page), nil
}

// Job returns one scrape job.
func (s *ScrapeService) Job(ctx context.Context, id string) (store.ScrapeJob, error) {
	job, err := s.jobs.GetScrapeJob(ctx, id)
	if err != nil {
		return store.ScrapeJob{}, translate(err, "Scrape job not found.")
	}
	return job, nil
}

// Push replaces the place graph with the stored scrape output.
func (s *ScrapeService) Push(ctx context.Context) (PushMessage, error) {
	res, err := s.importer.Push(ctx)
	if err != nil {
		return PushMessage{}, err
	}
	if s.onPush != nil {
		s.onPush(ctx)
	}
	return PushMessage{Message: res.Message()}, nil
}
