// Package worker runs queued scrape jobs and reports their lifecycle on the
// progress hub.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	"github.com/JakeFAU/bible-atlas-api/internal/metrics"
	"github.com/JakeFAU/bible-atlas-api/internal/progress"
	"github.com/JakeFAU/bible-atlas-api/internal/queue"
	"github.com/JakeFAU/bible-atlas-api/internal/scraper"
)

// Runner performs one scrape.
type Runner interface {
	Run(ctx context.Context, job scraper.Job, emit progress.Emitter) (scraper.Result, error)
}

// Config tunes a Worker.
type Config struct {
	// JobTimeout bounds a single attempt. Zero means no limit.
	JobTimeout time.Duration
	// MaxAttempts is how many times a failing job is tried. Defaults to 1.
	MaxAttempts int
	// RetryBackoff is the pause before the second attempt; it doubles on
	// each further attempt.
	RetryBackoff time.Duration
}

// Worker pulls jobs from a queue and runs them one at a time.
type Worker struct {
	id      int
	queue   queue.Queue
	runner  Runner
	emitter progress.Emitter
	clock   clock.Clock
	cfg     Config
	logger  *zap.Logger
}

// New builds a Worker. id only labels log lines.
func New(
	id int,
	q queue.Queue,
	runner Runner,
	emitter progress.Emitter,
	clk clock.Clock,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if clk == nil {
		clk = clock.System{}
	}
	if emitter == nil {
		emitter = progress.EmitterFunc(func(progress.Event) {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		id:      id,
		queue:   q,
		runner:  runner,
		emitter: emitter,
		clock:   clk,
		cfg:     cfg,
		logger:  logger.Named("worker").With(zap.Int("worker_id", id)),
	}
}

// Run processes jobs until ctx ends or the queue is closed.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, queue.ErrClosed) {
				w.logger.Error("dequeue failed", zap.Error(err))
			}
			return
		}
		w.Process(ctx, item)
	}
}

// Process runs one job to completion and emits its start and terminal
// events.
func (w *Worker) Process(ctx context.Context, item queue.Item) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	job := scraper.Job{ID: item.JobID, UserID: item.UserID, Page: item.Page}
	logger := w.logger.With(zap.String("job_id", job.ID), zap.Int64("user_id", job.UserID))
	start := w.clock.Now()
	w.emitter.Emit(progress.Event{JobID: job.ID, UserID: job.UserID, TS: start, Stage: progress.StageJobStart})

	res, err := w.attempt(ctx, job, logger)
	end := w.clock.Now()
	dur := max(end.Sub(start), 0)

	if err != nil {
		metrics.ObserveJob(string(progress.StageJobError))
		logger.Warn("scrape job failed", zap.Error(err), zap.Duration("duration", dur))
		w.emitter.Emit(progress.Event{
			JobID:  job.ID,
			UserID: job.UserID,
			TS:     end,
			Stage:  progress.StageJobError,
			Dur:    dur,
			Note:   err.Error(),
		})
		return
	}

	metrics.ObserveJob(string(progress.StageJobDone))
	logger.Info("scrape job finished",
		zap.String("blob_uri", res.BlobURI),
		zap.Int("records", res.File.Total),
		zap.Duration("duration", dur))
	w.emitter.Emit(progress.Event{
		JobID:       job.ID,
		UserID:      job.UserID,
		TS:          end,
		Stage:       progress.StageJobDone,
		Progress:    100,
		BlobURI:     res.BlobURI,
		ContentHash: res.ContentHash,
		Dur:         dur,
	})
}

func (w *Worker) attempt(ctx context.Context, job scraper.Job, logger *zap.Logger) (scraper.Result, error) {
	backoff := w.cfg.RetryBackoff
	var lastErr error
	for n := 1; n <= w.cfg.MaxAttempts; n++ {
		res, err := w.runOnce(ctx, job)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil || n == w.cfg.MaxAttempts {
			break
		}
		logger.Info("retrying scrape job", zap.Int("attempt", n), zap.Error(err))
		if backoff > 0 {
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return scraper.Result{}, errors.Join(lastErr, ctx.Err())
			case <-t.C:
			}
			backoff *= 2
		}
	}
	return scraper.Result{}, lastErr
}

func (w *Worker) runOnce(ctx context.Context, job scraper.Job) (scraper.Result, error) {
	if w.cfg.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.JobTimeout)
		defer cancel()
	}
	return w.runner.Run(ctx, job, w.emitter)
}
