package sinks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/bible-atlas-api/internal/progress"
	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// StoreSink mirrors progress onto scrape_job rows. Within a batch only the
// latest percentage per job is written.
type StoreSink struct {
	repo   store.ScrapeJobRepository
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for repo.
func NewStoreSink(repo store.ScrapeJobRepository, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{repo: repo, logger: logger}
}

// Consume applies the batch in order and returns the first repository
// error.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.repo == nil {
		return nil
	}
	latest := make(map[string]float64)
	var order []string
	flushProgress := func(id string) error {
		pct, ok := latest[id]
		if !ok {
			return nil
		}
		delete(latest, id)
		if err := s.repo.UpdateScrapeJobProgress(ctx, id, pct); err != nil {
			return fmt.Errorf("update scrape job progress: %w", err)
		}
		return nil
	}

	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageJobStart:
			if err := s.repo.MarkScrapeJobRunning(ctx, evt.JobID, evt.TS); err != nil {
				return fmt.Errorf("mark scrape job running: %w", err)
			}
		case progress.StageParentBatch, progress.StageChildBatch:
			if _, ok := latest[evt.JobID]; !ok {
				order = append(order, evt.JobID)
			}
			latest[evt.JobID] = evt.Progress
		case progress.StageJobDone, progress.StageJobError:
			// Terminal rows carry their own progress; pending batch updates
			// would only be overwritten.
			delete(latest, evt.JobID)
			result := store.ScrapeResult{Status: store.ScrapeSuccess, BlobURI: evt.BlobURI, ContentHash: evt.ContentHash}
			if evt.Stage == progress.StageJobError {
				result = store.ScrapeResult{Status: store.ScrapeError, Error: evt.Note}
			}
			if err := s.repo.CompleteScrapeJob(ctx, evt.JobID, evt.TS, result); err != nil {
				return fmt.Errorf("complete scrape job: %w", err)
			}
		}
	}
	for _, id := range order {
		if err := flushProgress(id); err != nil {
			return err
		}
	}
	return nil
}

// Close implements progress.Sink.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
