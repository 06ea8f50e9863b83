package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

// JobStore keeps scrape job rows in memory. It backs the scrape CLI and
// tests when no database is configured.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]store.ScrapeJob
}

var _ store.ScrapeJobRepository = (*JobStore)(nil)

// NewJobStore constructs a JobStore.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]store.ScrapeJob)}
}

// CreateScrapeJob stores a new job.
func (s *JobStore) CreateScrapeJob(_ context.Context, job store.ScrapeJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s: %w", job.ID, store.ErrConflict)
	}
	if job.Status == "" {
		job.Status = store.ScrapeQueued
	}
	s.jobs[job.ID] = job
	return nil
}

// MarkScrapeJobRunning records the start time.
func (s *JobStore) MarkScrapeJobRunning(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(job *store.ScrapeJob) {
		job.Status = store.ScrapeRunning
		if job.StartedAt == nil {
			job.StartedAt = pointerTime(at)
		}
	})
}

// UpdateScrapeJobProgress stores the latest percentage.
func (s *JobStore) UpdateScrapeJobProgress(_ context.Context, id string, progress float64) error {
	return s.update(id, func(job *store.ScrapeJob) {
		job.Progress = progress
	})
}

// CompleteScrapeJob records the terminal state.
func (s *JobStore) CompleteScrapeJob(_ context.Context, id string, at time.Time, result store.ScrapeResult) error {
	return s.update(id, func(job *store.ScrapeJob) {
		job.Status = result.Status
		job.BlobURI = result.BlobURI
		job.ContentHash = result.ContentHash
		job.Error = result.Error
		if result.Status == store.ScrapeSuccess {
			job.Progress = 100
		}
		job.FinishedAt = pointerTime(at)
	})
}

func (s *JobStore) update(id string, fn func(*store.ScrapeJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&job)
	s.jobs[id] = job
	return nil
}

// GetScrapeJob fetches a job by id.
func (s *JobStore) GetScrapeJob(_ context.Context, id string) (store.ScrapeJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ScrapeJob{}, store.ErrNotFound
	}
	return job, nil
}

// ListScrapeJobs returns jobs newest first, optionally filtered by status.
func (s *JobStore) ListScrapeJobs(
	_ context.Context,
	status *store.ScrapeJobStatus,
	page store.Page,
) ([]store.ScrapeJob, int, error) {
	s.mu.RLock()
	all := make([]store.ScrapeJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if status != nil && job.Status != *status {
			continue
		}
		all = append(all, job)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	page = page.Normalize()
	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func pointerTime(t time.Time) *time.Time {
	ts := t
	return &ts
}
