package store

import (
	"context"
	"time"
)

// ScrapeJobStatus tracks the lifecycle of a scrape job.
type ScrapeJobStatus string

// Supported job statuses.
const (
	ScrapeQueued  ScrapeJobStatus = "queued"
	ScrapeRunning ScrapeJobStatus = "running"
	ScrapeSuccess ScrapeJobStatus = "success"
	ScrapeError   ScrapeJobStatus = "error"
)

// Terminal reports whether the status is final.
func (s ScrapeJobStatus) Terminal() bool {
	return s == ScrapeSuccess || s == ScrapeError
}

// ScrapeJob is one asynchronous scrape of a listing page.
type ScrapeJob struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"userId"`
	Page        int             `json:"page"`
	Status      ScrapeJobStatus `json:"status"`
	Progress    float64         `json:"progress"`
	BlobURI     string          `json:"blobUri,omitempty"`
	ContentHash string          `json:"contentHash,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	FinishedAt  *time.Time      `json:"finishedAt,omitempty"`
}

// ScrapeResult is the terminal state recorded for a job.
type ScrapeResult struct {
	Status      ScrapeJobStatus
	BlobURI     string
	ContentHash string
	Error       string
}

// ScrapeJobRepository persists scrape job rows.
type ScrapeJobRepository interface {
	CreateScrapeJob(ctx context.Context, job ScrapeJob) error
	MarkScrapeJobRunning(ctx context.Context, id string, at time.Time) error
	UpdateScrapeJobProgress(ctx context.Context, id string, progress float64) error
	CompleteScrapeJob(ctx context.Context, id string, at time.Time, result ScrapeResult) error
	GetScrapeJob(ctx context.Context, id string) (ScrapeJob, error)
	ListScrapeJobs(ctx context.Context, status *ScrapeJobStatus, page Page) ([]ScrapeJob, int, error)
}
