package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const scrapeJobColumns = `id, user_id, page, status, progress, COALESCE(blob_uri, ''), COALESCE(content_hash, ''),
	COALESCE(error, ''), created_at, started_at, finished_at`

func scrapeJobDest(j *store.ScrapeJob) []any {
	return []any{
		&j.ID, &j.UserID, &j.Page, &j.Status, &j.Progress, &j.BlobURI, &j.ContentHash,
		&j.Error, &j.CreatedAt, &j.StartedAt, &j.FinishedAt,
	}
}

// CreateScrapeJob records a queued job.
func (s *Store) CreateScrapeJob(ctx context.Context, job store.ScrapeJob) error {
	if job.Status == "" {
		job.Status = store.ScrapeQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scrape_job (id, user_id, page, status, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		job.ID, job.UserID, job.Page, string(job.Status), job.CreatedAt)
	if err != nil {
		return mapError(err, "insert scrape job")
	}
	return nil
}

// MarkScrapeJobRunning moves a job to running, keeping the first start time.
func (s *Store) MarkScrapeJobRunning(ctx context.Context, id string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scrape_job SET status = $2, started_at = COALESCE(started_at, $3)
		WHERE id = $1`, id, string(store.ScrapeRunning), at)
	if err != nil {
		return mapError(err, "mark scrape job running")
	}
	return requireRow(tag)
}

// UpdateScrapeJobProgress stores the latest progress percentage.
func (s *Store) UpdateScrapeJobProgress(ctx context.Context, id string, progress float64) error {
	tag, err := s.pool.Exec(ctx, `UPDATE scrape_job SET progress = $2 WHERE id = $1`, id, progress)
	if err != nil {
		return mapError(err, "update scrape job progress")
	}
	return requireRow(tag)
}

// CompleteScrapeJob records the terminal state of a job.
func (s *Store) CompleteScrapeJob(ctx context.Context, id string, at time.Time, result store.ScrapeResult) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE scrape_job SET
			status = $2,
			progress = CASE WHEN $2 = 'success' THEN 100 ELSE progress END,
			blob_uri = NULLIF($3, ''),
			content_hash = NULLIF($4, ''),
			error = NULLIF($5, ''),
			finished_at = $6
		WHERE id = $1`,
		id, string(result.Status), result.BlobURI, result.ContentHash, result.Error, at)
	if err != nil {
		return mapError(err, "complete scrape job")
	}
	return requireRow(tag)
}

// GetScrapeJob fetches a job by id.
func (s *Store) GetScrapeJob(ctx context.Context, id string) (store.ScrapeJob, error) {
	var j store.ScrapeJob
	err := s.pool.QueryRow(ctx, `SELECT `+scrapeJobColumns+` FROM scrape_job WHERE id = $1`, id).
		Scan(scrapeJobDest(&j)...)
	if err != nil {
		return store.ScrapeJob{}, mapError(err, "get scrape job")
	}
	return j, nil
}

// ListScrapeJobs pages through jobs newest first, optionally by status.
func (s *Store) ListScrapeJobs(
	ctx context.Context,
	status *store.ScrapeJobStatus,
	page store.Page,
) ([]store.ScrapeJob, int, error) {
	page = page.Normalize()
	w := &where{}
	if status != nil {
		w.add("status = ?", string(*status))
	}
	total, err := countRows(ctx, s.pool, `SELECT count(*) FROM scrape_job`+w.String(), w.args...)
	if err != nil {
		return nil, 0, err
	}
	clause := w.String()
	limit := w.next(page.Limit)
	offset := w.next(page.Offset())
	rows, err := s.pool.Query(ctx, `SELECT `+scrapeJobColumns+` FROM scrape_job`+clause+
		` ORDER BY created_at DESC, id LIMIT `+limit+` OFFSET `+offset, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list scrape jobs: %w", err)
	}
	defer rows.Close()
	var out []store.ScrapeJob
	for rows.Next() {
		var j store.ScrapeJob
		if err := rows.Scan(scrapeJobDest(&j)...); err != nil {
			return nil, 0, fmt.Errorf("scan scrape job row: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate scrape jobs: %w", err)
	}
	return out, total, nil
}
