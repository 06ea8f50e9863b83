package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

func TestJobStoreLifecycle(t *testing.T) {
	t.Parallel()

	js := NewJobStore()
	ctx := context.Background()
	created := time.Unix(1700000000, 0).UTC()
	job := store.ScrapeJob{ID: "job-1", UserID: 7, Page: 2, CreatedAt: created}

	require.NoError(t, js.CreateScrapeJob(ctx, job))
	require.ErrorIs(t, js.CreateScrapeJob(ctx, job), store.ErrConflict)

	require.NoError(t, js.MarkScrapeJobRunning(ctx, job.ID, created.Add(time.Second)))
	require.NoError(t, js.UpdateScrapeJobProgress(ctx, job.ID, 42.5))

	got, err := js.GetScrapeJob(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, store.ScrapeRunning, got.Status)
	require.InDelta(t, 42.5, got.Progress, 0.001)
	require.NotNil(t, got.StartedAt)

	require.NoError(t, js.CompleteScrapeJob(ctx, job.ID, created.Add(time.Minute), store.ScrapeResult{
		Status:  store.ScrapeSuccess,
		BlobURI: "memory://places-data/x.json",
	}))
	got, err = js.GetScrapeJob(ctx, job.ID)
	require.NoError(t, err)
	require.Equal(t, store.ScrapeSuccess, got.Status)
	require.InDelta(t, 100, got.Progress, 0.001)
	require.NotNil(t, got.FinishedAt)

	_, err = js.GetScrapeJob(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, js.UpdateScrapeJobProgress(ctx, "missing", 1), store.ErrNotFound)
}

func TestJobStoreListNewestFirst(t *testing.T) {
	t.Parallel()

	js := NewJobStore()
	ctx := context.Background()
	base := time.Unix(1700000000, 0).UTC()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, js.CreateScrapeJob(ctx, store.ScrapeJob{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}
	require.NoError(t, js.CompleteScrapeJob(ctx, "b", base, store.ScrapeResult{Status: store.ScrapeError, Error: "boom"}))

	jobs, total, err := js.ListScrapeJobs(ctx, nil, store.Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Equal(t, []string{"c", "b"}, []string{jobs[0].ID, jobs[1].ID})

	failed := store.ScrapeError
	jobs, total, err = js.ListScrapeJobs(ctx, &failed, store.Page{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, "boom", jobs[0].Error)
}
