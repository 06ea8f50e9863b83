package dispatcher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/bible-atlas-api/internal/progress"
	"github.com/JakeFAU/bible-atlas-api/internal/queue"
	"github.com/JakeFAU/bible-atlas-api/internal/queue/memory"
	"github.com/JakeFAU/bible-atlas-api/internal/scraper"
	"github.com/JakeFAU/bible-atlas-api/internal/worker"
)

type countingRunner struct {
	runs atomic.Int32
}

func (c *countingRunner) Run(context.Context, scraper.Job, progress.Emitter) (scraper.Result, error) {
	c.runs.Add(1)
	return scraper.Result{}, nil
}

func TestDispatcherRunsJobsAcrossWorkers(t *testing.T) {
	t.Parallel()
	q := memory.NewQueue(8)
	runner := &countingRunner{}
	workers := []*worker.Worker{
		worker.New(1, q, runner, nil, nil, worker.Config{}, nil),
		worker.New(2, q, runner, nil, nil, worker.Config{}, nil),
	}
	d := New(q, workers)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, d.Enqueue(ctx, queue.Item{JobID: id}))
	}
	require.Eventually(t, func() bool { return runner.runs.Load() == 4 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after cancel")
	}
}

type failingQueue struct{}

func (failingQueue) Enqueue(context.Context, queue.Item) error { return errors.New("boom") }

func (failingQueue) Dequeue(context.Context) (queue.Item, error) { return queue.Item{}, queue.ErrClosed }

func TestDispatcherEnqueueWrapsErrors(t *testing.T) {
	t.Parallel()
	err := New(failingQueue{}, nil).Enqueue(context.Background(), queue.Item{JobID: "job"})
	require.EqualError(t, err, "queue enqueue: boom")
}
