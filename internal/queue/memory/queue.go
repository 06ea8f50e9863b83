// Package memory provides the in-process scrape job queue.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/bible-atlas-api/internal/queue"
)

// Queue is a bounded channel of scrape jobs.
type Queue struct {
	ch     chan queue.Item
	mu     sync.RWMutex
	closed bool
}

var _ queue.Queue = (*Queue)(nil)

// NewQueue builds a queue holding up to capacity pending jobs.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{ch: make(chan queue.Item, capacity)}
}

// Enqueue blocks until there is room, the context ends, or the queue is
// closed.
func (q *Queue) Enqueue(ctx context.Context, item queue.Item) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return queue.ErrClosed
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- item:
		return nil
	}
}

// Dequeue returns the next job. Jobs still buffered at Close are handed out
// before ErrClosed.
func (q *Queue) Dequeue(ctx context.Context) (queue.Item, error) {
	select {
	case <-ctx.Done():
		return queue.Item{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case item, ok := <-q.ch:
		if !ok {
			return queue.Item{}, queue.ErrClosed
		}
		return item, nil
	}
}

// Len reports how many jobs are waiting.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops accepting jobs. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
