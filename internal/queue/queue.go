// Package queue defines the hand-off between the scrape API and the worker
// pool.
package queue

import (
	"context"
	"errors"
)

// ErrClosed is returned by Dequeue once the queue is closed and drained.
var ErrClosed = errors.New("queue closed")

// Item is one scrape job waiting for a worker.
type Item struct {
	JobID  string
	UserID int64
	Page   int
}

// Queue buffers scrape jobs.
type Queue interface {
	Enqueue(ctx context.Context, item Item) error
	Dequeue(ctx context.Context) (Item, error)
}
