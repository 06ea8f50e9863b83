package sinks

import (
	"context"
	"sync"

	"github.com/JakeFAU/bible-atlas-api/internal/progress"
)

const defaultSubscriberBuffer = 16

// Update is what a live progress stream receives.
type Update struct {
	Progress float64 `json:"progress"`
}

// Broker fans progress out to per-user subscribers. Pushing to a user with
// no subscribers does nothing, and a slow subscriber loses its oldest
// updates rather than stalling the hub.
type Broker struct {
	buffer int

	mu     sync.RWMutex
	subs   map[int64]map[chan Update]struct{}
	closed bool
}

// NewBroker creates a Broker whose subscriber channels hold buffer updates.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Broker{buffer: buffer, subs: make(map[int64]map[chan Update]struct{})}
}

// Subscribe registers a stream for userID. The returned cancel func removes
// it and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(userID int64) (<-chan Update, func()) {
	ch := make(chan Update, b.buffer)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	set := b.subs[userID]
	if set == nil {
		set = make(map[chan Update]struct{})
		b.subs[userID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			set := b.subs[userID]
			if _, ok := set[ch]; !ok {
				return
			}
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, userID)
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of open streams for userID.
func (b *Broker) Subscribers(userID int64) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

// Push delivers u to every stream of userID.
func (b *Broker) Push(userID int64, u Update) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- u:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
		}
	}
}

// Consume pushes each event's percentage to the job owner's streams.
func (b *Broker) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		b.Push(evt.UserID, Update{Progress: evt.Progress})
	}
	return nil
}

// Close ends every open stream.
func (b *Broker) Close(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for userID, set := range b.subs {
		for ch := range set {
			close(ch)
		}
		delete(b.subs, userID)
	}
	b.closed = true
	return nil
}
