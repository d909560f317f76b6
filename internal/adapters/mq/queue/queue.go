// Package queue carries decoded collection snapshots from the store
// listeners to the single goroutine that applies them to the cache.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/pkg/metrics"
)

const defaultQueueCapacity = 64

// Event is the payload flowing through the queue.
type Event = model.Snapshot

// Queue is a bounded FIFO of snapshots.
type Queue interface {
	// Enqueue adds a snapshot, waiting for room while the queue is full.
	// It fails when ctx ends first or the queue is closed.
	Enqueue(ctx context.Context, e Event) error

	// Dequeue returns a channel that receives snapshots in enqueue order.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the current number of queued snapshots.
	Len(ctx context.Context) int

	// Close stops accepting snapshots. Queued snapshots are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	events   chan Event
	capacity int

	// mu guards closed; senders hold the read lock so Close cannot close
	// the channel under them.
	mu        sync.RWMutex
	closed    bool
	closing   chan struct{}
	closeOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		closing:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.events = make(chan Event, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a snapshot to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Event) error { //nolint:gocritic // hugeParam: passed by value into the channel
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueError("closed")
		return ErrClosed
	}

	select {
	case q.events <- e:
		metrics.UpdateQueueSize(len(q.events))
		return nil
	case <-ctx.Done():
		metrics.RecordQueueError("context_cancelled")
		return fmt.Errorf("enqueue %s snapshot: %w", e.Collection, ctx.Err())
	case <-q.closing:
		metrics.RecordQueueError("closed")
		return ErrClosed
	}
}

// Dequeue returns a channel that will receive snapshots as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for event := range q.events {
			select {
			case out <- event:
				metrics.UpdateQueueSize(len(q.events))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued snapshots.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.events)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops the queue. Blocked senders are released with ErrClosed.
func (q *InMemoryQueue) Close() error {
	// Release blocked senders first so they drop the read lock.
	q.closeOnce.Do(func() { close(q.closing) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.events)
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
