// Package worker runs the loop that applies store snapshots to the cache.
// There is exactly one worker, so the cache has a single writer.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/prizewheel/internal/adapters/mq/queue"
	"github.com/okian/prizewheel/pkg/logger"
	"github.com/okian/prizewheel/pkg/metrics"
)

// Event abstracts what the worker reads off the queue.
type Event = queue.Event

// Applier installs a snapshot as the current state of its collection.
type Applier interface {
	Apply(ctx context.Context, e Event) error
}

// Queue defines how the worker receives snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Event
}

// Worker applies queued snapshots until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to exit.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, applier Applier, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		applier:  applier,
		name:     "snapshot-worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := w.process(ctx, event); err != nil {
				w.logger.Error(ctx, "error applying snapshot", logger.Error(err))
			}
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, event Event) error { //nolint:gocritic // hugeParam: received by value from the channel
	start := time.Now()
	if err := w.applier.Apply(ctx, event); err != nil {
		metrics.RecordQueueError("apply_failed")
		return fmt.Errorf("apply %s snapshot: %w", event.Collection, err)
	}
	metrics.RecordSnapshotApplied(string(event.Collection), event.Len(), time.Since(start))
	w.logger.Debug(ctx, "snapshot applied",
		logger.String("collection", string(event.Collection)),
		logger.Int("records", event.Len()),
	)
	return nil
}
