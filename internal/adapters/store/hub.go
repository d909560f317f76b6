package store

import (
	"context"
	"sync"
)

// LoadFunc reads the current snapshot for a query.
type LoadFunc func(q Query) (Snapshot, error)

// Hub fans snapshots out to subscriptions for backends that observe their
// own writes. Each subscription has a delivery goroutine holding at most one
// pending snapshot, so a slow consumer only ever sees the latest state and
// never blocks writers.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*hubSub
	nextID uint64
	closed bool
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*hubSub)}
}

// Add registers a subscription and queues initial for delivery.
func (h *Hub) Add(ctx context.Context, q Query, initial Snapshot, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &hubSub{
		query:  q,
		wake:   make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h.nextID++
	id := h.nextID
	h.subs[id] = sub
	sub.offer(initial)
	h.mu.Unlock()

	go func() {
		defer close(sub.done)
		defer h.remove(id)
		for {
			select {
			case <-subCtx.Done():
				return
			case <-sub.wake:
				snap, ok, err := sub.take()
				if !ok {
					continue
				}
				if subCtx.Err() != nil {
					return
				}
				if err != nil {
					if onError != nil {
						onError(err)
					}
					return
				}
				onSnapshot(snap)
			}
		}
	}()
	return sub, nil
}

// Publish reloads and offers a snapshot to every subscription on collection.
// A load failure ends the affected subscription through its ErrorFunc.
func (h *Hub) Publish(collection string, load LoadFunc) {
	h.mu.Lock()
	targets := make([]*hubSub, 0, len(h.subs))
	for _, s := range h.subs {
		if s.query.Collection == collection {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	for _, s := range targets {
		snap, err := load(s.query)
		if err != nil {
			s.fail(err)
			continue
		}
		s.offer(snap)
	}
}

// Close cancels every subscription; later Adds fail with ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	subs := make([]*hubSub, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Cancel()
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

type hubSub struct {
	query  Query
	mu     sync.Mutex
	next   *Snapshot
	err    error
	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *hubSub) offer(snap Snapshot) {
	s.mu.Lock()
	s.next = &snap
	s.mu.Unlock()
	s.signal()
}

func (s *hubSub) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	s.signal()
}

func (s *hubSub) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *hubSub) take() (Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Snapshot{}, true, s.err
	}
	if s.next == nil {
		return Snapshot{}, false, nil
	}
	snap := *s.next
	s.next = nil
	return snap, true, nil
}

func (s *hubSub) Cancel()               { s.cancel() }
func (s *hubSub) Done() <-chan struct{} { return s.done }
