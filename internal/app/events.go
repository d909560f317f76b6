package service

import (
	"sync"

	"github.com/okian/prizewheel/internal/cache"
	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/notify"
)

// EventType tells stream consumers what changed.
type EventType string

// Stream event types.
const (
	EventChange       EventType = "change"
	EventNotification EventType = "notification"
	EventSpin         EventType = "spin"
)

// Event is one message on the live stream. Exactly one payload is set.
type Event struct {
	Type         EventType            `json:"type"`
	Change       *cache.Change        `json:"change,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
	Frame        *draw.Frame          `json:"frame,omitempty"`
}

// broadcaster fans stream events out to listeners. Listeners run on the
// publishing goroutine and must not block.
type broadcaster struct {
	mu        sync.RWMutex
	listeners map[uint64]func(Event)
	nextID    uint64
}

func newBroadcaster() *broadcaster {
	return &broadcaster{listeners: make(map[uint64]func(Event))}
}

func (b *broadcaster) listen(fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *broadcaster) publish(e Event) {
	b.mu.RLock()
	fns := make([]func(Event), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(e)
	}
}

func (b *broadcaster) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
