// Package notify keeps short-lived user-facing notifications.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/prizewheel/pkg/logger"
	"github.com/okian/prizewheel/pkg/metrics"
)

const defaultTTL = 3 * time.Second

// Severity is the kind of a notification.
type Severity string

// Severities.
const (
	Success Severity = "success"
	Error   Severity = "error"
)

// Notification is one message shown to the user until ExpiresAt.
type Notification struct {
	ID        string    `json:"id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sink is what components use to report outcomes.
type Sink interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Notifier stores notifications until they expire and forwards each one to
// listeners. Several may be active at once.
type Notifier struct {
	ttl    time.Duration
	now    func() time.Time
	logger logger.Logger

	mu        sync.Mutex
	active    []Notification
	listeners map[uint64]func(Notification)
	nextID    uint64
}

// New returns a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		ttl:       defaultTTL,
		now:       time.Now,
		listeners: make(map[uint64]func(Notification)),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = logger.Get().Named("notify")
	}
	return n
}

// Success publishes a success notification.
func (n *Notifier) Success(ctx context.Context, msg string) {
	n.publish(ctx, Success, msg)
}

// Error publishes an error notification.
func (n *Notifier) Error(ctx context.Context, msg string) {
	n.publish(ctx, Error, msg)
}

// Active returns the notifications not yet expired at now, oldest first.
func (n *Notifier) Active(now time.Time) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pruneLocked(now)
	out := make([]Notification, len(n.active))
	copy(out, n.active)
	return out
}

// Listen registers fn for every later notification.
func (n *Notifier) Listen(fn func(Notification)) (dispose func()) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.listeners[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

func (n *Notifier) publish(ctx context.Context, sev Severity, msg string) {
	now := n.now()
	note := Notification{
		ID:        uuid.NewString(),
		Severity:  sev,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(n.ttl),
	}

	n.mu.Lock()
	n.pruneLocked(now)
	n.active = append(n.active, note)
	fns := make([]func(Notification), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	metrics.RecordNotification(string(sev))
	if sev == Error {
		n.logger.Warn(ctx, "notification", logger.String("message", msg))
	} else {
		n.logger.Info(ctx, "notification", logger.String("message", msg))
	}
	for _, fn := range fns {
		fn(note)
	}
}

func (n *Notifier) pruneLocked(now time.Time) {
	kept := n.active[:0]
	for _, a := range n.active {
		if now.Before(a.ExpiresAt) {
			kept = append(kept, a)
		}
	}
	n.active = kept
}

var _ Sink = (*Notifier)(nil)
