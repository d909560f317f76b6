// Package service wires the document store, the state cache, the draw
// engine and the admin console into the dependencies the HTTP API needs.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	eventqueue "github.com/okian/prizewheel/internal/adapters/mq/queue"
	"github.com/okian/prizewheel/internal/adapters/mq/worker"
	"github.com/okian/prizewheel/internal/adapters/store"
	"github.com/okian/prizewheel/internal/admin"
	"github.com/okian/prizewheel/internal/cache"
	"github.com/okian/prizewheel/internal/client"
	"github.com/okian/prizewheel/internal/config"
	"github.com/okian/prizewheel/internal/domain/datefmt"
	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/gallery"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/internal/domain/notify"
	"github.com/okian/prizewheel/pkg/logger"
	"github.com/okian/prizewheel/pkg/metrics"
)

const workerShutdownTimeout = 5 * time.Second

// Service owns every component of a running prizewheel. Only Start, Stop
// and GetStats may be called before Start.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      store.Store
	cache      *cache.Cache
	queue      *eventqueue.InMemoryQueue
	worker     *worker.InMemoryWorker
	client     *client.Client
	subscriber *client.Subscriber
	notes      *notify.Notifier
	engine     *draw.Engine
	console    *admin.Controller
	dates      *datefmt.Formatter
	gallery    *gallery.Gallery
	viewer     *gallery.Viewer
	events     *broadcaster
	disposers  []func()

	// Configuration
	driver          string
	queueSize       int
	locale          string
	loc             *time.Location
	notificationTTL time.Duration
	spinTurns       int
	spinDuration    time.Duration
	spinFPS         int
	minBackoff      time.Duration
	maxBackoff      time.Duration
	previewLen      int
	source          draw.Source
	now             func() time.Time

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		driver:          config.DriverMemory,
		queueSize:       64,
		locale:          datefmt.LocaleThai,
		loc:             time.UTC,
		notificationTTL: 3 * time.Second,
		spinTurns:       draw.DefaultTurns,
		spinDuration:    draw.DefaultDuration,
		minBackoff:      500 * time.Millisecond,
		maxBackoff:      30 * time.Second,
		previewLen:      50,
		source:          draw.DefaultSource,
		now:             time.Now,
		events:          newBroadcaster(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the components and begins following the store.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = store.NewMemory()
	}

	dates, err := datefmt.New(s.locale, s.loc)
	if err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	s.dates = dates

	s.logger.Info(ctx, "starting prizewheel service...")

	s.notes = notify.New(
		notify.WithTTL(s.notificationTTL),
		notify.WithClock(s.now),
		notify.WithLogger(s.logger.Named("notify")),
	)
	s.cache = cache.New()
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s.cache,
		worker.WithName("snapshot-worker"),
		worker.WithLogger(s.logger.Named("snapshot-worker")),
	)
	s.client = client.New(s.store, s.notes,
		client.WithClock(s.now),
		client.WithLogger(s.logger.Named("client")),
	)
	s.subscriber = client.NewSubscriber(s.store, s.queue, s.notes, model.NewCodec(s.loc),
		client.WithBackoff(s.minBackoff, s.maxBackoff),
		client.WithSubscriberLogger(s.logger.Named("subscriber")),
	)

	engineOpts := []draw.Option{
		draw.WithSource(s.source),
		draw.WithSpin(s.spinTurns, s.spinDuration),
		draw.WithClock(s.now),
		draw.WithLogger(s.logger.Named("draw")),
	}
	if s.spinFPS > 0 {
		engineOpts = append(engineOpts, draw.WithAnimator(draw.NewAnimator(s.spinFPS, s.publishFrame)))
	}
	s.engine = draw.NewEngine(s.cache, s.client, s.notes, engineOpts...)

	s.console = admin.New(s.cache, s.client, s.notes, s.dates,
		admin.WithPreviewLength(s.previewLen),
		admin.WithClock(s.now),
		admin.WithLogger(s.logger.Named("admin")),
	)
	s.gallery = gallery.New()
	s.viewer = &gallery.Viewer{}

	s.disposers = append(s.disposers,
		s.cache.Subscribe(func(ch cache.Change) {
			if ch.Collection == model.Prizes {
				s.forgetDeleted()
			}
			s.events.publish(Event{Type: EventChange, Change: &ch})
		}),
		s.notes.Listen(func(n notify.Notification) {
			s.events.publish(Event{Type: EventNotification, Notification: &n})
		}),
	)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(runCtx)
	s.subscriber.Start(runCtx)
	metrics.UpdateQueueCapacity(s.queueSize)

	s.started = true
	s.logger.Info(ctx, "prizewheel service started",
		logger.String("driver", s.driver),
		logger.Int("queueSize", s.queueSize),
		logger.String("locale", s.locale),
		logger.Bool("spinPlayback", s.spinFPS > 0),
	)
	return nil
}

// Stop cancels the subscriptions, drains the snapshot queue and closes the
// store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping prizewheel service...")

	s.subscriber.Stop()
	for _, dispose := range s.disposers {
		dispose()
	}
	s.disposers = nil

	_ = s.queue.Close()
	select {
	case <-s.worker.Done():
	case <-time.After(workerShutdownTimeout):
		shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
		if err := s.worker.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "snapshot worker did not stop", logger.Error(err))
		}
		cancel()
	}
	s.cancel()

	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "closing store failed", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "prizewheel service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":   s.started,
		"driver":    s.driver,
		"queueSize": s.queueSize,
		"listeners": s.events.len(),
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["prizes"] = len(s.cache.Prizes())
		stats["labels"] = len(s.cache.Labels())
		stats["prizesVersion"] = s.cache.Version(model.Prizes)
		stats["labelsVersion"] = s.cache.Version(model.Labels)
		stats["notifications"] = len(s.notes.Active(s.now()))

		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

// Console returns the admin console controller.
func (s *Service) Console() *admin.Controller {
	return s.console
}

// Listen registers fn for every live stream event. fn must not block.
func (s *Service) Listen(fn func(Event)) (dispose func()) {
	return s.events.listen(fn)
}

func (s *Service) publishFrame(f draw.Frame) {
	s.events.publish(Event{Type: EventSpin, Frame: &f})
}

// forgetDeleted drops gallery cursors of prizes no longer in the cache.
func (s *Service) forgetDeleted() {
	live := make(map[string]struct{})
	for _, p := range s.cache.Prizes() {
		live[p.ID] = struct{}{}
	}
	s.gallery.Retain(live)
}
