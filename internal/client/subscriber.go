package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/prizewheel/internal/adapters/store"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/internal/domain/notify"
	"github.com/okian/prizewheel/pkg/logger"
	"github.com/okian/prizewheel/pkg/metrics"
)

// Subscription error notifications.
const (
	MsgLoadPrizesFailed = "Error loading prizes"
	MsgLoadLabelsFailed = "Error loading labels"
)

const (
	defaultMinBackoff = 500 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// Enqueuer accepts decoded snapshots for the cache writer.
type Enqueuer interface {
	Enqueue(ctx context.Context, s model.Snapshot) error
}

// Subscriber keeps a live query on both collections, ordered newest first,
// and forwards every decoded snapshot. A failed query is reported and
// re-established with capped exponential backoff.
type Subscriber struct {
	store  store.Store
	out    Enqueuer
	notes  notify.Sink
	codec  model.Codec
	logger logger.Logger

	minBackoff time.Duration
	maxBackoff time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSubscriber returns a stopped subscriber.
func NewSubscriber(s store.Store, out Enqueuer, notes notify.Sink, codec model.Codec, opts ...SubscriberOption) *Subscriber {
	sub := &Subscriber{
		store:      s,
		out:        out,
		notes:      notes,
		codec:      codec,
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(sub)
	}
	if sub.logger == nil {
		sub.logger = logger.Get().Named("subscriber")
	}
	if sub.maxBackoff < sub.minBackoff {
		sub.maxBackoff = sub.minBackoff
	}
	return sub
}

// Start begins listening on both collections until ctx ends or Stop is
// called.
func (s *Subscriber) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	for _, c := range []model.Collection{model.Prizes, model.Labels} {
		s.wg.Add(1)
		go func(c model.Collection) {
			defer s.wg.Done()
			s.listen(ctx, c)
		}(c)
	}
}

// Stop ends both listeners and waits for them.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Subscriber) listen(ctx context.Context, c model.Collection) {
	q := store.Query{Collection: string(c), OrderBy: model.OrderKey, Descending: true}
	backoff := s.minBackoff

	for {
		errc := make(chan error, 1)
		var delivered atomic.Bool
		sub, err := s.store.Subscribe(ctx, q,
			func(snap store.Snapshot) {
				delivered.Store(true)
				s.forward(ctx, c, snap)
			},
			func(err error) { errc <- err },
		)
		if err == nil {
			select {
			case <-ctx.Done():
				sub.Cancel()
				<-sub.Done()
				return
			case <-sub.Done():
				select {
				case err = <-errc:
				default:
				}
			}
		}

		if ctx.Err() != nil || errors.Is(err, store.ErrClosed) {
			return
		}
		if err != nil {
			s.report(ctx, c, err)
		}
		if delivered.Load() {
			backoff = s.minBackoff
		}

		metrics.RecordSubscriptionRestart(string(c))
		s.logger.Info(ctx, "resubscribing",
			logger.String("collection", string(c)),
			logger.Duration("backoff", backoff),
		)
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff = min(backoff*2, s.maxBackoff)
	}
}

func (s *Subscriber) report(ctx context.Context, c model.Collection, err error) {
	s.logger.Error(ctx, "subscription failed",
		logger.String("collection", string(c)),
		logger.Error(err),
	)
	if s.notes == nil {
		return
	}
	if c == model.Labels {
		s.notes.Error(ctx, MsgLoadLabelsFailed)
		return
	}
	s.notes.Error(ctx, MsgLoadPrizesFailed)
}

// forward decodes snap and hands it on. Records that do not decode are
// logged and left out; the rest of the snapshot still applies.
func (s *Subscriber) forward(ctx context.Context, c model.Collection, snap store.Snapshot) {
	out := model.Snapshot{Collection: c, ReadAt: snap.ReadAt}
	for _, d := range snap.Docs {
		switch c {
		case model.Prizes:
			p, err := s.codec.DecodePrize(d.ID, d.Data)
			if err != nil {
				s.logger.Warn(ctx, "skipping prize", logger.String("id", d.ID), logger.Error(err))
				continue
			}
			out.Prizes = append(out.Prizes, p)
		case model.Labels:
			l, err := s.codec.DecodeLabel(d.ID, d.Data)
			if err != nil {
				s.logger.Warn(ctx, "skipping label", logger.String("id", d.ID), logger.Error(err))
				continue
			}
			out.Labels = append(out.Labels, l)
		}
	}

	if err := s.out.Enqueue(ctx, out); err != nil && ctx.Err() == nil {
		s.logger.Warn(ctx, "snapshot dropped",
			logger.String("collection", string(c)),
			logger.Error(err),
		)
	}
}
