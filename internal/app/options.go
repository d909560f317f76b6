package service

import (
	"time"

	"github.com/okian/prizewheel/internal/adapters/store"
	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the document store. The service closes it on Stop.
func WithStore(st store.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDriverName records which backend the store is, for stats only.
func WithDriverName(name string) Option {
	return func(s *Service) {
		s.driver = name
	}
}

// WithQueueSize sets how many snapshots may wait for the cache writer.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLocale sets the date locale and the zone deadlines are entered in.
func WithLocale(locale string, loc *time.Location) Option {
	return func(s *Service) {
		if locale != "" {
			s.locale = locale
		}
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithNotificationTTL sets how long notifications stay active.
func WithNotificationTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.notificationTTL = ttl
		}
	}
}

// WithSpin sets the wheel's full turns and spin duration.
func WithSpin(turns int, duration time.Duration) Option {
	return func(s *Service) {
		if turns > 0 {
			s.spinTurns = turns
		}
		if duration >= 0 {
			s.spinDuration = duration
		}
	}
}

// WithSpinPlayback streams spin frames at fps before a winner is saved.
// fps <= 0 disables playback.
func WithSpinPlayback(fps int) Option {
	return func(s *Service) {
		s.spinFPS = fps
	}
}

// WithResubscribeBackoff sets the delay bounds between subscription retries.
func WithResubscribeBackoff(minDelay, maxDelay time.Duration) Option {
	return func(s *Service) {
		if minDelay > 0 && maxDelay >= minDelay {
			s.minBackoff = minDelay
			s.maxBackoff = maxDelay
		}
	}
}

// WithPreviewLength sets the description preview length in the admin list.
func WithPreviewLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.previewLen = n
		}
	}
}

// WithRandomSource sets the source winners are picked with.
func WithRandomSource(src draw.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithClock overrides the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
