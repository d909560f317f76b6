package client

import (
	"time"

	"github.com/okian/prizewheel/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithBackoff sets the first and the largest delay between resubscribes.
func WithBackoff(minDelay, maxDelay time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		if minDelay > 0 {
			s.minBackoff = minDelay
		}
		if maxDelay > 0 {
			s.maxBackoff = maxDelay
		}
	}
}

// WithSubscriberLogger sets the subscriber's logger.
func WithSubscriberLogger(l logger.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}
