package draw

import (
	"time"

	"github.com/okian/prizewheel/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithSource sets the random source used to pick winners.
func WithSource(src Source) Option {
	return func(e *Engine) {
		if src != nil {
			e.source = src
		}
	}
}

// WithSpin sets the number of full turns and the spin duration.
func WithSpin(turns int, duration time.Duration) Option {
	return func(e *Engine) {
		if turns > 0 {
			e.turns = turns
		}
		if duration > 0 {
			e.duration = duration
		}
	}
}

// WithAnimator plays every spin before the winner is committed.
func WithAnimator(a *Animator) Option {
	return func(e *Engine) {
		e.animator = a
	}
}

// WithClock overrides the time used to classify prizes.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
