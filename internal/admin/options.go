package admin

import (
	"time"

	"github.com/okian/prizewheel/pkg/logger"
)

// Option configures a Controller.
type Option func(*Controller)

// WithPreviewLength sets how many characters of a description the prize
// list shows before truncating.
func WithPreviewLength(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.previewLen = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}
