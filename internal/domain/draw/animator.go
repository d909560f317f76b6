package draw

import (
	"context"
	"time"
)

const defaultFPS = 30

// Frame is one rendered position of the wheel.
type Frame struct {
	PrizeID  string  `json:"prize_id"`
	Rotation float64 `json:"rotation"`
	Progress float64 `json:"progress"`
	Done     bool    `json:"done"`
}

// FrameSink receives frames in order.
type FrameSink func(Frame)

// Animator plays a spin in real time. It is cosmetic: the outcome is fixed
// before playback starts.
type Animator struct {
	fps  int
	sink FrameSink
}

// NewAnimator returns an animator emitting fps frames per second to sink.
func NewAnimator(fps int, sink FrameSink) *Animator {
	if fps <= 0 {
		fps = defaultFPS
	}
	return &Animator{fps: fps, sink: sink}
}

// Play emits frames until the spin completes or ctx ends. The last frame
// has Done set and the full rotation.
func (a *Animator) Play(ctx context.Context, prizeID string, s Spin) error {
	ticker := time.NewTicker(time.Second / time.Duration(a.fps))
	defer ticker.Stop()

	start := time.Now()
	for {
		elapsed := time.Since(start)
		p := s.Progress(elapsed)
		done := p >= 1
		if a.sink != nil {
			a.sink(Frame{PrizeID: prizeID, Rotation: s.RotationAt(elapsed), Progress: p, Done: done})
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
