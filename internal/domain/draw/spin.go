package draw

import (
	"math"
	"math/rand/v2"
	"time"
)

// Wheel defaults.
const (
	DefaultTurns    = 10
	DefaultDuration = 3 * time.Second
)

// Source yields uniform integers in [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource draws from the runtime's shared generator.
var DefaultSource Source = globalSource{}

// Pick returns a uniform index in [0, n). n must be positive.
func Pick(src Source, n int) int {
	if src == nil {
		src = DefaultSource
	}
	return src.IntN(n)
}

// Spin is the wheel animation for one draw. Slice i spans
// [i*SliceWidth, (i+1)*SliceWidth); the wheel comes to rest with the
// centre of the winning slice at the pointer.
type Spin struct {
	Index      int           `json:"index"`
	Slices     int           `json:"slices"`
	SliceWidth float64       `json:"slice_width"`
	Rotation   float64       `json:"rotation"`
	Duration   time.Duration `json:"duration"`
}

// PlanSpin computes the spin that lands on index out of n slices after
// turns full revolutions.
func PlanSpin(index, n, turns int, duration time.Duration) Spin {
	if turns <= 0 {
		turns = DefaultTurns
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	width := 2 * math.Pi / float64(n)
	return Spin{
		Index:      index,
		Slices:     n,
		SliceWidth: width,
		Rotation:   float64(turns)*2*math.Pi + float64(index)*width + width/2,
		Duration:   duration,
	}
}

// EaseOut is the quartic ease-out curve 1-(1-p)^4 with p clamped to [0,1].
func EaseOut(p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	return 1 - math.Pow(1-p, 4)
}

// Progress returns the clamped fraction of the spin elapsed.
func (s Spin) Progress(elapsed time.Duration) float64 {
	if s.Duration <= 0 {
		return 1
	}
	return math.Min(1, math.Max(0, float64(elapsed)/float64(s.Duration)))
}

// RotationAt returns the wheel angle after elapsed.
func (s Spin) RotationAt(elapsed time.Duration) float64 {
	return s.Rotation * EaseOut(s.Progress(elapsed))
}

// Landing returns the slice under the pointer once the wheel rests.
func (s Spin) Landing() int {
	offset := math.Mod(s.Rotation, 2*math.Pi)
	return int(math.Floor(offset / s.SliceWidth))
}
