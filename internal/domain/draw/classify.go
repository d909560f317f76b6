// Package draw decides prize winners: which prizes can be drawn, the
// uniform pick, the wheel animation plan and the commit.
package draw

import (
	"time"

	"github.com/okian/prizewheel/internal/domain/model"
)

// Status is where a prize stands in its lifecycle.
type Status string

// Prize statuses.
const (
	// Open prizes accept entries until their deadline.
	Open Status = "open"
	// Ready prizes passed their deadline and wait for a draw.
	Ready Status = "ready"
	// Decided prizes have a committed winner.
	Decided Status = "decided"
)

// Classify returns the status of p at now.
func Classify(p *model.Prize, now time.Time) Status {
	switch {
	case p.HasWinner():
		return Decided
	case !now.Before(p.Deadline):
		return Ready
	default:
		return Open
	}
}

// Groups is a partition of prizes by status. Each group keeps input order.
type Groups struct {
	Open    []model.Prize
	Ready   []model.Prize
	Decided []model.Prize
}

// Partition splits prizes by Classify. Every prize lands in exactly one
// group.
func Partition(prizes []model.Prize, now time.Time) Groups {
	var g Groups
	for i := range prizes {
		switch Classify(&prizes[i], now) {
		case Decided:
			g.Decided = append(g.Decided, prizes[i])
		case Ready:
			g.Ready = append(g.Ready, prizes[i])
		default:
			g.Open = append(g.Open, prizes[i])
		}
	}
	return g
}
