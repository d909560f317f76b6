package draw

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/internal/domain/notify"
	"github.com/okian/prizewheel/pkg/logger"
	"github.com/okian/prizewheel/pkg/metrics"
)

// Draw outcomes, as recorded in metrics.
const (
	OutcomeWon        = "won"
	OutcomeNoEntries  = "no_entries"
	OutcomeRejected   = "rejected"
	OutcomeCommitFail = "commit_failed"
	OutcomeCanceled   = "canceled"
)

// Prizes looks prizes up in the current state.
type Prizes interface {
	Prize(id string) (model.Prize, bool)
}

// Committer persists a winner. It reports false when the write failed or
// a winner was already stored.
type Committer interface {
	SetWinner(ctx context.Context, prizeID string, winner model.Entry) bool
}

// Result is a committed draw. Prize is the state the draw ran against,
// which is what the announcement shows.
type Result struct {
	Prize  model.Prize `json:"prize"`
	Winner model.Entry `json:"winner"`
	Spin   Spin        `json:"spin"`
}

// Engine runs draws. Concurrent draws of one prize are refused, and a prize
// committed here is refused again even before the state cache catches up.
type Engine struct {
	prizes    Prizes
	committer Committer
	notes     notify.Sink
	source    Source
	animator  *Animator
	turns     int
	duration  time.Duration
	now       func() time.Time
	logger    logger.Logger

	mu        sync.Mutex
	inFlight  map[string]struct{}
	committed map[string]model.Entry
}

// NewEngine returns an engine reading prizes and committing through c.
func NewEngine(prizes Prizes, c Committer, notes notify.Sink, opts ...Option) *Engine {
	e := &Engine{
		prizes:    prizes,
		committer: c,
		notes:     notes,
		source:    DefaultSource,
		turns:     DefaultTurns,
		duration:  DefaultDuration,
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
		committed: make(map[string]model.Entry),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("draw")
	}
	return e
}

// Draw picks and commits a winner for prize id. A prize without entries is
// left untouched and ErrNoEntries is returned without any notification.
func (e *Engine) Draw(ctx context.Context, id string) (Result, error) {
	p, ok := e.prizes.Prize(id)
	if !ok {
		metrics.RecordDraw(OutcomeRejected)
		return Result{}, fmt.Errorf("draw %s: %w", id, ErrPrizeNotFound)
	}

	if err := e.begin(&p); err != nil {
		metrics.RecordDraw(OutcomeRejected)
		return Result{}, fmt.Errorf("draw %s: %w", id, err)
	}
	defer e.end(id)

	entries := p.Entries
	if len(entries) == 0 {
		metrics.RecordDraw(OutcomeNoEntries)
		e.logger.Debug(ctx, "draw skipped, no entries", logger.String("prize", id))
		return Result{}, fmt.Errorf("draw %s: %w", id, ErrNoEntries)
	}
	metrics.RecordDrawEntries(len(entries))

	idx := Pick(e.source, len(entries))
	winner := entries[idx]
	spin := PlanSpin(idx, len(entries), e.turns, e.duration)

	if e.animator != nil {
		start := time.Now()
		err := e.animator.Play(ctx, id, spin)
		metrics.RecordSpinPlayback(time.Since(start))
		if err != nil {
			metrics.RecordDraw(OutcomeCanceled)
			return Result{}, fmt.Errorf("draw %s: %w", id, err)
		}
	}

	if !e.committer.SetWinner(ctx, id, winner) {
		metrics.RecordDraw(OutcomeCommitFail)
		e.logger.Warn(ctx, "winner not saved", logger.String("prize", id))
		return Result{}, fmt.Errorf("draw %s: %w", id, ErrCommitFailed)
	}

	e.mu.Lock()
	e.committed[id] = winner
	e.mu.Unlock()

	metrics.RecordDraw(OutcomeWon)
	e.logger.Info(ctx, "winner drawn",
		logger.String("prize", id),
		logger.String("winner", winner.Name),
		logger.Int("entries", len(entries)),
	)
	if e.notes != nil {
		e.notes.Success(ctx, Announcement(winner))
	}
	return Result{Prize: p, Winner: winner, Spin: spin}, nil
}

// Announcement is the message shown for a new winner.
func Announcement(w model.Entry) string {
	return fmt.Sprintf("Winner is %s!", w.Name)
}

// IsRejection reports whether err means the draw was refused before a
// winner was picked.
func IsRejection(err error) bool {
	return errors.Is(err, ErrPrizeNotFound) ||
		errors.Is(err, ErrAlreadyDecided) ||
		errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrNoEntries) ||
		errors.Is(err, ErrDrawInProgress)
}

func (e *Engine) begin(p *model.Prize) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, done := e.committed[p.ID]; done {
		return ErrAlreadyDecided
	}
	switch Classify(p, e.now()) {
	case Decided:
		return ErrAlreadyDecided
	case Open:
		return ErrNotReady
	}
	if _, busy := e.inFlight[p.ID]; busy {
		return ErrDrawInProgress
	}
	e.inFlight[p.ID] = struct{}{}
	return nil
}

func (e *Engine) end(id string) {
	e.mu.Lock()
	delete(e.inFlight, id)
	e.mu.Unlock()
}
