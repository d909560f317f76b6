package draw_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/model"
	logging "github.com/okian/prizewheel/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type prizeTable map[string]model.Prize

func (t prizeTable) Prize(id string) (model.Prize, bool) {
	p, ok := t[id]
	return p, ok
}

type fakeCommitter struct {
	mu      sync.Mutex
	fail    bool
	calls   int
	winners map[string]model.Entry
	gate    chan struct{}
}

func (f *fakeCommitter) SetWinner(_ context.Context, id string, w model.Entry) bool {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return false
	}
	if f.winners == nil {
		f.winners = map[string]model.Entry{}
	}
	f.winners[id] = w
	return true
}

type notes struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (n *notes) Success(_ context.Context, msg string) {
	n.mu.Lock()
	n.success = append(n.success, msg)
	n.mu.Unlock()
}

func (n *notes) Error(_ context.Context, msg string) {
	n.mu.Lock()
	n.failures = append(n.failures, msg)
	n.mu.Unlock()
}

type fixedSource int

func (f fixedSource) IntN(int) int { return int(f) }

func TestEngine(t *testing.T) {
	convey.Convey("Given an engine over a few prizes", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
		entries := []model.Entry{{Name: "A", Twitter: "a"}, {Name: "B", Twitter: "b"}, {Name: "C", Twitter: "c"}}
		table := prizeTable{
			"ready":   {ID: "ready", Name: "Lamp", Deadline: now.Add(-time.Minute), Entries: entries, Images: []string{"lamp.png"}},
			"empty":   {ID: "empty", Deadline: now.Add(-time.Minute), Entries: []model.Entry{}},
			"open":    {ID: "open", Deadline: now.Add(time.Hour), Entries: entries},
			"decided": {ID: "decided", Deadline: now.Add(-time.Hour), Entries: entries, Winner: &entries[0]},
		}
		committer := &fakeCommitter{}
		sink := &notes{}
		engine := draw.NewEngine(table, committer, sink,
			draw.WithSource(fixedSource(1)),
			draw.WithClock(func() time.Time { return now }),
		)

		convey.Convey("When a ready prize is drawn", func() {
			res, err := engine.Draw(ctx, "ready")

			convey.Convey("Then the picked entry is committed and announced", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(res.Winner, convey.ShouldResemble, entries[1])
				convey.So(res.Prize.Name, convey.ShouldEqual, "Lamp")
				convey.So(res.Spin.Landing(), convey.ShouldEqual, 1)
				convey.So(committer.winners["ready"], convey.ShouldResemble, entries[1])
				convey.So(sink.success, convey.ShouldResemble, []string{"Winner is B!"})
			})

			convey.Convey("Then drawing it again is refused before the cache catches up", func() {
				_, err := engine.Draw(ctx, "ready")
				convey.So(errors.Is(err, draw.ErrAlreadyDecided), convey.ShouldBeTrue)
				convey.So(committer.calls, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a prize without entries is drawn", func() {
			_, err := engine.Draw(ctx, "empty")

			convey.Convey("Then nothing happens and nobody is told", func() {
				convey.So(errors.Is(err, draw.ErrNoEntries), convey.ShouldBeTrue)
				convey.So(committer.calls, convey.ShouldEqual, 0)
				convey.So(sink.success, convey.ShouldBeEmpty)
				convey.So(sink.failures, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When prizes are not drawable", func() {
			_, errOpen := engine.Draw(ctx, "open")
			_, errDecided := engine.Draw(ctx, "decided")
			_, errMissing := engine.Draw(ctx, "nope")

			convey.Convey("Then each is refused with its reason", func() {
				convey.So(errors.Is(errOpen, draw.ErrNotReady), convey.ShouldBeTrue)
				convey.So(errors.Is(errDecided, draw.ErrAlreadyDecided), convey.ShouldBeTrue)
				convey.So(errors.Is(errMissing, draw.ErrPrizeNotFound), convey.ShouldBeTrue)
				convey.So(draw.IsRejection(errOpen), convey.ShouldBeTrue)
				convey.So(committer.calls, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the commit fails", func() {
			committer.fail = true
			_, err := engine.Draw(ctx, "ready")

			convey.Convey("Then no winner is announced and the prize stays drawable", func() {
				convey.So(errors.Is(err, draw.ErrCommitFailed), convey.ShouldBeTrue)
				convey.So(draw.IsRejection(err), convey.ShouldBeFalse)
				convey.So(sink.success, convey.ShouldBeEmpty)

				committer.fail = false
				_, err = engine.Draw(ctx, "ready")
				convey.So(err, convey.ShouldBeNil)
			})
		})

		convey.Convey("When two draws of one prize overlap", func() {
			committer.gate = make(chan struct{})
			first := make(chan error, 1)
			go func() {
				_, err := engine.Draw(ctx, "ready")
				first <- err
			}()
			time.Sleep(20 * time.Millisecond)
			_, second := engine.Draw(ctx, "ready")
			close(committer.gate)

			convey.Convey("Then the second is refused", func() {
				convey.So(errors.Is(second, draw.ErrDrawInProgress), convey.ShouldBeTrue)
				convey.So(<-first, convey.ShouldBeNil)
			})
		})
	})
}
