package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/prizewheel/internal/adapters/store"
	"github.com/okian/prizewheel/internal/admin"
	service "github.com/okian/prizewheel/internal/app"
	"github.com/okian/prizewheel/internal/config"
	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// recorder keeps every stream event.
type recorder struct {
	mu     sync.Mutex
	events []service.Event
}

func (r *recorder) add(e service.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Type == service.EventNotification {
			out = append(out, e.Notification.Message)
		}
	}
	return out
}

func (r *recorder) count(t service.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func findPrize(svc *service.Service, name string) (service.PrizeCard, bool) {
	for _, c := range svc.Prizes() {
		if c.Name == name {
			return c, true
		}
	}
	return service.PrizeCard{}, false
}

func startService(clk *clock, opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithStore(store.NewMemory(store.WithClock(clk.Now))),
		service.WithClock(clk.Now),
		service.WithLocale("en", time.UTC),
		service.WithSpin(3, 0),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports itself as stopped", func() {
			So(svc, ShouldNotBeNil)
			So(svc.GetStats()["started"], ShouldBeFalse)
		})
	})

	Convey("Given a service with an unsupported locale", t, func() {
		svc := service.New(service.WithLocale("fr-FR", nil))

		Convey("Then it refuses to start", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a started service", t, func() {
		clk := &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
		svc := startService(clk, service.WithQueueSize(8), service.WithDriverName(config.DriverMemory))

		Convey("Then stats describe it", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["driver"], ShouldEqual, config.DriverMemory)
			So(stats["queueSize"], ShouldEqual, 8)
			So(stats["prizes"], ShouldEqual, 0)
			svc.Stop()
		})

		Convey("When starting twice and stopping twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()
			svc.Stop()

			Convey("Then it ends stopped", func() {
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}

func TestService_Draw(t *testing.T) {
	Convey("Given a prize with two entries", t, func() {
		ctx := context.Background()
		clk := &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
		svc := startService(clk)
		defer svc.Stop()

		rec := &recorder{}
		dispose := svc.Listen(rec.add)
		defer dispose()

		deadline := clk.Now().Add(time.Hour)
		So(svc.Console().SubmitPrize(ctx, admin.PrizeForm{
			Name:     "Keyboard",
			Images:   "a.png, b.png",
			Deadline: deadline.Format(time.RFC3339),
		}), ShouldBeTrue)
		So(eventually(func() bool { _, ok := findPrize(svc, "Keyboard"); return ok }), ShouldBeTrue)
		card, _ := findPrize(svc, "Keyboard")

		So(svc.AddEntry(ctx, card.ID, model.Entry{Name: "A", Twitter: "@a"}), ShouldBeNil)
		So(svc.AddEntry(ctx, card.ID, model.Entry{Name: "B", Twitter: "b"}), ShouldBeNil)
		So(eventually(func() bool {
			c, _ := svc.Prize(card.ID)
			return c.EntryCount == 2
		}), ShouldBeTrue)

		Convey("Then the snapshot keeps images and deadline", func() {
			c, err := svc.Prize(card.ID)
			So(err, ShouldBeNil)
			So(c.Images, ShouldResemble, []string{"a.png", "b.png"})
			So(c.Deadline.Equal(deadline), ShouldBeTrue)
			So(c.Status, ShouldEqual, draw.Open)
		})

		Convey("When the draw is attempted before the deadline", func() {
			_, err := svc.Draw(ctx, card.ID)

			Convey("Then it is refused", func() {
				So(errors.Is(err, draw.ErrNotReady), ShouldBeTrue)
			})
		})

		Convey("When the deadline passes and the prize is drawn", func() {
			clk.Advance(2 * time.Hour)

			err := svc.AddEntry(ctx, card.ID, model.Entry{Name: "C"})
			So(errors.Is(err, service.ErrEntriesClosed), ShouldBeTrue)

			board := svc.Console().DrawBoard(clk.Now())
			So(board.Ready, ShouldHaveLength, 1)

			res, err := svc.Draw(ctx, card.ID)
			So(err, ShouldBeNil)

			Convey("Then a winner from the entries is saved and announced", func() {
				So(res.Winner.Name, ShouldBeIn, []string{"A", "B"})
				So(rec.messages(), ShouldContain, draw.Announcement(res.Winner))

				So(eventually(func() bool {
					b := svc.Console().DrawBoard(clk.Now())
					return len(b.Ready) == 0 && len(b.History) == 1
				}), ShouldBeTrue)
				c, _ := svc.Prize(card.ID)
				So(c.Winner, ShouldNotBeNil)
				So(*c.Winner, ShouldResemble, res.Winner)
			})

			Convey("Then drawing it again is rejected", func() {
				_, err := svc.Draw(ctx, card.ID)
				So(errors.Is(err, draw.ErrAlreadyDecided), ShouldBeTrue)
			})
		})
	})

	Convey("Given an expired prize without entries", t, func() {
		ctx := context.Background()
		clk := &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
		svc := startService(clk)
		defer svc.Stop()

		So(svc.Console().SubmitPrize(ctx, admin.PrizeForm{
			Name:     "Mug",
			Deadline: clk.Now().Add(-time.Minute).Format(time.RFC3339),
		}), ShouldBeTrue)
		So(eventually(func() bool { _, ok := findPrize(svc, "Mug"); return ok }), ShouldBeTrue)
		card, _ := findPrize(svc, "Mug")

		rec := &recorder{}
		dispose := svc.Listen(rec.add)
		defer dispose()

		Convey("When it is drawn", func() {
			_, err := svc.Draw(ctx, card.ID)

			Convey("Then nothing happens and nobody is told", func() {
				So(errors.Is(err, draw.ErrNoEntries), ShouldBeTrue)
				time.Sleep(20 * time.Millisecond)
				So(rec.messages(), ShouldBeEmpty)
				c, _ := svc.Prize(card.ID)
				So(c.Winner, ShouldBeNil)
				So(c.Status, ShouldEqual, draw.Ready)
			})
		})
	})
}

func TestService_ConcurrentEntries(t *testing.T) {
	Convey("Given an open prize", t, func() {
		ctx := context.Background()
		clk := &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
		svc := startService(clk)
		defer svc.Stop()

		So(svc.Console().SubmitPrize(ctx, admin.PrizeForm{
			Name:     "Lamp",
			Deadline: clk.Now().Add(time.Hour).Format(time.RFC3339),
		}), ShouldBeTrue)
		So(eventually(func() bool { _, ok := findPrize(svc, "Lamp"); return ok }), ShouldBeTrue)
		card, _ := findPrize(svc, "Lamp")

		Convey("When many people enter at once", func() {
			const n = 25
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = svc.AddEntry(ctx, card.ID, model.Entry{Name: fmt.Sprintf("user-%d", i), Twitter: fmt.Sprintf("u%d", i)})
				}(i)
			}
			wg.Wait()

			Convey("Then no entry is lost", func() {
				So(eventually(func() bool {
					c, _ := svc.Prize(card.ID)
					return c.EntryCount == n
				}), ShouldBeTrue)
			})
		})

		Convey("When an entry has no name", func() {
			err := svc.AddEntry(ctx, card.ID, model.Entry{Name: "  "})
			So(errors.Is(err, service.ErrInvalidEntry), ShouldBeTrue)
		})

		Convey("When the prize does not exist", func() {
			err := svc.AddEntry(ctx, "missing", model.Entry{Name: "A"})
			So(errors.Is(err, service.ErrPrizeNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Gallery(t *testing.T) {
	Convey("Given a prize with three images", t, func() {
		ctx := context.Background()
		clk := &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
		svc := startService(clk)
		defer svc.Stop()

		So(svc.Console().SubmitPrize(ctx, admin.PrizeForm{
			Name:     "Camera",
			Images:   "1.png,2.png,3.png",
			Deadline: clk.Now().Add(time.Hour).Format(time.RFC3339),
		}), ShouldBeTrue)
		So(eventually(func() bool { _, ok := findPrize(svc, "Camera"); return ok }), ShouldBeTrue)
		card, _ := findPrize(svc, "Camera")

		Convey("When stepping back from the first image", func() {
			c, err := svc.StepImage(card.ID, -1)

			Convey("Then it wraps to the last one", func() {
				So(err, ShouldBeNil)
				So(c.ImageIndex, ShouldEqual, 2)
				So(c.Image, ShouldEqual, "3.png")
			})

			Convey("Then the viewer opens on it", func() {
				v, err := svc.OpenViewer(card.ID)
				So(err, ShouldBeNil)
				So(v.Open, ShouldBeTrue)
				So(v.ImageURL, ShouldEqual, "3.png")
				So(svc.CloseViewer().Open, ShouldBeFalse)
			})
		})

		Convey("When selecting past the end", func() {
			_, err := svc.SelectImage(card.ID, 3)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestService_SpinPlayback(t *testing.T) {
	Convey("Given a service streaming spins", t, func() {
		ctx := context.Background()
		clk := &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
		svc := startService(clk, service.WithSpin(2, 50*time.Millisecond), service.WithSpinPlayback(100))
		defer svc.Stop()

		rec := &recorder{}
		dispose := svc.Listen(rec.add)
		defer dispose()

		So(svc.Console().SubmitPrize(ctx, admin.PrizeForm{
			Name:     "Bike",
			Deadline: clk.Now().Add(time.Minute).Format(time.RFC3339),
		}), ShouldBeTrue)
		So(eventually(func() bool { _, ok := findPrize(svc, "Bike"); return ok }), ShouldBeTrue)
		card, _ := findPrize(svc, "Bike")
		So(svc.AddEntry(ctx, card.ID, model.Entry{Name: "Solo"}), ShouldBeNil)
		So(eventually(func() bool { c, _ := svc.Prize(card.ID); return c.EntryCount == 1 }), ShouldBeTrue)
		clk.Advance(time.Hour)

		Convey("When the prize is drawn", func() {
			res, err := svc.Draw(ctx, card.ID)

			Convey("Then frames reach the stream before the winner", func() {
				So(err, ShouldBeNil)
				So(res.Winner.Name, ShouldEqual, "Solo")
				So(rec.count(service.EventSpin), ShouldBeGreaterThan, 1)
				So(rec.count(service.EventChange), ShouldBeGreaterThan, 0)
			})
		})
	})
}
