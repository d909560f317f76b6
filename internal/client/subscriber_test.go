package client_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/prizewheel/internal/adapters/store"
	"github.com/okian/prizewheel/internal/client"
	"github.com/okian/prizewheel/internal/domain/model"
	logging "github.com/okian/prizewheel/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type chanEnqueuer chan model.Snapshot

func (c chanEnqueuer) Enqueue(ctx context.Context, s model.Snapshot) error {
	select {
	case c <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// flakyStore fails the first prize subscription once it has delivered.
type flakyStore struct {
	*store.Memory
	attempts atomic.Int32
}

func (f *flakyStore) Subscribe(ctx context.Context, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (store.Subscription, error) {
	if q.Collection == string(model.Prizes) && f.attempts.Add(1) == 1 {
		return nil, errors.New("listener refused")
	}
	return f.Memory.Subscribe(ctx, q, onSnapshot, onError)
}

func waitSnapshot(t *testing.T, ch <-chan model.Snapshot, pred func(model.Snapshot) bool) model.Snapshot {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case s := <-ch:
			if pred(s) {
				return s
			}
		case <-timeout:
			t.Fatal("snapshot not received")
			return model.Snapshot{}
		}
	}
}

func TestSubscriber(t *testing.T) {
	convey.Convey("Given a subscriber whose first prize listener fails", t, func() {
		_ = logging.Init()
		ctx := context.Background()
		mem := store.NewMemory()
		defer mem.Close()
		fs := &flakyStore{Memory: mem}

		_, err := mem.Create(ctx, string(model.Prizes), map[string]any{
			"name": "Old", "deadline": "2026-10-01T00:00:00.000Z", "createdAt": "2026-09-01T00:00:00.000Z",
		})
		convey.So(err, convey.ShouldBeNil)
		_, err = mem.Create(ctx, string(model.Prizes), map[string]any{"name": "Broken"})
		convey.So(err, convey.ShouldBeNil)
		_, err = mem.Create(ctx, string(model.Labels), map[string]any{"text": "Hello", "createdAt": "2026-09-01T00:00:00.000Z"})
		convey.So(err, convey.ShouldBeNil)

		out := make(chanEnqueuer, 16)
		sink := &recordingSink{}
		sub := client.NewSubscriber(fs, out, sink, model.NewCodec(time.UTC),
			client.WithBackoff(5*time.Millisecond, 20*time.Millisecond))
		sub.Start(ctx)
		defer sub.Stop()

		convey.Convey("Then it reports the failure and recovers", func() {
			prizes := waitSnapshot(t, out, func(s model.Snapshot) bool { return s.Collection == model.Prizes })
			convey.So(prizes.Prizes, convey.ShouldHaveLength, 1)
			convey.So(prizes.Prizes[0].Name, convey.ShouldEqual, "Old")
			convey.So(sink.messages(), convey.ShouldContain, client.MsgLoadPrizesFailed)
			convey.So(fs.attempts.Load(), convey.ShouldBeGreaterThanOrEqualTo, 2)
		})

		convey.Convey("Then labels flow independently", func() {
			labels := waitSnapshot(t, out, func(s model.Snapshot) bool { return s.Collection == model.Labels })
			convey.So(labels.Labels[0].Text, convey.ShouldEqual, "Hello")
		})

		convey.Convey("Then later writes are forwarded", func() {
			_, err := mem.Create(ctx, string(model.Labels), map[string]any{"text": "New", "createdAt": "2026-10-01T00:00:00.000Z"})
			convey.So(err, convey.ShouldBeNil)
			labels := waitSnapshot(t, out, func(s model.Snapshot) bool {
				return s.Collection == model.Labels && len(s.Labels) == 2
			})
			convey.So(labels.Labels, convey.ShouldHaveLength, 2)
		})
	})
}

func TestSubscriberStop(t *testing.T) {
	convey.Convey("Given a running subscriber", t, func() {
		_ = logging.Init()
		mem := store.NewMemory()
		defer mem.Close()
		sub := client.NewSubscriber(mem, make(chanEnqueuer, 16), nil, model.NewCodec(nil))
		sub.Start(context.Background())

		convey.Convey("When stopped", func() {
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				sub.Stop()
			}()
			done := make(chan struct{})
			go func() { wg.Wait(); close(done) }()

			convey.Convey("Then Stop returns promptly", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					t.Fatal("Stop did not return")
				}
			})
		})
	})
}
