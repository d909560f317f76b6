package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/prizewheel/internal/adapters/store"
	"github.com/okian/prizewheel/internal/adapters/store/sqlite"
	"github.com/smartystreets/goconvey/convey"
)

func entries(t *testing.T, s store.Store, id string) []any {
	t.Helper()
	var out []any
	err := s.Transform(context.Background(), "prizes", id, func(cur map[string]any) (map[string]any, error) {
		out, _ = cur["entries"].([]any)
		return nil, nil
	})
	if err != nil {
		t.Fatalf("read entries: %v", err)
	}
	return out
}

func TestSQLiteStore(t *testing.T) {
	convey.Convey("Given an in-memory sqlite store", t, func() {
		ctx := context.Background()
		s, err := sqlite.Open(ctx, ":memory:")
		convey.So(err, convey.ShouldBeNil)
		defer s.Close()

		id, err := s.Create(ctx, "prizes", map[string]any{
			"name":      "Headphones",
			"images":    []string{"front.png", "back.png"},
			"deadline":  "2026-10-18T07:30:00.000Z",
			"entries":   []any{},
			"winner":    nil,
			"createdAt": "2026-10-01T00:00:00.000Z",
		})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When entries are unioned concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					e := map[string]any{"name": fmt.Sprintf("u%d", i), "twitter": ""}
					_ = s.Update(ctx, "prizes", id, map[string]any{"entries": store.ArrayUnion(e)})
				}(i)
			}
			wg.Wait()

			convey.Convey("Then every entry is persisted", func() {
				convey.So(entries(t, s, id), convey.ShouldHaveLength, 20)
			})
		})

		convey.Convey("When subscribing", func() {
			ch := make(chan store.Snapshot, 16)
			sub, err := s.Subscribe(ctx, store.Query{Collection: "prizes", OrderBy: "createdAt", Descending: true},
				func(snap store.Snapshot) { ch <- snap }, nil)
			convey.So(err, convey.ShouldBeNil)
			defer sub.Cancel()

			convey.Convey("Then images and deadline round-trip in order", func() {
				select {
				case snap := <-ch:
					convey.So(snap.Docs, convey.ShouldHaveLength, 1)
					convey.So(snap.Docs[0].Data["images"], convey.ShouldResemble, []any{"front.png", "back.png"})
					convey.So(snap.Docs[0].Data["deadline"], convey.ShouldEqual, "2026-10-18T07:30:00.000Z")
				case <-time.After(2 * time.Second):
					t.Fatal("no snapshot")
				}
			})

			convey.Convey("Then a delete produces an empty snapshot", func() {
				<-ch
				convey.So(s.Delete(ctx, "prizes", id), convey.ShouldBeNil)
				select {
				case snap := <-ch:
					convey.So(snap.Docs, convey.ShouldBeEmpty)
				case <-time.After(2 * time.Second):
					t.Fatal("no snapshot after delete")
				}
			})
		})

		convey.Convey("When updating a missing document", func() {
			err := s.Update(ctx, "prizes", "missing", map[string]any{"name": "x"})
			convey.So(errors.Is(err, store.ErrNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestSQLiteDurability(t *testing.T) {
	convey.Convey("Given a database file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "prizes.db")

		s, err := sqlite.Open(ctx, path)
		convey.So(err, convey.ShouldBeNil)
		id, err := s.Create(ctx, "labels", map[string]any{"text": "Free shipping"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s.Close(), convey.ShouldBeNil)

		convey.Convey("When it is reopened", func() {
			s2, err := sqlite.Open(ctx, path)
			convey.So(err, convey.ShouldBeNil)
			defer s2.Close()

			convey.Convey("Then the document is still there", func() {
				var text any
				err := s2.Transform(ctx, "labels", id, func(cur map[string]any) (map[string]any, error) {
					text = cur["text"]
					return nil, nil
				})
				convey.So(err, convey.ShouldBeNil)
				convey.So(text, convey.ShouldEqual, "Free shipping")
			})
		})

		convey.Convey("When writing after close", func() {
			_, err := s.Create(ctx, "labels", map[string]any{"text": "x"})
			convey.So(errors.Is(err, store.ErrClosed), convey.ShouldBeTrue)
		})
	})
}
