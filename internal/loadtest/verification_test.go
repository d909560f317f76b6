package loadtest

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVerifyEntries(t *testing.T) {
	Convey("Given three submitted entries", t, func() {
		ctx := context.Background()
		entries := []Entry{{Name: "a"}, {Name: "b"}, {Name: "c"}}
		stats := &Stats{EntriesAccepted: 3}

		Convey("When all of them are stored", func() {
			list := participantList{Count: 3, Entries: []participant{{Name: "a"}, {Name: "b"}, {Name: "c"}}}
			err := verifyEntries(ctx, entries, list, stats)

			Convey("Then verification passes", func() {
				So(err, ShouldBeNil)
				So(stats.EntriesStored, ShouldEqual, 3)
				So(stats.EntriesMissing, ShouldEqual, 0)
			})
		})

		Convey("When one is lost", func() {
			list := participantList{Count: 2, Entries: []participant{{Name: "a"}, {Name: "c"}}}
			err := verifyEntries(ctx, entries, list, stats)

			Convey("Then the loss is reported", func() {
				So(errors.Is(err, ErrLostEntries), ShouldBeTrue)
				So(stats.EntriesMissing, ShouldEqual, 1)
			})
		})

		Convey("When an entry is stored twice", func() {
			list := participantList{Count: 4, Entries: []participant{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "b"}}}
			err := verifyEntries(ctx, entries, list, stats)

			Convey("Then the duplicate is reported", func() {
				So(errors.Is(err, ErrExtraEntries), ShouldBeTrue)
			})
		})

		Convey("When an unknown entry appears", func() {
			list := participantList{Count: 4, Entries: []participant{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "z"}}}
			err := verifyEntries(ctx, entries, list, stats)

			Convey("Then it is reported", func() {
				So(errors.Is(err, ErrExtraEntries), ShouldBeTrue)
			})
		})
	})
}
