package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestPrizeCodec(t *testing.T) {
	convey.Convey("Given a codec in Bangkok time", t, func() {
		loc := time.FixedZone("ICT", 7*3600)
		codec := model.NewCodec(loc)

		convey.Convey("When a prize is encoded and decoded", func() {
			deadline := time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC)
			created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
			in := model.Prize{
				Name:        "Keyboard",
				Description: "Mechanical",
				Images:      []string{"a.png", "b.png"},
				Deadline:    deadline,
				Entries:     []model.Entry{{Name: "A", Twitter: "a"}},
				CreatedAt:   created,
			}

			out, err := codec.DecodePrize("p-1", in.Fields())

			convey.Convey("Then the fields survive in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.ID, convey.ShouldEqual, "p-1")
				convey.So(out.Images, convey.ShouldResemble, []string{"a.png", "b.png"})
				convey.So(out.Deadline.Equal(deadline), convey.ShouldBeTrue)
				convey.So(out.CreatedAt.Equal(created), convey.ShouldBeTrue)
				convey.So(out.Entries, convey.ShouldResemble, []model.Entry{{Name: "A", Twitter: "a"}})
				convey.So(out.Winner, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a legacy record has a single image and a zoneless deadline", func() {
			out, err := codec.DecodePrize("p-2", map[string]any{
				"name":     "Mug",
				"image":    "mug.png",
				"deadline": "2026-10-18T21:30",
				"winner":   map[string]any{"name": "B", "twitter": "b"},
			})

			convey.Convey("Then the image list and deadline are recovered", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.Images, convey.ShouldResemble, []string{"mug.png"})
				convey.So(out.Deadline.UTC(), convey.ShouldEqual, time.Date(2026, 10, 18, 14, 30, 0, 0, time.UTC))
				convey.So(out.Winner, convey.ShouldResemble, &model.Entry{Name: "B", Twitter: "b"})
				convey.So(out.Entries, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the deadline is missing", func() {
			_, err := codec.DecodePrize("p-3", map[string]any{"name": "x"})

			convey.Convey("Then decoding fails as an invalid record", func() {
				convey.So(errors.Is(err, model.ErrInvalidRecord), convey.ShouldBeTrue)
			})
		})
	})
}

func TestLabelCodec(t *testing.T) {
	convey.Convey("Given a label", t, func() {
		created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		in := model.Label{Text: "Free shipping", CreatedAt: created}

		out, err := model.NewCodec(nil).DecodeLabel("l-1", in.Fields())

		convey.So(err, convey.ShouldBeNil)
		convey.So(out.Text, convey.ShouldEqual, "Free shipping")
		convey.So(out.CreatedAt.Equal(created), convey.ShouldBeTrue)
	})
}

func TestTimestamps(t *testing.T) {
	convey.Convey("Given UTC timestamps", t, func() {
		ts := time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC)

		convey.Convey("Then they render like toISOString", func() {
			convey.So(model.FormatTimestamp(ts), convey.ShouldEqual, "2026-03-04T05:06:07.890Z")
			convey.So(model.FormatTimestamp(time.Time{}), convey.ShouldEqual, "")
		})

		convey.Convey("Then earlier timestamps sort first as strings", func() {
			later := ts.Add(time.Hour)
			convey.So(model.FormatTimestamp(ts) < model.FormatTimestamp(later), convey.ShouldBeTrue)
		})

		convey.Convey("Then garbage does not parse", func() {
			_, err := model.ParseTimestamp("next tuesday", time.UTC)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestPrizeClone(t *testing.T) {
	convey.Convey("Given a prize with a winner", t, func() {
		p := model.Prize{Images: []string{"a"}, Entries: []model.Entry{{Name: "A"}}, Winner: &model.Entry{Name: "A"}}
		c := p.Clone()
		c.Images[0] = "z"
		c.Entries[0].Name = "Z"
		c.Winner.Name = "Z"

		convey.So(p.Images[0], convey.ShouldEqual, "a")
		convey.So(p.Entries[0].Name, convey.ShouldEqual, "A")
		convey.So(p.Winner.Name, convey.ShouldEqual, "A")
		convey.So(p.HasWinner(), convey.ShouldBeTrue)
		convey.So(p.CoverImage(), convey.ShouldEqual, "a")
	})
}
