package clock_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kazuki326/coinboard/internal/domain/clock"
)

func fixedClock(t *testing.T, hour, minute, second int) *clock.Policy {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	instant := time.Date(2026, time.March, 10, hour, minute, second, 0, loc)
	p, err := clock.New("Asia/Tokyo", clock.WithNow(func() time.Time { return instant }))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestNew(t *testing.T) {
	Convey("Given a valid timezone", t, func() {
		p, err := clock.New("Asia/Tokyo")
		So(err, ShouldBeNil)
		So(p, ShouldNotBeNil)
	})

	Convey("Given an unknown timezone", t, func() {
		_, err := clock.New("Nowhere/Special")
		So(err, ShouldWrap, clock.ErrBadTimezone)
	})
}

func TestDailyClose(t *testing.T) {
	Convey("During the day the current date is mutable", t, func() {
		p := fixedClock(t, 12, 30, 0)

		So(p.IsMutable(), ShouldBeTrue)
		So(p.CurrentDate().String(), ShouldEqual, "2026-03-10")

		Convey("And the finalized date is yesterday", func() {
			So(p.LastFinalizedDate().String(), ShouldEqual, "2026-03-09")
		})
	})

	Convey("At 23:58:59 the day is still mutable", t, func() {
		p := fixedClock(t, 23, 58, 59)
		So(p.IsMutable(), ShouldBeTrue)
		So(p.LastFinalizedDate().String(), ShouldEqual, "2026-03-09")
	})

	Convey("At 23:59:00 the day is closed", t, func() {
		p := fixedClock(t, 23, 59, 0)
		So(p.IsMutable(), ShouldBeFalse)

		Convey("And the finalized date advances to today", func() {
			So(p.LastFinalizedDate().String(), ShouldEqual, "2026-03-10")
		})
	})

	Convey("At 23:59:59 the day remains closed", t, func() {
		p := fixedClock(t, 23, 59, 59)
		So(p.IsMutable(), ShouldBeFalse)
		So(p.LastFinalizedDate().String(), ShouldEqual, "2026-03-10")
	})

	Convey("Just after midnight the new day is mutable again", t, func() {
		loc, err := time.LoadLocation("Asia/Tokyo")
		So(err, ShouldBeNil)
		instant := time.Date(2026, time.March, 11, 0, 0, 0, 0, loc)
		p, err := clock.New("Asia/Tokyo", clock.WithNow(func() time.Time { return instant }))
		So(err, ShouldBeNil)

		So(p.IsMutable(), ShouldBeTrue)
		So(p.CurrentDate().String(), ShouldEqual, "2026-03-11")
		So(p.LastFinalizedDate().String(), ShouldEqual, "2026-03-10")
	})
}
