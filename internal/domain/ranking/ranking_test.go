package ranking_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kazuki326/coinboard/internal/domain/model"
	"github.com/kazuki326/coinboard/internal/domain/ranking"
	"github.com/kazuki326/coinboard/internal/domain/types"
)

// fakeStore serves fixed histories, sorted ascending by date like the
// real stores do.
type fakeStore struct {
	users   []model.User
	history map[string][]model.Observation
	listErr error
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]model.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeStore) ListObservations(ctx context.Context, userID string, from, to *model.Date) ([]model.Observation, error) {
	var out []model.Observation
	for _, o := range f.history[userID] {
		if from != nil && o.Date.Before(*from) {
			continue
		}
		if to != nil && o.Date.After(*to) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func day(d int) model.Date {
	return model.NewDate(2026, time.March, d)
}

func newFixture() *fakeStore {
	return &fakeStore{
		users: []model.User{
			{ID: "u1", Name: "alice"},
			{ID: "u2", Name: "bob"},
			{ID: "u3", Name: "carol"},
		},
		history: map[string][]model.Observation{
			// alice: steady climber, sparse history.
			"u1": {
				{UserID: "u1", Date: day(1), Value: 100},
				{UserID: "u1", Date: day(5), Value: 500},
				{UserID: "u1", Date: day(9), Value: 900},
			},
			// bob: big stale balance, no recent activity.
			"u2": {
				{UserID: "u2", Date: day(1), Value: 2000},
			},
			// carol: first record inside most query ranges.
			"u3": {
				{UserID: "u3", Date: day(8), Value: 600},
				{UserID: "u3", Date: day(10), Value: 650},
			},
		},
	}
}

func TestBoardRaw(t *testing.T) {
	Convey("Given three users with sparse histories", t, func() {
		a := ranking.New(newFixture())

		Convey("When ranking by raw balance as of day 9", func() {
			entries, err := a.Board(context.Background(), types.MetricRaw, day(9), 0)

			Convey("Then carried-forward balances are ranked descending", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []types.BoardEntry{
					{Name: "bob", Value: 2000},
					{Name: "alice", Value: 900},
					{Name: "carol", Value: 600},
				})
			})
		})

		Convey("When ranking as of a day before anyone's first record", func() {
			entries, err := a.Board(context.Background(), types.MetricRaw, day(1).AddDays(-5), 0)

			Convey("Then every balance resolves to 0 and names break the tie", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []types.BoardEntry{
					{Name: "alice", Value: 0},
					{Name: "bob", Value: 0},
					{Name: "carol", Value: 0},
				})
			})
		})
	})
}

func TestBoardDaily(t *testing.T) {
	Convey("Given the fixture histories", t, func() {
		a := ranking.New(newFixture())

		Convey("When ranking by daily change on day 5", func() {
			entries, err := a.Board(context.Background(), types.MetricDaily, day(5), 0)

			Convey("Then gaps produce zero change and writes produce the true diff", func() {
				So(err, ShouldBeNil)
				// alice wrote 500 on day 5 over a carried-forward 100.
				So(entries, ShouldResemble, []types.BoardEntry{
					{Name: "alice", Value: 400},
					{Name: "bob", Value: 0},
					{Name: "carol", Value: 0},
				})
			})
		})

		Convey("When a user's first-ever record lands on the queried day", func() {
			entries, err := a.Board(context.Background(), types.MetricDaily, day(8), 0)

			Convey("Then that day counts as zero change, not a windfall", func() {
				So(err, ShouldBeNil)
				for _, e := range entries {
					So(e.Value, ShouldEqual, 0)
				}
			})
		})
	})
}

func TestBoardPeriod(t *testing.T) {
	Convey("Given the fixture histories", t, func() {
		a := ranking.New(newFixture())

		Convey("When ranking by a 7-day window as of day 9", func() {
			entries, err := a.Board(context.Background(), types.MetricPeriod, day(9), 7)

			Convey("Then window sums cover days 3 through 9", func() {
				So(err, ShouldBeNil)
				// alice gained 800 inside the window (100 -> 900).
				// carol's first-ever record contributes 0, then +0 until day 10.
				// bob has been idle since day 1.
				So(entries, ShouldResemble, []types.BoardEntry{
					{Name: "alice", Value: 800},
					{Name: "bob", Value: 0},
					{Name: "carol", Value: 0},
				})
			})
		})

		Convey("When the period window is missing", func() {
			_, err := a.Board(context.Background(), types.MetricPeriod, day(9), 0)
			So(err, ShouldWrap, ranking.ErrInvalidArgument)
		})
	})
}

func TestSeries(t *testing.T) {
	Convey("Given the fixture histories", t, func() {
		a := ranking.New(newFixture())

		Convey("When charting raw balances for 5 days ending day 10", func() {
			lines, err := a.Series(context.Background(), types.MetricRaw, day(10), 5, 3, 0)

			Convey("Then every line has exactly 5 dated points", func() {
				So(err, ShouldBeNil)
				So(lines, ShouldHaveLength, 3)
				for _, l := range lines {
					So(l.Points, ShouldHaveLength, 5)
					So(l.Points[0].Date.Equal(day(6)), ShouldBeTrue)
					So(l.Points[4].Date.Equal(day(10)), ShouldBeTrue)
				}
			})

			Convey("And lines are ordered by the end snapshot", func() {
				So(lines[0].Name, ShouldEqual, "bob")
				So(lines[1].Name, ShouldEqual, "alice")
				So(lines[2].Name, ShouldEqual, "carol")
			})

			Convey("And gap days are filled by carry-forward", func() {
				alice := lines[1]
				values := make([]int, len(alice.Points))
				for i, p := range alice.Points {
					values[i] = p.Value
				}
				So(values, ShouldResemble, []int{500, 500, 500, 900, 900})
			})
		})

		Convey("When topN is smaller than the user count", func() {
			lines, err := a.Series(context.Background(), types.MetricRaw, day(10), 3, 1, 0)

			Convey("Then only the top line survives", func() {
				So(err, ShouldBeNil)
				So(lines, ShouldHaveLength, 1)
				So(lines[0].Name, ShouldEqual, "bob")
			})
		})

		Convey("When charting the period metric", func() {
			lines, err := a.Series(context.Background(), types.MetricPeriod, day(9), 3, 3, 7)

			Convey("Then each point equals the matching single-day board value", func() {
				So(err, ShouldBeNil)
				for offset := 0; offset < 3; offset++ {
					board, err := a.Board(context.Background(), types.MetricPeriod, day(7).AddDays(offset), 7)
					So(err, ShouldBeNil)
					byName := map[string]int{}
					for _, e := range board {
						byName[e.Name] = e.Value
					}
					for _, l := range lines {
						So(l.Points[offset].Value, ShouldEqual, byName[l.Name])
					}
				}
			})
		})

		Convey("When arguments are out of range", func() {
			_, err := a.Series(context.Background(), types.MetricRaw, day(10), 0, 3, 0)
			So(err, ShouldWrap, ranking.ErrInvalidArgument)

			_, err = a.Series(context.Background(), types.MetricRaw, day(10), 3, 0, 0)
			So(err, ShouldWrap, ranking.ErrInvalidArgument)
		})
	})
}

func TestDeterminism(t *testing.T) {
	Convey("Given a larger user set and a small worker pool", t, func() {
		store := &fakeStore{history: map[string][]model.Observation{}}
		for _, name := range []string{"dave", "erin", "frank", "grace", "heidi", "ivan", "judy", "karl"} {
			id := "id-" + name
			store.users = append(store.users, model.User{ID: id, Name: name})
			store.history[id] = []model.Observation{
				{UserID: id, Date: day(1), Value: len(name) * 100},
				{UserID: id, Date: day(6), Value: len(name) * 150},
			}
		}
		a := ranking.New(store, ranking.WithWorkers(2))

		Convey("Repeated boards over the same data are identical", func() {
			first, err := a.Board(context.Background(), types.MetricRaw, day(7), 0)
			So(err, ShouldBeNil)
			for i := 0; i < 5; i++ {
				again, err := a.Board(context.Background(), types.MetricRaw, day(7), 0)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, first)
			}
		})

		Convey("Equal values rank by name in byte order", func() {
			entries, err := a.Board(context.Background(), types.MetricRaw, day(7), 0)
			So(err, ShouldBeNil)
			// erin, ivan, judy, karl, dave all share 4-letter scores.
			So(entries[len(entries)-5:], ShouldResemble, []types.BoardEntry{
				{Name: "dave", Value: 600},
				{Name: "erin", Value: 600},
				{Name: "ivan", Value: 600},
				{Name: "judy", Value: 600},
				{Name: "karl", Value: 600},
			})
		})
	})
}

func TestErrorPropagation(t *testing.T) {
	Convey("Given a store that fails to list users", t, func() {
		boom := errors.New("connection refused")
		a := ranking.New(&fakeStore{listErr: boom})

		Convey("Board surfaces the failure", func() {
			_, err := a.Board(context.Background(), types.MetricRaw, day(5), 0)
			So(err, ShouldWrap, boom)
		})

		Convey("Series surfaces the failure", func() {
			_, err := a.Series(context.Background(), types.MetricRaw, day(5), 3, 3, 0)
			So(err, ShouldWrap, boom)
		})
	})

	Convey("Given a canceled context", t, func() {
		a := ranking.New(newFixture())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Board reports the cancellation", func() {
			_, err := a.Board(ctx, types.MetricRaw, day(5), 0)
			So(err, ShouldNotBeNil)
		})
	})
}
