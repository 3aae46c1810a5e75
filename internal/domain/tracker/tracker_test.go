package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/redzone/internal/domain/model"
	"github.com/okian/redzone/internal/domain/tracker"
	"github.com/okian/redzone/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2025, 9, 7, 20, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func payload(home, away int, play model.Play) model.Payload {
	return model.Payload{
		EventID: "401",
		League:  "nfl",
		Home:    model.Competitor{ID: "28", Name: "Washington Commanders", Abbrev: "WSH", Score: ptr(home)},
		Away:    model.Competitor{ID: "6", Name: "Dallas Cowboys", Abbrev: "DAL", Score: ptr(away)},
		Period:  ptr(4),
		Clock:   ptr("6:30"),
		Situation: &model.Situation{
			PossessionText:   ptr("DAL 11"),
			DownDistanceText: ptr("2nd & 7 at WSH 11"),
			IsRedZone:        ptr(true),
			LastPlay:         &play,
		},
	}
}

var rush = model.Play{ID: "p1", Text: "R.Dowdle up the middle to WSH 11 for 4 yards", Type: "Rush", TeamID: "6", DriveEnd: "WSH 11"}

func newTracker() *tracker.Tracker {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	return tracker.New(tracker.WithTenant("test"))
}

func TestApplyPipeline(t *testing.T) {
	Convey("Given a tracker", t, func() {
		tr := newTracker()
		ctx := context.Background()

		Convey("When a redzone snapshot is applied", func() {
			s := tr.Apply(ctx, payload(14, 17, rush), t0)

			Convey("Then every derived signal is set", func() {
				So(s.HomeScore, ShouldEqual, 14)
				So(s.AwayScore, ShouldEqual, 17)
				So(s.Quarter, ShouldEqual, 4)
				So(s.ClockSeconds, ShouldEqual, 390)
				So(*s.Down, ShouldEqual, 2)
				So(*s.Distance, ShouldEqual, 7)
				So(s.Possession, ShouldEqual, model.SideAway)
				So(s.PossessionTier, ShouldEqual, "possession_text")
				So(s.InRedzone, ShouldBeTrue)
				So(s.RedzoneTeam, ShouldEqual, "Dallas Cowboys")
				So(*s.YardsToEndzone, ShouldEqual, 11)
				So(s.LastRedzoneAt, ShouldEqual, t0)
				So(s.LastPlayAt, ShouldEqual, t0)
				So(s.Timeout.Active, ShouldBeFalse)
				So(s.ScoreChange.Active, ShouldBeFalse)
				So(s.Live, ShouldBeTrue)
				So(s.Stale, ShouldBeFalse)
				So(s.EndOfPeriod, ShouldBeFalse)
				// 1000 + 190 + 1000 (diff 3) + 25.5 late game
				So(s.Excitement, ShouldAlmostEqual, 2215.5, 0.001)
				b, ok := tr.Breakdown("401")
				So(ok, ShouldBeTrue)
				So(b.Total, ShouldEqual, s.Excitement)
			})

			Convey("And the same snapshot again changes nothing", func() {
				again := tr.Apply(ctx, payload(14, 17, rush), t0.Add(15*time.Second))
				So(again.Timeout, ShouldResemble, s.Timeout)
				So(again.ScoreChange, ShouldResemble, s.ScoreChange)
				So(again.LastPlayAt, ShouldEqual, s.LastPlayAt)
				So(again.LastRedzoneAt, ShouldEqual, s.LastRedzoneAt)
				So(again.InRedzone, ShouldEqual, s.InRedzone)
				So(again.Excitement, ShouldEqual, s.Excitement)
				So(again.HomeScore, ShouldEqual, s.HomeScore)
			})

			Convey("And a snapshot without situation keeps the previous signals", func() {
				p := payload(14, 17, rush)
				p.Situation = nil
				next := tr.Apply(ctx, p, t0.Add(30*time.Second))
				So(next.InRedzone, ShouldBeTrue)
				So(next.Possession, ShouldEqual, model.SideAway)
				So(*next.Down, ShouldEqual, 2)
				So(next.LastPlayID, ShouldEqual, "p1")
			})
		})
	})
}

func TestApplyTimeout(t *testing.T) {
	Convey("Given a timeout play", t, func() {
		tr := newTracker()
		ctx := context.Background()
		timeout := model.Play{ID: "p2", Text: "Timeout #2 by WSH at 06:30.", Type: "Timeout", DriveEnd: "WSH 11"}
		s := tr.Apply(ctx, payload(14, 17, timeout), t0)

		Convey("Then the timeout is active and penalised", func() {
			So(s.Timeout.Active, ShouldBeTrue)
			So(s.Timeout.PlayID, ShouldEqual, "p2")
			b, _ := tr.Breakdown("401")
			So(b.Penalty, ShouldEqual, 500)
		})

		Convey("When no new play arrives for 119 seconds", func() {
			s = tr.Apply(ctx, payload(14, 17, timeout), t0.Add(119*time.Second))
			So(s.Timeout.Active, ShouldBeTrue)

			Convey("Then it expires after 121 seconds and stays expired", func() {
				s = tr.Apply(ctx, payload(14, 17, timeout), t0.Add(121*time.Second))
				So(s.Timeout.Active, ShouldBeFalse)
				s = tr.Apply(ctx, payload(14, 17, timeout), t0.Add(125*time.Second))
				So(s.Timeout.Active, ShouldBeFalse)
			})
		})

		Convey("When the next play arrives", func() {
			s = tr.Apply(ctx, payload(14, 17, rush), t0.Add(40*time.Second))
			So(s.Timeout.Active, ShouldBeFalse)
		})
	})
}

func TestApplyScoreChange(t *testing.T) {
	Convey("Given a baseline score", t, func() {
		tr := newTracker()
		ctx := context.Background()
		s := tr.Apply(ctx, payload(14, 17, rush), t0)
		So(s.ScoreChange.Active, ShouldBeFalse)

		Convey("When a touchdown is scored", func() {
			td := model.Play{ID: "p3", Text: "R.Dowdle 11 yard rush for a TOUCHDOWN", Type: "Rushing Touchdown", DriveEnd: "WSH 0"}
			s = tr.Apply(ctx, payload(14, 23, td), t0.Add(30*time.Second))

			Convey("Then the score-change debounce records the previous pair", func() {
				So(s.ScoreChange.Active, ShouldBeTrue)
				So(s.ScoreChange.PrevHome, ShouldEqual, 14)
				So(s.ScoreChange.PrevAway, ShouldEqual, 17)
				So(s.ScoreRegression, ShouldBeFalse)
			})

			Convey("And it clears 31 seconds later", func() {
				s = tr.Apply(ctx, payload(14, 23, td), t0.Add(61*time.Second))
				So(s.ScoreChange.Active, ShouldBeFalse)
			})
		})

		Convey("When the score goes down", func() {
			s = tr.Apply(ctx, payload(7, 17, rush), t0.Add(30*time.Second))

			Convey("Then the data error is flagged and the value kept", func() {
				So(s.ScoreRegression, ShouldBeTrue)
				So(s.HomeScore, ShouldEqual, 7)
			})
		})
	})
}

func TestEndOfPeriod(t *testing.T) {
	Convey("Given period boundaries", t, func() {
		tr := newTracker()
		ctx := context.Background()

		Convey("When the play says the quarter ended", func() {
			end := model.Play{ID: "p9", Text: "END QUARTER 3", Type: "End Period"}
			p := payload(14, 17, end)
			p.Period = ptr(3)
			s := tr.Apply(ctx, p, t0)
			So(s.EndOfPeriod, ShouldBeTrue)
		})

		Convey("When the clock reads 0:00", func() {
			p := payload(14, 17, rush)
			p.Clock = ptr("0:00")
			s := tr.Apply(ctx, p, t0)
			So(s.EndOfPeriod, ShouldBeTrue)
		})
	})
}

func TestLifecycle(t *testing.T) {
	Convey("Given the live list", t, func() {
		tr := newTracker()
		ctx := context.Background()
		evicted := tr.Sync(ctx, []string{"401", "402"})

		Convey("Then new events get stale placeholders", func() {
			So(evicted, ShouldBeEmpty)
			So(tr.Len(), ShouldEqual, 2)
			s, ok := tr.Get("402")
			So(ok, ShouldBeTrue)
			So(s.Stale, ShouldBeTrue)
			So(s.Live, ShouldBeTrue)
		})

		Convey("When a snapshot arrives the event is fresh", func() {
			s := tr.Apply(ctx, payload(0, 0, rush), t0)
			So(s.Stale, ShouldBeFalse)

			Convey("And a failed fetch marks it stale without losing state", func() {
				tr.MarkStale("401")
				s, _ = tr.Get("401")
				So(s.Stale, ShouldBeTrue)
				So(s.InRedzone, ShouldBeTrue)
			})
		})

		Convey("When the live list cannot be read", func() {
			tr.Apply(ctx, payload(0, 0, rush), t0)
			tr.MarkUnlisted()

			Convey("Then events are kept but no longer confirmed live", func() {
				So(tr.Len(), ShouldEqual, 2)
				s, _ := tr.Get("401")
				So(s.Live, ShouldBeFalse)
				So(s.InRedzone, ShouldBeTrue)
			})

			Convey("And a fresh snapshot alone does not confirm liveness", func() {
				s := tr.Apply(ctx, payload(0, 3, rush), t0.Add(time.Minute))
				So(s.Live, ShouldBeFalse)
			})

			Convey("And the next listing confirms them again", func() {
				tr.Sync(ctx, []string{"401", "402"})
				s, _ := tr.Get("401")
				So(s.Live, ShouldBeTrue)
			})
		})

		Convey("When an event leaves the list", func() {
			evicted = tr.Sync(ctx, []string{"402"})

			Convey("Then it is discarded", func() {
				So(evicted, ShouldResemble, []string{"401"})
				_, ok := tr.Get("401")
				So(ok, ShouldBeFalse)
				So(tr.States(), ShouldHaveLength, 1)
			})
		})

		Convey("When the tracker is reset", func() {
			tr.Reset(ctx)
			So(tr.Len(), ShouldEqual, 0)
		})
	})
}
