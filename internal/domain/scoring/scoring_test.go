package scoring_test

import (
	"testing"

	model "github.com/okian/redzone/internal/domain/model"
	scoring "github.com/okian/redzone/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v int) *int { return &v }

// quiet is a first-quarter blowout: no bonus applies.
func quiet() model.EventState {
	return model.EventState{EventID: "1", HomeScore: 21, AwayScore: 0, Quarter: 1, ClockSeconds: 600}
}

func TestScoreRedzone(t *testing.T) {
	Convey("Given an event in the redzone", t, func() {
		e := quiet()
		e.InRedzone = true
		e.YardsToEndzone = ptr(11)

		Convey("Then base and proximity are added", func() {
			b := scoring.Score(e)
			So(b.RedzoneBase, ShouldEqual, 1000)
			So(b.RedzoneProximity, ShouldEqual, 190)
			So(b.Total, ShouldEqual, 1190)
		})

		Convey("When the yard line is unknown", func() {
			e.YardsToEndzone = nil
			So(scoring.Score(e).Total, ShouldEqual, 1000)
		})

		Convey("When the flag holds beyond 30 yards", func() {
			e.YardsToEndzone = ptr(35)
			So(scoring.Score(e).RedzoneProximity, ShouldEqual, 0)
		})

		Convey("When it is 4th and 1", func() {
			e.Down, e.Distance = ptr(4), ptr(1)
			b := scoring.Score(e)
			So(b.FourthDown, ShouldEqual, 500)
			So(b.Penalty, ShouldEqual, 0)
		})

		Convey("When it is 4th and 3", func() {
			e.Down, e.Distance = ptr(4), ptr(3)
			So(scoring.Score(e).FourthDown, ShouldEqual, 300)
		})

		Convey("When it is 4th and 4", func() {
			e.Down, e.Distance = ptr(4), ptr(4)
			So(scoring.Score(e).FourthDown, ShouldEqual, 0)
		})
	})
}

func TestScoreCloseness(t *testing.T) {
	Convey("Given score differences at the tier boundaries", t, func() {
		cases := []struct {
			diff int
			want float64
		}{
			{0, 1000}, {3, 1000}, {4, 500}, {7, 500}, {8, 200}, {10, 200}, {11, 50}, {14, 50}, {15, 0},
		}
		for _, c := range cases {
			e := quiet()
			e.HomeScore, e.AwayScore = 0, c.diff
			So(scoring.Score(e).Closeness, ShouldEqual, c.want)
		}
	})
}

func TestScoreHighScoringAndLateGame(t *testing.T) {
	Convey("Given a high scoring game", t, func() {
		e := quiet()
		e.HomeScore, e.AwayScore = 28, 24

		Convey("Then total points are weighted", func() {
			b := scoring.Score(e)
			So(b.HighScoring, ShouldEqual, 520)
			So(b.Closeness, ShouldEqual, 500)
		})

		Convey("When the total is exactly 40", func() {
			e.HomeScore, e.AwayScore = 20, 20
			So(scoring.Score(e).HighScoring, ShouldEqual, 0)
		})
	})

	Convey("Given the fourth quarter", t, func() {
		e := quiet()
		e.Quarter = 4

		Convey("Then the bonus grows as the clock runs out", func() {
			e.ClockSeconds = 300
			So(scoring.Score(e).LateGame, ShouldEqual, 30)
			e.ClockSeconds = 0
			So(scoring.Score(e).LateGame, ShouldEqual, 45)
			e.ClockSeconds = 900
			So(scoring.Score(e).LateGame, ShouldEqual, 0)
		})

		Convey("Then other quarters get nothing", func() {
			e.Quarter = 3
			e.ClockSeconds = 0
			So(scoring.Score(e).LateGame, ShouldEqual, 0)
		})
	})
}

func TestScorePenalty(t *testing.T) {
	Convey("Given commercial conditions", t, func() {
		e := quiet()

		Convey("When a timeout and a score change are both active", func() {
			e.Timeout.Active = true
			e.ScoreChange.Active = true
			b := scoring.Score(e)

			Convey("Then only the timeout penalty applies", func() {
				So(b.Penalty, ShouldEqual, 500)
				So(b.PenaltyKind, ShouldEqual, scoring.PenaltyTimeout)
				So(b.Total, ShouldEqual, -500)
			})
		})

		Convey("When only a score change is active on a 4th down", func() {
			e.ScoreChange.Active = true
			e.Down = ptr(4)
			So(scoring.Score(e).Penalty, ShouldEqual, 400)
		})

		Convey("When it is 4th down outside the redzone", func() {
			e.Down, e.Distance = ptr(4), ptr(1)
			b := scoring.Score(e)
			So(b.PenaltyKind, ShouldEqual, scoring.PenaltyFourthDown)
			So(b.FourthDown, ShouldEqual, 0)
			So(b.Total, ShouldEqual, -300)
		})
	})
}

func TestScoreDeterminism(t *testing.T) {
	Convey("Given the same state scored twice", t, func() {
		e := quiet()
		e.InRedzone = true
		e.YardsToEndzone = ptr(5)
		e.Quarter, e.ClockSeconds = 4, 125
		e.HomeScore, e.AwayScore = 20, 17

		Convey("Then the breakdowns are identical", func() {
			So(scoring.Score(e), ShouldResemble, scoring.Score(e))
		})
	})
}
