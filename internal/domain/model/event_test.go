package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/redzone/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSide(t *testing.T) {
	Convey("Given the three sides", t, func() {
		Convey("Then opposite swaps home and away only", func() {
			So(model.SideHome.Opposite(), ShouldEqual, model.SideAway)
			So(model.SideAway.Opposite(), ShouldEqual, model.SideHome)
			So(model.SideNone.Opposite(), ShouldEqual, model.SideNone)
		})

		Convey("Then sides encode as names in JSON", func() {
			b, err := json.Marshal(map[string]model.Side{"p": model.SideAway})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"p":"away"}`)
		})
	})
}

func TestEventState(t *testing.T) {
	Convey("Given an event state", t, func() {
		e := model.EventState{HomeTeam: "Washington Commanders", AwayTeam: "Dallas Cowboys", HomeScore: 10, AwayScore: 17}

		Convey("Then the score difference is absolute", func() {
			So(e.ScoreDiff(), ShouldEqual, 7)
		})

		Convey("Then team names follow the side", func() {
			So(e.TeamName(model.SideHome), ShouldEqual, "Washington Commanders")
			So(e.TeamName(model.SideAway), ShouldEqual, "Dallas Cowboys")
			So(e.TeamName(model.SideNone), ShouldEqual, "")
		})
	})
}
