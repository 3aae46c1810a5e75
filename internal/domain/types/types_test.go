package types_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/redzone/internal/domain/model"
	types "github.com/okian/redzone/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRankedEvent(t *testing.T) {
	Convey("Given a ranked event", t, func() {
		r := types.RankedEvent{
			Rank:     1,
			EventID:  "401",
			Score:    1195,
			Included: true,
			Reason:   "redzone",
			State:    model.EventState{EventID: "401", Possession: model.SideAway},
		}

		Convey("When encoded for the API", func() {
			b, err := json.Marshal(r)
			So(err, ShouldBeNil)
			var out map[string]any
			So(json.Unmarshal(b, &out), ShouldBeNil)

			Convey("Then the decision surface is visible", func() {
				So(out["rank"], ShouldEqual, 1.0)
				So(out["reason"], ShouldEqual, "redzone")
				state := out["state"].(map[string]any)
				So(state["possession"], ShouldEqual, "away")
				So(state, ShouldNotContainKey, "down")
			})
		})
	})
}
