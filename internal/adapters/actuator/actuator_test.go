package actuator_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/okian/redzone/internal/adapters/actuator"
	"github.com/okian/redzone/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHTTPActuator(t *testing.T) {
	_ = logger.Init()

	Convey("Given a remote-control endpoint", t, func() {
		var (
			hits   atomic.Int32
			status atomic.Int32
			body   atomic.Value
			auth   atomic.Value
		)
		status.Store(http.StatusOK)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			b, _ := io.ReadAll(r.Body)
			body.Store(string(b))
			auth.Store(r.Header.Get("Authorization"))
			w.WriteHeader(int(status.Load()))
		}))
		defer srv.Close()

		a := actuator.NewHTTP(srv.URL, actuator.WithToken("secret"))
		ctx := context.Background()

		Convey("When switching", func() {
			err := a.SwitchTo(ctx, "206")

			Convey("Then the target is posted with the bearer token", func() {
				So(err, ShouldBeNil)
				So(body.Load(), ShouldEqual, `{"target":"206"}`)
				So(auth.Load(), ShouldEqual, "Bearer secret")
			})

			Convey("And switching to the same target again is a no-op", func() {
				So(a.SwitchTo(ctx, "206"), ShouldBeNil)
				So(hits.Load(), ShouldEqual, 1)
			})
		})

		Convey("When the session has expired", func() {
			status.Store(http.StatusUnauthorized)
			err := a.SwitchTo(ctx, "206")
			So(errors.Is(err, actuator.ErrAuthLost), ShouldBeTrue)
		})

		Convey("When the device refuses", func() {
			status.Store(http.StatusServiceUnavailable)
			err := a.SwitchTo(ctx, "206")
			So(errors.Is(err, actuator.ErrRejected), ShouldBeTrue)

			Convey("Then a retry is not suppressed as a no-op", func() {
				status.Store(http.StatusOK)
				So(a.SwitchTo(ctx, "206"), ShouldBeNil)
				So(hits.Load(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given an unreachable endpoint", t, func() {
		a := actuator.NewHTTP("http://127.0.0.1:1/switch")
		err := a.SwitchTo(context.Background(), "206")
		So(errors.Is(err, actuator.ErrRejected), ShouldBeTrue)
	})
}

func TestLogActuator(t *testing.T) {
	_ = logger.Init()

	Convey("Given a dry-run actuator", t, func() {
		a := actuator.NewLog()
		So(a.SwitchTo(context.Background(), "401"), ShouldBeNil)
		So(a.SwitchTo(context.Background(), "402"), ShouldBeNil)
		So(a.Switches(), ShouldResemble, []string{"401", "402"})
	})
}
