package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the metrics are registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.cyclesTotal.WithLabelValues("ok").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_cycles_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "redzone")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording cycle metrics", func() {
			before := testutil.ToFloat64(globalManager.cyclesTotal.WithLabelValues("ok"))
			RecordCycle("ok")
			RecordCycleDuration(120)

			Convey("Then the counter increases", func() {
				So(testutil.ToFloat64(globalManager.cyclesTotal.WithLabelValues("ok")), ShouldEqual, before+1)
			})
		})

		Convey("When an event is scored and later evicted", func() {
			UpdateExcitementScore("t-evict", "401", 1290)
			So(testutil.ToFloat64(globalManager.excitementScore.WithLabelValues("t-evict", "401")), ShouldEqual, 1290)
			RecordEventEvicted("t-evict", "401")

			Convey("Then its score series is removed", func() {
				So(strings.Contains(gatherNames(), "t-evict"), ShouldBeFalse)
			})
		})

		Convey("When a tenant is forgotten", func() {
			UpdateEventsTracked("t-gone", 3)
			UpdateExcitementScore("t-gone", "1", 10)
			UpdateExcitementScore("t-gone", "2", 20)
			ForgetTenant("t-gone")

			Convey("Then no series for the tenant remain", func() {
				So(strings.Contains(gatherNames(), "t-gone"), ShouldBeFalse)
			})
		})

		Convey("When recording derivation and actuation metrics", func() {
			So(func() {
				RecordDebounceTransition("timeout", "activated")
				RecordDebounceTransition("score_change", "cleared")
				RecordScoreRegression()
				RecordPlayObserved()
				RecordPossessionTier("play_text")
				RecordProviderError("snapshot")
				RecordProviderLatency(42)
				RecordChannelSwitch("auth_lost")
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				RecordQueueEnqueueError("full")
				UpdateWorkerActiveCount(4)
				RecordWorkerProcessingLatency(12)
				RecordHTTPRequest("ranking", "GET", "200")
				RecordHTTPRequestDuration("ranking", "GET", "200", 3)
				UpdateWSClients(2)
				UpdateTenants(1)
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.playsObserved)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordPlayObserved()
				}
			}()
		}
		wg.Wait()

		Convey("Then every increment is counted", func() {
			So(testutil.ToFloat64(globalManager.playsObserved), ShouldEqual, before+1000)
		})
	})
}

func gatherNames() string {
	families, err := GetRegistry().Gather()
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, f := range families {
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				b.WriteString(l.GetValue())
				b.WriteString(" ")
			}
		}
	}
	return b.String()
}
