package metrics

import (
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
				WithSubsystem("pow"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector is registered there", func() {
				So(manager, ShouldNotBeNil)
				manager.eventsSeen.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_pow_events_seen_total")
			})
		})

		Convey("When empty options are given", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "popow")
				So(manager.subsystem, ShouldEqual, "ranking")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording ingestion metrics", func() {
			before := testutil.ToFloat64(globalManager.eventsSeen)
			RecordEventSeen()
			RecordEventSeen()
			RecordEventQualifying(21)
			RecordEventMalformed()
			RecordEventDuplicate()
			UpdateMaxDifficulty(21)
			UpdateRankedSize(4)
			RecordSnapshotLoad(120)

			Convey("Then the counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.eventsSeen), ShouldEqual, before+2)
				So(testutil.ToFloat64(globalManager.maxDifficulty), ShouldEqual, 21)
				So(testutil.ToFloat64(globalManager.rankedSize), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.snapshotSize), ShouldEqual, 120)
			})
		})

		Convey("When the connectivity state changes", func() {
			UpdateConnectivityState("connected")

			Convey("Then exactly one state is flagged", func() {
				So(testutil.ToFloat64(globalManager.connectivityState.WithLabelValues("connected")), ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.connectivityState.WithLabelValues("connecting")), ShouldEqual, 0)
				So(testutil.ToFloat64(globalManager.connectivityState.WithLabelValues("disconnected")), ShouldEqual, 0)
			})
		})

		Convey("When recording operational metrics", func() {
			So(func() {
				RecordConnectivityFailure("connect")
				UpdateQueueSize(10)
				UpdateQueueCapacity(1000)
				UpdateWorkerCount(1)
				RecordWorkerProcessingLatency(0.2)
				RecordHTTPRequest("view", "GET", "200")
				RecordHTTPRequestDuration("view", "GET", "200", 1.5)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.eventsDuplicate)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordEventDuplicate()
				}
			}()
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			So(testutil.ToFloat64(globalManager.eventsDuplicate), ShouldEqual, before+1000)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
		_, err := GetRegistry().Gather()
		So(err, ShouldBeNil)
	})
}
