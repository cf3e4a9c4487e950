package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager against it", func() {
			manager := NewManager(WithRegistry(registry))

			Convey("Then it registers its collectors without panicking", func() {
				So(manager, ShouldNotBeNil)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				// Counters and histograms appear after first use; gauges
				// are present immediately.
				So(len(families), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When creating with custom histogram buckets", func() {
			manager := NewManager(
				WithRegistry(registry),
				WithHistogramBuckets([]float64{1, 10, 100}),
			)
			So(manager, ShouldNotBeNil)
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("The helpers record without panicking", func() {
			So(func() {
				RecordObservationWrite()
				RecordBoardQuery("raw")
				RecordSeriesQuery("period")
				UpdateRegisteredUsers(4)
				RecordCacheHit()
				RecordCacheMiss()
				RecordCacheInvalidation()
				RecordStoreQueryLatency(12.5)
				RecordHTTPRequest("board", "GET", "200")
				RecordHTTPRequestDuration("board", "GET", "200", 3.2)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(10)
			}, ShouldNotPanic)
		})

		Convey("The custom registry is exposed for scraping", func() {
			So(GetRegistry(), ShouldNotBeNil)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
