package types_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kazuki326/coinboard/internal/domain/types"
)

func TestParseMetric(t *testing.T) {
	Convey("Known modes parse to their metric", t, func() {
		cases := map[string]types.Metric{
			"raw":    types.MetricRaw,
			"daily":  types.MetricDaily,
			"period": types.MetricPeriod,
			"RAW":    types.MetricRaw,
			" daily": types.MetricDaily,
		}
		for in, want := range cases {
			got, err := types.ParseMetric(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}
	})

	Convey("An empty mode defaults to daily", t, func() {
		got, err := types.ParseMetric("")
		So(err, ShouldBeNil)
		So(got, ShouldEqual, types.MetricDaily)
	})

	Convey("Unknown modes are rejected", t, func() {
		_, err := types.ParseMetric("weekly")
		So(err, ShouldNotBeNil)
	})
}

func TestMetricString(t *testing.T) {
	Convey("Metrics render in wire form", t, func() {
		So(types.MetricRaw.String(), ShouldEqual, "raw")
		So(types.MetricDaily.String(), ShouldEqual, "daily")
		So(types.MetricPeriod.String(), ShouldEqual, "period")
		So(types.Metric(99).String(), ShouldEqual, "unknown")
	})
}
