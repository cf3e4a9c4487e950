// Package types contains common types used across the application.
package types

import (
	"fmt"
	"strings"

	"github.com/kazuki326/coinboard/internal/domain/model"
)

// Metric selects how a user's board value is computed. It is a closed
// set; free-form strings are rejected at the parsing boundary.
type Metric int

const (
	// MetricRaw is the carried-forward balance as of the board date.
	MetricRaw Metric = iota
	// MetricDaily is the day-over-day change on the board date.
	MetricDaily
	// MetricPeriod is the rolling sum of daily changes over a trailing
	// window ending on the board date.
	MetricPeriod
)

// ParseMetric maps a wire-level mode string to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw":
		return MetricRaw, nil
	case "", "daily":
		return MetricDaily, nil
	case "period":
		return MetricPeriod, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// String renders the metric in its wire form.
func (m Metric) String() string {
	switch m {
	case MetricRaw:
		return "raw"
	case MetricDaily:
		return "daily"
	case MetricPeriod:
		return "period"
	default:
		return "unknown"
	}
}

// BoardEntry is one ranked row of a board snapshot.
type BoardEntry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// SeriesPoint is one dated value of a user's chart line.
type SeriesPoint struct {
	Date  model.Date `json:"date_ymd"`
	Value int        `json:"value"`
}

// SeriesEntry is one user's full chart line, one point per calendar
// day of the requested range.
type SeriesEntry struct {
	Name   string        `json:"name"`
	Points []SeriesPoint `json:"points"`
}
