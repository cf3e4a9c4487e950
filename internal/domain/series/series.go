// Package series derives dense daily values from sparse observation
// histories: carry-forward resolution, day-over-day deltas and rolling
// window sums.
//
// Every function here is pure and deterministic. Observation slices
// must be sorted ascending by date; the storage layer returns them
// that way and callers never re-sort.
package series

import (
	"fmt"
	"sort"

	"github.com/kazuki326/coinboard/internal/domain/model"
)

// Resolve returns the value of the latest observation at or before
// asOf, or 0 when none exists. O(log n) binary search.
func Resolve(observations []model.Observation, asOf model.Date) int {
	// First index with date > asOf.
	i := sort.Search(len(observations), func(i int) bool {
		return observations[i].Date.After(asOf)
	})
	if i == 0 {
		return 0
	}
	return observations[i-1].Value
}

// HasBefore reports whether any observation exists strictly before date.
func HasBefore(observations []model.Observation, date model.Date) bool {
	return len(observations) > 0 && observations[0].Date.Before(date)
}

// Materialize expands a sparse observation list into one ResolvedPoint
// per calendar day from start to end inclusive, carrying the last seen
// value forward across gaps. Days before the first observation resolve
// to 0; days after the last observation carry its value indefinitely.
//
// The observation list and the date axis are walked in lockstep, so a
// whole range costs O(n + days) rather than O(n * days).
func Materialize(observations []model.Observation, start, end model.Date) ([]model.ResolvedPoint, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidRange, start, end)
	}

	days := start.DaysUntil(end) + 1
	out := make([]model.ResolvedPoint, 0, days)

	idx, last := 0, 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		for idx < len(observations) && !observations[idx].Date.After(d) {
			last = observations[idx].Value
			idx++
		}
		out = append(out, model.ResolvedPoint{Date: d, Value: last})
	}
	return out, nil
}

// Baseline is the carried-forward value on the day before a
// materialized range. FirstEver marks users with no observation at all
// before the range; FirstDate is then their earliest record, and the
// delta on that day is pinned to 0 by policy rather than computed
// against an arbitrary zero balance.
type Baseline struct {
	Value     int
	FirstEver bool
	FirstDate model.Date
}

// BaselineFor resolves the pre-range baseline for a range starting at
// start.
func BaselineFor(observations []model.Observation, start model.Date) Baseline {
	if !HasBefore(observations, start) {
		b := Baseline{FirstEver: true}
		if len(observations) > 0 {
			b.FirstDate = observations[0].Date
		}
		return b
	}
	return Baseline{Value: Resolve(observations, start.AddDays(-1))}
}

// Deltas turns a dense resolved series into day-over-day changes of
// the same length. Interior points are simple differences; the first
// point is measured against the baseline. For a first-ever record,
// days up to and including FirstDate report 0 wherever FirstDate falls
// in the range, so the same day yields the same delta no matter how
// wide the query is.
func Deltas(resolved []model.ResolvedPoint, baseline Baseline) []model.DeltaPoint {
	out := make([]model.DeltaPoint, len(resolved))
	for i, p := range resolved {
		var delta int
		switch {
		case baseline.FirstEver && !baseline.FirstDate.IsZero() && !p.Date.After(baseline.FirstDate):
			delta = 0
		case i > 0:
			delta = p.Value - resolved[i-1].Value
		default:
			delta = p.Value - baseline.Value
		}
		out[i] = model.DeltaPoint{Date: p.Date, Delta: delta}
	}
	return out
}

// RollingSum computes, for each index i, the sum of deltas over the
// trailing inclusive window [max(0, i-windowDays+1), i]. Single pass
// with a running sum; the element leaving the window is subtracted
// once the window is full.
func RollingSum(deltas []model.DeltaPoint, windowDays int) ([]int, error) {
	if windowDays < 1 {
		return nil, fmt.Errorf("%w: window width %d", ErrInvalidArgument, windowDays)
	}

	out := make([]int, len(deltas))
	sum := 0
	for i, d := range deltas {
		sum += d.Delta
		if i >= windowDays {
			sum -= deltas[i-windowDays].Delta
		}
		out[i] = sum
	}
	return out, nil
}
