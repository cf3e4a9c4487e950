// Package ranking assembles board snapshots and chart series from
// per-user observation histories.
package ranking

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/kazuki326/coinboard/internal/domain/model"
	"github.com/kazuki326/coinboard/internal/domain/series"
	"github.com/kazuki326/coinboard/internal/domain/types"
)

// Store is the storage collaborator the assembler reads from.
// Observations come back sorted ascending by date.
type Store interface {
	// ListUsers returns all registered users.
	ListUsers(ctx context.Context) ([]model.User, error)

	// ListObservations returns a user's observations, optionally
	// bounded by [from, to] inclusive. Nil bounds are open.
	ListObservations(ctx context.Context, userID string, from, to *model.Date) ([]model.Observation, error)
}

// Assembler computes rankings. Per-user work has no cross-user
// dependency and is fanned out over a bounded worker pool.
type Assembler struct {
	store   Store
	workers int
}

// Option applies a configuration option to the Assembler.
type Option func(*Assembler)

// WithWorkers bounds the per-request fan-out.
func WithWorkers(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

// New constructs an Assembler reading from store.
func New(store Store, opts ...Option) *Assembler {
	a := &Assembler{
		store:   store,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Board returns one entry per registered user, valued by metric as of
// asOf, sorted by value descending with ties broken by name ascending.
// windowDays is only consulted for the period metric.
func (a *Assembler) Board(ctx context.Context, metric types.Metric, asOf model.Date, windowDays int) ([]types.BoardEntry, error) {
	if err := validateMetric(metric, windowDays); err != nil {
		return nil, err
	}

	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	entries := make([]types.BoardEntry, len(users))
	err = a.forEachUser(ctx, users, func(ctx context.Context, i int, u model.User) error {
		values, err := a.userValues(ctx, u.ID, metric, asOf, asOf, windowDays)
		if err != nil {
			return err
		}
		entries[i] = types.BoardEntry{Name: u.Name, Value: values[0]}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortBoard(entries)
	return entries, nil
}

// Series returns chart lines for the topN users ranked by metric as of
// end. Each line has exactly daysBack points ending at end, however
// sparse the underlying history is. The top-N set is fixed by the end
// snapshot; lower-ranked users are dropped entirely.
func (a *Assembler) Series(ctx context.Context, metric types.Metric, end model.Date, daysBack, topN, windowDays int) ([]types.SeriesEntry, error) {
	if err := validateMetric(metric, windowDays); err != nil {
		return nil, err
	}
	if daysBack < 1 {
		return nil, fmt.Errorf("%w: days %d", ErrInvalidArgument, daysBack)
	}
	if topN < 1 {
		return nil, fmt.Errorf("%w: top %d", ErrInvalidArgument, topN)
	}

	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	start := end.AddDays(-(daysBack - 1))

	type line struct {
		name   string
		values []int
		score  int
	}
	lines := make([]line, len(users))
	err = a.forEachUser(ctx, users, func(ctx context.Context, i int, u model.User) error {
		values, err := a.userValues(ctx, u.ID, metric, start, end, windowDays)
		if err != nil {
			return err
		}
		lines[i] = line{name: u.Name, values: values, score: values[len(values)-1]}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].score != lines[j].score {
			return lines[i].score > lines[j].score
		}
		return lines[i].name < lines[j].name
	})
	if topN < len(lines) {
		lines = lines[:topN]
	}

	out := make([]types.SeriesEntry, len(lines))
	for i, l := range lines {
		points := make([]types.SeriesPoint, daysBack)
		for j := range points {
			points[j] = types.SeriesPoint{Date: start.AddDays(j), Value: l.values[j]}
		}
		out[i] = types.SeriesEntry{Name: l.name, Points: points}
	}
	return out, nil
}

// userValues computes one metric value per day of [start, end] for a
// single user. For the period metric the materialized range is padded
// by windowDays-1 days on the left so every visible point sums a full
// window; the pad is discarded before returning.
func (a *Assembler) userValues(ctx context.Context, userID string, metric types.Metric, start, end model.Date, windowDays int) ([]int, error) {
	prepad := 0
	if metric == types.MetricPeriod {
		prepad = windowDays - 1
	}
	mstart := start.AddDays(-prepad)

	obs, err := a.store.ListObservations(ctx, userID, nil, &end)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	resolved, err := series.Materialize(obs, mstart, end)
	if err != nil {
		return nil, err
	}

	switch metric {
	case types.MetricRaw:
		values := make([]int, len(resolved))
		for i, p := range resolved {
			values[i] = p.Value
		}
		return values, nil

	case types.MetricDaily:
		deltas := series.Deltas(resolved, series.BaselineFor(obs, mstart))
		values := make([]int, len(deltas))
		for i, d := range deltas {
			values[i] = d.Delta
		}
		return values, nil

	case types.MetricPeriod:
		deltas := series.Deltas(resolved, series.BaselineFor(obs, mstart))
		sums, err := series.RollingSum(deltas, windowDays)
		if err != nil {
			return nil, err
		}
		return sums[prepad:], nil

	default:
		return nil, fmt.Errorf("%w: metric %d", ErrInvalidArgument, int(metric))
	}
}

// forEachUser runs fn for every user on a bounded worker pool. The
// first error cancels the remaining work and is returned; no partial
// results escape because the caller discards its output slice on error.
func (a *Assembler) forEachUser(ctx context.Context, users []model.User, fn func(ctx context.Context, i int, u model.User) error) error {
	workers := a.workers
	if workers > len(users) {
		workers = len(users)
	}
	if workers < 1 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	errs := make([]error, len(users))

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					errs[i] = ctx.Err()
					continue
				}
				if err := fn(ctx, i, users[i]); err != nil {
					errs[i] = err
					cancel()
				}
			}
		}()
	}

	for i := range users {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil && err != context.Canceled {
			return err
		}
	}
	return ctx.Err()
}

func validateMetric(metric types.Metric, windowDays int) error {
	switch metric {
	case types.MetricRaw, types.MetricDaily:
		return nil
	case types.MetricPeriod:
		if windowDays < 1 {
			return fmt.Errorf("%w: period window %d", ErrInvalidArgument, windowDays)
		}
		return nil
	default:
		return fmt.Errorf("%w: metric %d", ErrInvalidArgument, int(metric))
	}
}

func sortBoard(entries []types.BoardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Name < entries[j].Name
	})
}
