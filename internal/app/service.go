// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/kazuki326/coinboard/internal/adapters/cache"
	"github.com/kazuki326/coinboard/internal/adapters/repository"
	"github.com/kazuki326/coinboard/internal/database"
	"github.com/kazuki326/coinboard/internal/domain/clock"
	"github.com/kazuki326/coinboard/internal/domain/model"
	"github.com/kazuki326/coinboard/internal/domain/ranking"
	"github.com/kazuki326/coinboard/internal/domain/types"
	"github.com/kazuki326/coinboard/pkg/logger"
	"github.com/kazuki326/coinboard/pkg/metrics"
)

// Service orchestrates the clock, store, cache and ranking assembler
// behind the HTTP API.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	clock     *clock.Policy
	cache     cache.Cache
	assembler *ranking.Assembler

	// Configuration
	timezone          string
	databaseURL       string
	cacheTTL          time.Duration
	rankingWorkers    int
	defaultPeriodDays int
	maxSeriesDays     int
	maxSeriesTop      int
	maxHistoryDays    int
	allowPastEdits    bool
	pastEditMaxDays   int

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimezone sets the IANA zone for the daily close.
func WithTimezone(tz string) Option {
	return func(s *Service) {
		if tz != "" {
			s.timezone = tz
		}
	}
}

// WithDatabaseURL selects the Postgres store.
func WithDatabaseURL(url string) Option {
	return func(s *Service) { s.databaseURL = url }
}

// WithCacheTTL sets the result cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithRankingWorkers bounds the per-request fan-out.
func WithRankingWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.rankingWorkers = n
		}
	}
}

// WithDefaultPeriodDays sets the rolling window width used when the
// caller omits one.
func WithDefaultPeriodDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.defaultPeriodDays = days
		}
	}
}

// WithSeriesCaps caps the chart range length and top-N selection.
func WithSeriesCaps(maxDays, maxTop int) Option {
	return func(s *Service) {
		if maxDays > 0 {
			s.maxSeriesDays = maxDays
		}
		if maxTop > 0 {
			s.maxSeriesTop = maxTop
		}
	}
}

// WithHistoryCap caps the personal history listing.
func WithHistoryCap(maxDays int) Option {
	return func(s *Service) {
		if maxDays > 0 {
			s.maxHistoryDays = maxDays
		}
	}
}

// WithPastEditPolicy configures corrections to days before today.
// maxDays 0 means unlimited reach.
func WithPastEditPolicy(allow bool, maxDays int) Option {
	return func(s *Service) {
		s.allowPastEdits = allow
		if maxDays >= 0 {
			s.pastEditMaxDays = maxDays
		}
	}
}

// WithStore injects a prebuilt store, for tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithClock injects a prebuilt clock policy, for tests.
func WithClock(p *clock.Policy) Option {
	return func(s *Service) { s.clock = p }
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		timezone:          "Asia/Tokyo",
		cacheTTL:          60 * time.Second,
		rankingWorkers:    runtime.NumCPU(),
		defaultPeriodDays: 7,
		maxSeriesDays:     90,
		maxSeriesTop:      50,
		maxHistoryDays:    365,
		pastEditMaxDays:   30,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.clock == nil {
		p, err := clock.New(s.timezone)
		if err != nil {
			return err
		}
		s.clock = p
	}

	if s.store == nil {
		if s.databaseURL != "" {
			if err := database.RunMigrations(s.databaseURL); err != nil {
				return err
			}
			db, err := database.Open(s.databaseURL)
			if err != nil {
				return err
			}
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}
			s.store = repository.NewPostgresStore(db)
			s.logger.Info(ctx, "using postgres store")
		} else {
			s.store = repository.NewMemStore()
			s.logger.Info(ctx, "using in-memory store")
		}
	}

	s.cache = cache.New(cache.WithTTL(s.cacheTTL))
	s.assembler = ranking.New(s.store, ranking.WithWorkers(s.rankingWorkers))

	s.started = true
	s.logger.Info(ctx, "coinboard service started",
		logger.String("timezone", s.timezone),
		logger.Int("rankingWorkers", s.rankingWorkers),
		logger.Int("defaultPeriodDays", s.defaultPeriodDays),
	)
	return nil
}

// Stop releases service resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(context.Background(), "store close failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "coinboard service stopped")
}

// Status is the clock snapshot callers use to decide whether "today"
// is still provisional.
type Status struct {
	Today           model.Date `json:"today_ymd"`
	CanEditToday    bool       `json:"can_edit_today"`
	BoardDate       model.Date `json:"board_date_ymd"`
	AllowPastEdits  bool       `json:"allow_past_edits"`
	PastEditMaxDays int        `json:"past_edit_max_days"`
}

// Status reports the current clock state and edit policy.
func (s *Service) Status(ctx context.Context) Status {
	return Status{
		Today:           s.clock.CurrentDate(),
		CanEditToday:    s.clock.IsMutable(),
		BoardDate:       s.clock.LastFinalizedDate(),
		AllowPastEdits:  s.allowPastEdits,
		PastEditMaxDays: s.pastEditMaxDays,
	}
}

// DefaultPeriodDays exposes the configured window width default.
func (s *Service) DefaultPeriodDays() int { return s.defaultPeriodDays }

// SeriesCaps exposes the configured chart caps.
func (s *Service) SeriesCaps() (maxDays, maxTop int) {
	return s.maxSeriesDays, s.maxSeriesTop
}

// Board computes the ranked snapshot for metric as of asOf. A nil
// asOf defaults to the last finalized date so the snapshot never
// covers a day that can still change. The effective date is returned
// alongside the entries.
func (s *Service) Board(ctx context.Context, metric types.Metric, asOf *model.Date, windowDays int) ([]types.BoardEntry, model.Date, error) {
	date := s.clock.LastFinalizedDate()
	if asOf != nil {
		date = *asOf
	}
	if windowDays == 0 {
		windowDays = s.defaultPeriodDays
	}

	metrics.RecordBoardQuery(metric.String())

	key := fmt.Sprintf("board:%s:%s:%d", date, metric, windowDays)
	if v, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit()
		return v.([]types.BoardEntry), date, nil
	}
	metrics.RecordCacheMiss()

	start := time.Now()
	entries, err := s.assembler.Board(ctx, metric, date, windowDays)
	if err != nil {
		return nil, model.Date{}, err
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateRegisteredUsers(len(entries))

	s.cache.Put(key, entries)
	return entries, date, nil
}

// Series computes the top-N chart lines ending at end. A nil end
// defaults to the last finalized date. days and top are clamped to the
// configured caps; values below 1 are rejected by the assembler.
func (s *Service) Series(ctx context.Context, metric types.Metric, end *model.Date, days, top, windowDays int) ([]types.SeriesEntry, model.Date, error) {
	date := s.clock.LastFinalizedDate()
	if end != nil {
		date = *end
	}
	if windowDays == 0 {
		windowDays = s.defaultPeriodDays
	}
	if days > s.maxSeriesDays {
		days = s.maxSeriesDays
	}
	if top > s.maxSeriesTop {
		top = s.maxSeriesTop
	}

	metrics.RecordSeriesQuery(metric.String())

	key := fmt.Sprintf("series:%s:%s:%d:%d:%d", date, metric, windowDays, days, top)
	if v, ok := s.cache.Get(key); ok {
		metrics.RecordCacheHit()
		return v.([]types.SeriesEntry), date, nil
	}
	metrics.RecordCacheMiss()

	entries, err := s.assembler.Series(ctx, metric, date, days, top, windowDays)
	if err != nil {
		return nil, model.Date{}, err
	}

	s.cache.Put(key, entries)
	return entries, date, nil
}

// SubmitResult echoes a successful write together with the change
// against the previous recorded observation.
type SubmitResult struct {
	Date  model.Date `json:"date_ymd"`
	Value int        `json:"coins"`
	Diff  int        `json:"diff"`
}

// SubmitObservation upserts (userID, date, value). A nil date means
// today. Writing today is rejected during the closing minute; writing
// past days follows the past-edit policy; future days are rejected.
// The result cache is cleared before returning so an immediate
// re-query reflects the write.
func (s *Service) SubmitObservation(ctx context.Context, userID string, date *model.Date, value int) (SubmitResult, error) {
	if value < 0 {
		return SubmitResult{}, fmt.Errorf("%w: coins must be a non-negative integer", ErrInvalidValue)
	}

	target := s.clock.CurrentDate()
	if date != nil {
		target = *date
	}
	if err := s.checkEditable(target); err != nil {
		return SubmitResult{}, err
	}

	if err := s.store.PutObservation(ctx, model.Observation{UserID: userID, Date: target, Value: value}); err != nil {
		return SubmitResult{}, err
	}
	metrics.RecordObservationWrite()
	s.invalidate(ctx)

	diff, err := s.diffAgainstPrevious(ctx, userID, target, value)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Date: target, Value: value, Diff: diff}, nil
}

// UpdateObservation corrects an existing record. Unlike
// SubmitObservation it refuses to create one.
func (s *Service) UpdateObservation(ctx context.Context, userID string, date model.Date, value int) (SubmitResult, error) {
	if value < 0 {
		return SubmitResult{}, fmt.Errorf("%w: coins must be a non-negative integer", ErrInvalidValue)
	}
	if err := s.checkEditable(date); err != nil {
		return SubmitResult{}, err
	}

	if _, err := s.store.GetObservation(ctx, userID, date); err != nil {
		return SubmitResult{}, err
	}
	if err := s.store.PutObservation(ctx, model.Observation{UserID: userID, Date: date, Value: value}); err != nil {
		return SubmitResult{}, err
	}
	metrics.RecordObservationWrite()
	s.invalidate(ctx)

	diff, err := s.diffAgainstPrevious(ctx, userID, date, value)
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{Date: date, Value: value, Diff: diff}, nil
}

// HistoryRow is one personal history record, newest first.
type HistoryRow struct {
	Date  model.Date `json:"date_ymd"`
	Value int        `json:"coins"`
	Diff  int        `json:"diff"`
}

// History lists a user's latest records with the change against the
// previous record. Diffs compare recorded observations, not
// carried-forward days; the earliest known record reports 0.
func (s *Service) History(ctx context.Context, userID string, days int) ([]HistoryRow, error) {
	if days < 1 {
		return nil, fmt.Errorf("%w: days %d", ranking.ErrInvalidArgument, days)
	}
	if days > s.maxHistoryDays {
		days = s.maxHistoryDays
	}

	obs, err := s.store.ListObservations(ctx, userID, nil, nil)
	if err != nil {
		return nil, err
	}

	// Keep one extra record so the oldest visible row still gets a diff.
	if len(obs) > days+1 {
		obs = obs[len(obs)-(days+1):]
	}

	rows := make([]HistoryRow, 0, days)
	for i := len(obs) - 1; i >= 0; i-- {
		diff := 0
		if i > 0 {
			diff = obs[i].Value - obs[i-1].Value
		}
		rows = append(rows, HistoryRow{Date: obs[i].Date, Value: obs[i].Value, Diff: diff})
		if len(rows) == days {
			break
		}
	}
	return rows, nil
}

// RegisterUser creates a user in the backing store.
func (s *Service) RegisterUser(ctx context.Context, name string) (model.User, error) {
	return s.store.RegisterUser(ctx, name)
}

// Users lists registered users.
func (s *Service) Users(ctx context.Context) ([]model.User, error) {
	return s.store.ListUsers(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":           s.started,
		"timezone":          s.timezone,
		"rankingWorkers":    s.rankingWorkers,
		"defaultPeriodDays": s.defaultPeriodDays,
	}
	if s.started {
		stats["cacheEntries"] = s.cache.Len()
		if users, err := s.store.ListUsers(context.Background()); err == nil {
			stats["registeredUsers"] = len(users)
			metrics.UpdateRegisteredUsers(len(users))
		}
	}
	return stats
}

// checkEditable enforces the daily close and past-edit policy for a
// write targeting date.
func (s *Service) checkEditable(date model.Date) error {
	today := s.clock.CurrentDate()
	switch {
	case date.Equal(today):
		if !s.clock.IsMutable() {
			return ErrDayFinalized
		}
	case date.After(today):
		return fmt.Errorf("%w: %s", ErrFutureDate, date)
	default:
		if !s.allowPastEdits {
			return ErrPastEditLocked
		}
		if s.pastEditMaxDays > 0 && date.DaysUntil(today) > s.pastEditMaxDays {
			return fmt.Errorf("%w: only the past %d days can be edited", ErrPastEditTooOld, s.pastEditMaxDays)
		}
	}
	return nil
}

// diffAgainstPrevious computes the change vs the latest observation
// strictly before date, or 0 when none exists.
func (s *Service) diffAgainstPrevious(ctx context.Context, userID string, date model.Date, value int) (int, error) {
	prevDay := date.AddDays(-1)
	prior, err := s.store.ListObservations(ctx, userID, nil, &prevDay)
	if err != nil {
		return 0, err
	}
	if len(prior) == 0 {
		return 0, nil
	}
	return value - prior[len(prior)-1].Value, nil
}

// invalidate clears the result cache after any observation write.
func (s *Service) invalidate(ctx context.Context) {
	s.cache.InvalidateAll()
	metrics.RecordCacheInvalidation()
	s.logger.Debug(ctx, "result cache invalidated")
}

// IsNotFound reports whether err is a store not-found condition the
// HTTP layer should translate to 404.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, repository.ErrObservationNotFound)
}
