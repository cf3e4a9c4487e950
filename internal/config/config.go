// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() defaults; Load layers file and env on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone the daily close is evaluated in.
	Timezone string `koanf:"timezone"`

	// DatabaseURL selects the Postgres store when non-empty; the
	// in-memory store is used otherwise.
	DatabaseURL string `koanf:"database_url"`

	// CacheTTLSeconds bounds the lifetime of memoized query results.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	// RankingWorkers bounds the per-request per-user fan-out.
	RankingWorkers int `koanf:"ranking_workers"`

	// DefaultPeriodDays is the rolling window width when the caller
	// omits one.
	DefaultPeriodDays int `koanf:"default_period_days"`

	// MaxSeriesDays caps the chart range length.
	MaxSeriesDays int `koanf:"max_series_days"`

	// MaxSeriesTop caps the chart top-N selection.
	MaxSeriesTop int `koanf:"max_series_top"`

	// MaxHistoryDays caps the personal history listing.
	MaxHistoryDays int `koanf:"max_history_days"`

	// AllowPastEdits permits corrections to days before today.
	AllowPastEdits bool `koanf:"allow_past_edits"`

	// PastEditMaxDays bounds how far back corrections may reach when
	// past edits are allowed. 0 means unlimited.
	PastEditMaxDays int `koanf:"past_edit_max_days"`

	// WriteRatePerMinute and WriteBurst bound per-user write traffic.
	WriteRatePerMinute int `koanf:"write_rate_per_minute"`
	WriteBurst         int `koanf:"write_burst"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":8080",
		Timezone:           "Asia/Tokyo",
		CacheTTLSeconds:    60,
		RankingWorkers:     runtime.NumCPU(),
		DefaultPeriodDays:  7,
		MaxSeriesDays:      90,
		MaxSeriesTop:       50,
		MaxHistoryDays:     365,
		AllowPastEdits:     false,
		PastEditMaxDays:    30,
		WriteRatePerMinute: 60,
		WriteBurst:         10,
	}
}
