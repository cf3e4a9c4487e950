package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if COINBOARD_CONFIG is set
//  3. env (prefix COINBOARD_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("COINBOARD_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: COINBOARD_ADDR, COINBOARD_TIMEZONE, ...
	// Keys keep their underscores to match the koanf struct tags.
	envProvider := env.Provider("COINBOARD_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "coinboard_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Timezone == "":
		return fmt.Errorf("%w: timezone must not be empty", ErrInvalidConfig)
	case c.CacheTTLSeconds < 1:
		return fmt.Errorf("%w: cache_ttl_seconds must be positive", ErrInvalidConfig)
	case c.DefaultPeriodDays < 1:
		return fmt.Errorf("%w: default_period_days must be positive", ErrInvalidConfig)
	case c.MaxSeriesDays < 1 || c.MaxSeriesTop < 1 || c.MaxHistoryDays < 1:
		return fmt.Errorf("%w: series/history caps must be positive", ErrInvalidConfig)
	case c.PastEditMaxDays < 0:
		return fmt.Errorf("%w: past_edit_max_days must not be negative", ErrInvalidConfig)
	}
	return nil
}
