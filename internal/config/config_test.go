package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kazuki326/coinboard/internal/config"
)

func TestDefaults(t *testing.T) {
	Convey("Given no file and no environment", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then defaults apply", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8080")
			So(cfg.Timezone, ShouldEqual, "Asia/Tokyo")
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.CacheTTLSeconds, ShouldEqual, 60)
			So(cfg.DefaultPeriodDays, ShouldEqual, 7)
			So(cfg.AllowPastEdits, ShouldBeFalse)
			So(cfg.WriteRatePerMinute, ShouldEqual, 60)
		})
	})
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("COINBOARD_ADDR", ":9090")
	t.Setenv("COINBOARD_TIMEZONE", "UTC")
	t.Setenv("COINBOARD_DEFAULT_PERIOD_DAYS", "14")
	t.Setenv("COINBOARD_ALLOW_PAST_EDITS", "true")

	Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then they win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9090")
			So(cfg.Timezone, ShouldEqual, "UTC")
			So(cfg.DefaultPeriodDays, ShouldEqual, 14)
			So(cfg.AllowPastEdits, ShouldBeTrue)
		})
	})
}

func TestFileAndEnvLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "addr: \":7070\"\ntimezone: America/New_York\nmax_series_top: 10\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COINBOARD_CONFIG", path)
	t.Setenv("COINBOARD_ADDR", ":6060")

	Convey("Given a config file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env beats file beats defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.Timezone, ShouldEqual, "America/New_York")
			So(cfg.MaxSeriesTop, ShouldEqual, 10)
			So(cfg.MaxSeriesDays, ShouldEqual, 90)
		})
	})
}

func TestValidation(t *testing.T) {
	Convey("Given an invalid setting", t, func() {
		t.Setenv("COINBOARD_CACHE_TTL_SECONDS", "0")

		_, err := config.Load(context.Background())

		Convey("Then loading fails with a config error", func() {
			So(err, ShouldWrap, config.ErrInvalidConfig)
		})
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv("COINBOARD_CONFIG", "/nonexistent/config.yaml")

		_, err := config.Load(context.Background())

		So(err, ShouldWrap, config.ErrLoadConfig)
	})
}
