package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/redzone/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "redzone.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given defaults only", t, func() {
		t.Setenv("REDZONE_CONFIG", "")
		cfg, err := config.Load(ctx)

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
		convey.So(cfg.FetchWorkers, convey.ShouldEqual, 8)
	})
}

func TestLoad_Env(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given environment variables", t, func() {
		t.Setenv("REDZONE_CONFIG", "")
		t.Setenv("REDZONE_ADDR", ":8080")
		t.Setenv("REDZONE_POLL_INTERVAL", "15s")
		t.Setenv("REDZONE_FETCH_WORKERS", "4")
		t.Setenv("REDZONE_HYSTERESIS_BONUS", "7.5")
		t.Setenv("REDZONE_AUTOSTART", "true")

		cfg, err := config.Load(ctx)

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
		convey.So(cfg.PollInterval, convey.ShouldEqual, 15*time.Second)
		convey.So(cfg.FetchWorkers, convey.ShouldEqual, 4)
		convey.So(cfg.HysteresisBonus, convey.ShouldEqual, 7.5)
		convey.So(cfg.Autostart, convey.ShouldBeTrue)
	})
}

func TestLoad_FileAndEnv(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a YAML file and environment variables", t, func() {
		path := writeConfig(t, `
addr: ":9090"
league: college-football
timeout_window: 90s
channels_file: /etc/redzone/channels.yaml
fetch_workers: 2
`)
		t.Setenv("REDZONE_CONFIG", path)
		t.Setenv("REDZONE_FETCH_WORKERS", "6")

		cfg, err := config.Load(ctx)

		convey.Convey("Then env overrides file and file overrides defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.League, convey.ShouldEqual, "college-football")
			convey.So(cfg.TimeoutWindow, convey.ShouldEqual, 90*time.Second)
			convey.So(cfg.ChannelsFile, convey.ShouldEqual, "/etc/redzone/channels.yaml")
			convey.So(cfg.FetchWorkers, convey.ShouldEqual, 6)
			convey.So(cfg.ScoreChangeWindow, convey.ShouldEqual, 30*time.Second)
		})
	})
}

func TestLoad_InvalidYAML(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an invalid YAML file", t, func() {
		t.Setenv("REDZONE_CONFIG", writeConfig(t, `invalid: yaml: content: [`))
		cfg, err := config.Load(ctx)

		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		convey.So(cfg, convey.ShouldBeNil)
	})
}

func TestLoad_MissingFile(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a missing file", t, func() {
		t.Setenv("REDZONE_CONFIG", "/non/existent/file.yaml")
		_, err := config.Load(ctx)
		convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
	})
}

func TestLoad_EmptyAddr(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given an empty addr", t, func() {
		t.Setenv("REDZONE_CONFIG", "")
		t.Setenv("REDZONE_ADDR", "")
		cfg, err := config.Load(ctx)

		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "addr")
		convey.So(cfg, convey.ShouldBeNil)
	})
}
