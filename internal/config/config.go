// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// REDZONE_CONFIG, then REDZONE_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// League is the default league for new tenants.
	League string `koanf:"league"`

	// PollInterval is the monitoring cycle period.
	PollInterval time.Duration `koanf:"poll_interval"`

	// ProviderTimeout bounds every provider call.
	ProviderTimeout time.Duration `koanf:"provider_timeout"`

	// ProviderBaseURL overrides the ESPN API root. Empty uses the public API.
	ProviderBaseURL string `koanf:"provider_base_url"`

	// ScoreboardCacheTTL is how long one scoreboard serves list and snapshot calls.
	ScoreboardCacheTTL time.Duration `koanf:"scoreboard_cache_ttl"`

	// FixtureFile replaces the ESPN provider with recorded frames.
	FixtureFile string `koanf:"fixture_file"`

	// FetchWorkers and FetchQueueSize size the snapshot fetch pool.
	FetchWorkers   int `koanf:"fetch_workers"`
	FetchQueueSize int `koanf:"fetch_queue_size"`

	TimeoutWindow     time.Duration `koanf:"timeout_window"`
	ScoreChangeWindow time.Duration `koanf:"score_change_window"`

	// HysteresisBonus is added to the current selection's score when ranking.
	HysteresisBonus float64 `koanf:"hysteresis_bonus"`

	// ChannelsFile maps event ids to channels. Empty targets event ids directly.
	ChannelsFile string `koanf:"channels_file"`

	// ActuatorURL is the remote-control endpoint. Empty switches in dry-run mode.
	ActuatorURL   string `koanf:"actuator_url"`
	ActuatorToken string `koanf:"actuator_token"`

	// JournalPath is the sqlite decision journal. Empty keeps it in memory.
	JournalPath string `koanf:"journal_path"`

	// DedupeSize bounds the per-tenant play de-duplication window.
	DedupeSize int `koanf:"dedupe_size"`

	// StatusLogSize bounds the per-tenant status log.
	StatusLogSize int `koanf:"status_log_size"`

	WSEnabled bool `koanf:"ws_enabled"`

	// Autostart creates a "default" tenant and starts its loop at boot.
	Autostart bool `koanf:"autostart"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		League:             "nfl",
		PollInterval:       30 * time.Second,
		ProviderTimeout:    10 * time.Second,
		ScoreboardCacheTTL: 5 * time.Second,
		FetchWorkers:       8,
		FetchQueueSize:     256,
		TimeoutWindow:      120 * time.Second,
		ScoreChangeWindow:  30 * time.Second,
		HysteresisBonus:    5,
		DedupeSize:         50_000,
		StatusLogSize:      100,
		WSEnabled:          true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	checks := []struct {
		ok  bool
		key string
	}{
		{c.Addr != "", "addr"},
		{c.League != "", "league"},
		{c.PollInterval > 0, "poll_interval"},
		{c.ProviderTimeout > 0, "provider_timeout"},
		{c.ScoreboardCacheTTL >= 0, "scoreboard_cache_ttl"},
		{c.FetchWorkers > 0, "fetch_workers"},
		{c.FetchQueueSize > 0, "fetch_queue_size"},
		{c.TimeoutWindow > 0, "timeout_window"},
		{c.ScoreChangeWindow > 0, "score_change_window"},
		{c.HysteresisBonus >= 0, "hysteresis_bonus"},
		{c.DedupeSize > 0, "dedupe_size"},
		{c.StatusLogSize > 0, "status_log_size"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, ch.key)
		}
	}
	return nil
}
