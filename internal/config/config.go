// Package config provides configuration loading and defaults for the
// nuistind daemon.
//
// Configuration is loaded from a TOML file in the user's data directory.
// The package covers the gateway endpoint, the re-login schedule, idle
// detection, notifications, and logging, with sensible defaults for every
// field. The interval list here is the single source the daemon and any UI
// shell resolve the preferences intervalIndex against.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/nuistin/nuistind/internal/atomicfile"
	"github.com/nuistin/nuistind/internal/migrate"
	"github.com/nuistin/nuistind/internal/paths"
)

// DefaultGatewayURL is the campus portal gateway this daemon authenticates
// against.
const DefaultGatewayURL = "http://a.nuist.edu.cn"

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version used for migrations.
	Version int `toml:"version"`
	// Gateway holds portal gateway connection settings.
	Gateway GatewayConfig `toml:"gateway"`
	// Schedule holds periodic re-login and retry settings.
	Schedule ScheduleConfig `toml:"schedule"`
	// Idle holds sleep/resume detection settings.
	Idle IdleConfig `toml:"idle"`
	// Notify holds desktop notification settings.
	Notify NotifyConfig `toml:"notify"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// GatewayConfig holds portal gateway connection settings.
type GatewayConfig struct {
	// BaseURL is the gateway root, e.g. "http://a.nuist.edu.cn".
	BaseURL string `toml:"base_url"`
	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// ScheduleConfig holds periodic re-login and retry settings.
type ScheduleConfig struct {
	// IntervalsMinutes is the ordered list of allowed re-login intervals.
	// The preferences intervalIndex selects an entry from this list.
	IntervalsMinutes []int `toml:"intervals_minutes"`
	// RetryBudget is the number of additional attempts after a failed
	// scheduled login.
	RetryBudget int `toml:"retry_budget"`
	// WakeRetryBudget is the number of additional attempts after a failed
	// login triggered by a sleep/resume event. Wake events say nothing
	// about current connectivity, so this budget is larger by default.
	WakeRetryBudget int `toml:"wake_retry_budget"`
	// RetryDelaySeconds is the pause between attempts of one login run.
	RetryDelaySeconds int `toml:"retry_delay_seconds"`
}

// IdleConfig holds sleep/resume detection settings.
type IdleConfig struct {
	// PollIntervalSeconds is how often the idle detector samples the clock.
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	// ToleranceMS absorbs scheduler jitter: a gap counts as a sleep/resume
	// only when it exceeds the poll interval by more than this margin.
	ToleranceMS int `toml:"tolerance_ms"`
}

// NotifyConfig holds desktop notification settings.
type NotifyConfig struct {
	// Enabled turns outcome notifications for unattended attempts on or off.
	Enabled bool `toml:"enabled"`
	// AppName is the application name shown by the notification daemon.
	AppName string `toml:"app_name"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: migrate.Config.CurrentVersion,
		Gateway: GatewayConfig{
			BaseURL:        DefaultGatewayURL,
			TimeoutSeconds: 10,
		},
		Schedule: ScheduleConfig{
			IntervalsMinutes:  []int{5, 10, 20, 30},
			RetryBudget:       0,
			WakeRetryBudget:   10,
			RetryDelaySeconds: 1,
		},
		Idle: IdleConfig{
			PollIntervalSeconds: 10,
			ToleranceMS:         500,
		},
		Notify: NotifyConfig{
			Enabled: true,
			AppName: "NUISTin",
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ///////////////////////////////////////////////
// PeekVersion
// ///////////////////////////////////////////////

// PeekVersion reads just the version field from raw TOML bytes.
// Returns 1 if the version field is missing or zero.
func PeekVersion(data []byte) int {
	var v struct {
		Version int `toml:"version"`
	}
	if err := toml.Unmarshal(data, &v); err != nil {
		return 1
	}
	if v.Version == 0 {
		return 1
	}
	return v.Version
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	version := PeekVersion(data)

	// Apply migrations if needed
	migrated := version != migrate.Config.CurrentVersion
	if migrated {
		// Write backup before migration
		if backupErr := os.WriteFile(path+".bak", data, 0o644); backupErr != nil {
			slog.Warn("failed to write config backup", "error", backupErr)
		}
		var migrateErr error
		data, _, migrateErr = migrate.Config.Run(data, version)
		if migrateErr != nil {
			return nil, fmt.Errorf("migrate config: %w", migrateErr)
		}
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Version = migrate.Config.CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// Re-save after migration
	if migrated {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "error", err)
		}
	}

	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Gateway.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid gateway.base_url %q: must be an absolute URL", c.Gateway.BaseURL)
	}

	if c.Gateway.TimeoutSeconds <= 0 {
		return fmt.Errorf("gateway.timeout_seconds must be > 0, got %d", c.Gateway.TimeoutSeconds)
	}

	if len(c.Schedule.IntervalsMinutes) == 0 {
		return fmt.Errorf("schedule.intervals_minutes must not be empty")
	}
	for _, m := range c.Schedule.IntervalsMinutes {
		if m <= 0 {
			return fmt.Errorf("schedule.intervals_minutes entries must be > 0, got %d", m)
		}
	}

	if c.Schedule.RetryBudget < 0 {
		return fmt.Errorf("schedule.retry_budget must be >= 0, got %d", c.Schedule.RetryBudget)
	}
	if c.Schedule.WakeRetryBudget < 0 {
		return fmt.Errorf("schedule.wake_retry_budget must be >= 0, got %d", c.Schedule.WakeRetryBudget)
	}
	if c.Schedule.RetryDelaySeconds < 0 {
		return fmt.Errorf("schedule.retry_delay_seconds must be >= 0, got %d", c.Schedule.RetryDelaySeconds)
	}

	if c.Idle.PollIntervalSeconds <= 0 {
		return fmt.Errorf("idle.poll_interval_seconds must be > 0, got %d", c.Idle.PollIntervalSeconds)
	}
	if c.Idle.ToleranceMS < 0 {
		return fmt.Errorf("idle.tolerance_ms must be >= 0, got %d", c.Idle.ToleranceMS)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be debug, info, warn, or error", c.Log.Level)
	}

	return nil
}

// ///////////////////////////////////////////////
// Duration Helpers
// ///////////////////////////////////////////////

// Intervals returns the allowed re-login intervals as durations, in the
// order the preferences intervalIndex addresses them.
func (c *Config) Intervals() []time.Duration {
	out := make([]time.Duration, len(c.Schedule.IntervalsMinutes))
	for i, m := range c.Schedule.IntervalsMinutes {
		out[i] = time.Duration(m) * time.Minute
	}
	return out
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// RetryDelay returns the pause between attempts of one login run.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Schedule.RetryDelaySeconds) * time.Second
}

// IdlePollInterval returns how often the idle detector samples the clock.
func (c *Config) IdlePollInterval() time.Duration {
	return time.Duration(c.Idle.PollIntervalSeconds) * time.Second
}

// IdleTolerance returns the jitter margin for idle detection.
func (c *Config) IdleTolerance() time.Duration {
	return time.Duration(c.Idle.ToleranceMS) * time.Millisecond
}
