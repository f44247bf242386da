// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for tgsend.
package config

import (
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Log LogConfig `yaml:"log"`

	// Telegram and Gateway are decoded by their owning packages
	// (telegram.ParseConfig, gateway.ParseConfig).
	Telegram yaml.Node `yaml:"telegram"`
	Gateway  yaml.Node `yaml:"gateway"`

	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Schedules lists recurring broadcasts.
	Schedules []ScheduleEntry `yaml:"schedules,omitempty"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// SlogLevel maps Level to a slog level. Unknown values map to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TelemetryConfig controls metrics and tracing.
type TelemetryConfig struct {
	// Metrics enables Prometheus collectors. Nil means enabled.
	Metrics *bool `yaml:"metrics,omitempty"`

	// OTLPEndpoint is the host:port of an OTLP/HTTP trace collector.
	// Tracing is disabled when empty.
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
	OTLPInsecure bool   `yaml:"otlp_insecure,omitempty"`
	ServiceName  string `yaml:"service_name,omitempty"`
}

// MetricsEnabled reports whether Prometheus collectors should be registered.
func (t TelemetryConfig) MetricsEnabled() bool {
	return t.Metrics == nil || *t.Metrics
}

// ScheduleEntry is a broadcast pushed to a chat on a cron schedule.
type ScheduleEntry struct {
	Name   string `yaml:"name"`
	Cron   string `yaml:"cron"`
	ChatID string `yaml:"chat_id"`
	Text   string `yaml:"text"`

	// QuietHours ("HH:MM-HH:MM") skips ticks inside the window, evaluated
	// in Timezone (an IANA name, UTC when empty).
	QuietHours string `yaml:"quiet_hours,omitempty"`
	Timezone   string `yaml:"timezone,omitempty"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "tgsend"
	}
}
