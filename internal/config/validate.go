package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/flemzord/tgsend/internal/cron"
	"github.com/flemzord/tgsend/internal/gateway"
	"github.com/flemzord/tgsend/modules/channel/telegram"
)

// Validate checks the structural validity of a Config, including the
// sections decoded by other packages. Every problem found is reported.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateLog(cfg.Log)...)
	errs = append(errs, validateTelemetry(cfg.Telemetry)...)
	errs = append(errs, validateSchedules(cfg.Schedules)...)

	if _, err := telegram.ParseConfig(&cfg.Telegram); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if _, err := gateway.ParseConfig(&cfg.Gateway); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}

	return errors.Join(errs...)
}

func validateLog(l LogConfig) []error {
	var errs []error
	switch l.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("config: log.level must be debug, info, warn or error, got %q", l.Level))
	}
	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log.format must be text or json, got %q", l.Format))
	}
	return errs
}

func validateTelemetry(t TelemetryConfig) []error {
	if t.OTLPEndpoint == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(t.OTLPEndpoint); err != nil {
		return []error{fmt.Errorf("config: telemetry.otlp_endpoint must be host:port, got %q", t.OTLPEndpoint)}
	}
	return nil
}

func validateSchedules(entries []ScheduleEntry) []error {
	var errs []error
	seen := make(map[string]struct{}, len(entries))

	for i, s := range entries {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: name is required", i))
		} else if _, dup := seen[s.Name]; dup {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: duplicate name %q", i, s.Name))
		}
		seen[s.Name] = struct{}{}

		if err := cron.ValidateSchedule(s.Cron); err != nil {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: %w", i, err))
		}
		if _, err := telegram.ParseChatID(s.ChatID); err != nil {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: %w", i, err))
		}
		if s.Text == "" {
			errs = append(errs, fmt.Errorf("config: schedules[%d]: text is required", i))
		}
		if s.QuietHours != "" {
			if _, err := cron.ParseQuietHours(s.QuietHours); err != nil {
				errs = append(errs, fmt.Errorf("config: schedules[%d]: %w", i, err))
			}
		}
		if s.Timezone != "" {
			if _, err := time.LoadLocation(s.Timezone); err != nil {
				errs = append(errs, fmt.Errorf("config: schedules[%d]: timezone: %w", i, err))
			}
		}
	}

	return errs
}
