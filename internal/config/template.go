package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Starter holds the answers used to render a starter configuration file.
type Starter struct {
	Token          string
	GatewayEnabled bool
	GatewayBind    string
	BearerToken    string
	Metrics        bool
	OTLPEndpoint   string
}

type starterFile struct {
	Version   string          `yaml:"version"`
	Log       LogConfig       `yaml:"log"`
	Telegram  starterTelegram `yaml:"telegram"`
	Gateway   *starterGateway `yaml:"gateway,omitempty"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type starterTelegram struct {
	Token  string `yaml:"token"`
	Pacing string `yaml:"pacing"`
}

type starterGateway struct {
	Enabled bool              `yaml:"enabled"`
	Bind    string            `yaml:"bind"`
	Auth    map[string]string `yaml:"auth,omitempty"`
}

// Render produces a starter YAML configuration. A token that is not an
// environment reference is written as given; callers are encouraged to
// pass "${TGSEND_TOKEN}".
func Render(s Starter) ([]byte, error) {
	metrics := s.Metrics
	f := starterFile{
		Version:  "1",
		Log:      LogConfig{Level: "info", Format: "text"},
		Telegram: starterTelegram{Token: s.Token, Pacing: "100ms"},
		Telemetry: TelemetryConfig{
			Metrics:      &metrics,
			OTLPEndpoint: s.OTLPEndpoint,
		},
	}
	if s.GatewayEnabled {
		f.Gateway = &starterGateway{Enabled: true, Bind: s.GatewayBind}
		if s.BearerToken != "" {
			f.Gateway.Auth = map[string]string{"bearer_token": s.BearerToken}
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# tgsend configuration\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("config: render starter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("config: render starter: %w", err)
	}
	return buf.Bytes(), nil
}
