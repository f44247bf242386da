package gateway

import (
	"errors"
	"fmt"
	"net"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgsend/internal/security"
	"github.com/flemzord/tgsend/modules/channel/telegram"
)

// Config holds HTTP gateway configuration.
type Config struct {
	Enabled   bool                     `yaml:"enabled"`
	Bind      string                   `yaml:"bind"`
	Auth      AuthConfig               `yaml:"auth"`
	RateLimit security.RateLimitConfig `yaml:"rate_limit"`
	AuditLog  string                   `yaml:"audit_log"`
	// AllowedChats, when non-empty, restricts /api/messages to these chat
	// IDs and @usernames.
	AllowedChats    []string      `yaml:"allowed_chats"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ParseConfig decodes the gateway section of the configuration file,
// applies defaults and validates the result. An empty node yields a
// disabled gateway with default settings.
func ParseConfig(node *yaml.Node) (Config, error) {
	var cfg Config
	if node != nil && node.Kind != 0 {
		if err := node.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("gateway: decode config: %w", err)
		}
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Bind == "" {
		c.Bind = "127.0.0.1:8080"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		// Long messages are paced chunk by chunk inside the request.
		c.WriteTimeout = 2 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

func (c *Config) validate() error {
	if _, err := net.ResolveTCPAddr("tcp", c.Bind); err != nil {
		return errors.New("gateway: invalid bind address: " + c.Bind)
	}
	for _, chat := range c.AllowedChats {
		if _, err := telegram.ParseChatID(chat); err != nil {
			return fmt.Errorf("gateway: allowed_chats: %w", err)
		}
	}
	if (c.Auth.BasicUser == "") != (c.Auth.BasicPass == "") {
		return errors.New("gateway: auth.basic_user and auth.basic_pass must be set together")
	}
	return nil
}

// AuthConfig configures authentication for API endpoints.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// IsConfigured returns true if any auth method is configured.
func (a AuthConfig) IsConfigured() bool {
	return a.BearerToken != "" || (a.BasicUser != "" && a.BasicPass != "")
}
