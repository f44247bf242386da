package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/tgsend/internal/markup"
)

// tokenPattern matches the Telegram bot token format: <digits>:<alphanum+dash>.
var tokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// Config holds the Telegram transport configuration.
type Config struct {
	Token               string        `yaml:"token"`
	APIURL              string        `yaml:"api_url"`
	MaxMessageLength    int           `yaml:"max_message_length"`
	Pacing              time.Duration `yaml:"pacing"`
	DisablePreview      bool          `yaml:"disable_preview"`
	DisableNotification bool          `yaml:"disable_notification"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
}

// ParseConfig decodes the telegram section of the configuration file,
// applies defaults and validates the result. An empty node yields the
// defaults, which fail validation for lack of a token.
func ParseConfig(node *yaml.Node) (Config, error) {
	var cfg Config
	if node != nil && node.Kind != 0 {
		if err := node.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("telegram: decode config: %w", err)
		}
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// defaults applies default values to unset fields.
func (c *Config) defaults() {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.MaxMessageLength == 0 {
		c.MaxMessageLength = markup.MaxMessageLength
	}
	if c.Pacing == 0 {
		c.Pacing = 100 * time.Millisecond
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
}

// validate checks configuration field constraints once defaults have been
// applied.
func (c *Config) validate() error {
	if c.Token == "" {
		return errors.New("telegram: token is required")
	}
	if !tokenPattern.MatchString(c.Token) {
		return errors.New("telegram: token format invalid (expected <bot_id>:<hash>)")
	}

	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("telegram: api_url must be a valid http/https URL, got %q", c.APIURL)
	}

	if c.MaxMessageLength < 1 || c.MaxMessageLength > markup.MaxMessageLength {
		return fmt.Errorf("telegram: max_message_length must be 1-%d, got %d", markup.MaxMessageLength, c.MaxMessageLength)
	}

	if c.Pacing < 0 || c.Pacing > 10*time.Second {
		return fmt.Errorf("telegram: pacing must be 0-10s, got %s", c.Pacing)
	}

	if c.RequestTimeout < time.Second || c.RequestTimeout > 5*time.Minute {
		return fmt.Errorf("telegram: request_timeout must be 1s-5m, got %s", c.RequestTimeout)
	}

	return nil
}
