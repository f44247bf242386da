package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/tgsend/internal/channel"
	"github.com/flemzord/tgsend/internal/delivery"
)

// Compile-time interface guard.
var _ delivery.Transport = (*Telegram)(nil)

// Telegram delivers chunks through the Bot API sendMessage method.
type Telegram struct {
	config  Config
	client  *Client
	logger  *slog.Logger
	botUser *User
}

// New creates a Telegram transport. cfg is expected to come from
// ParseConfig.
func New(cfg Config, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	client := NewClient(cfg.Token, cfg.APIURL)
	client.http.Timeout = cfg.RequestTimeout
	return &Telegram{
		config: cfg,
		client: client,
		logger: logger,
	}
}

// Config returns the effective configuration.
func (t *Telegram) Config() Config {
	return t.config
}

// Start validates the bot token with getMe and records the bot identity.
func (t *Telegram) Start(ctx context.Context) (*User, error) {
	user, err := t.client.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("telegram: getMe failed (check token): %w", err)
	}
	t.botUser = user
	t.logger.Info("telegram bot authenticated",
		"id", user.ID,
		"username", user.Username,
	)
	return user, nil
}

// SendChunk implements delivery.Transport. The chunk dialect selects the
// parse_mode; the recipient must be a chat ID or @username.
func (t *Telegram) SendChunk(ctx context.Context, recipient string, chunk channel.Chunk) error {
	chatID, err := ParseChatID(recipient)
	if err != nil {
		return err
	}

	msg, err := t.client.SendMessage(ctx, SendMessageRequest{
		ChatID:                chatID,
		Text:                  chunk.Text,
		ParseMode:             chunk.Dialect.ParseMode(),
		DisableWebPagePreview: t.config.DisablePreview,
		DisableNotification:   t.config.DisableNotification,
	})
	if err != nil {
		if IsParseError(err) {
			t.logger.Debug("telegram rejected markup", "chat_id", recipient, "parse_mode", chunk.Dialect.ParseMode(), "error", err)
		}
		return err
	}

	t.logger.Debug("telegram message sent", "chat_id", recipient, "message_id", msg.MessageID)
	return nil
}
