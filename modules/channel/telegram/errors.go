package telegram

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChatID is returned for a recipient that is neither a numeric
// chat ID nor an @username.
var ErrInvalidChatID = errors.New("telegram: invalid chat id")

// APIError represents an error returned by the Telegram Bot API.
type APIError struct {
	Code        int    `json:"error_code"`
	Description string `json:"description"`
	RetryAfter  int    `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram: %d %s (retry after %ds)", e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}

// IsParseError reports whether err is a Bot API rejection of the message
// markup, the typical cause of a MarkdownV2 attempt failing.
func IsParseError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Description), "can't parse entities")
}
