// Package telegram implements the Telegram Bot API transport for tgsend.
//
// It provides:
//
//   - A Bot API client (getMe, sendMessage) with 429 retry honouring retry_after
//   - A delivery.Transport that maps each chunk's dialect to parse_mode
//   - Chat ID parsing for numeric IDs and @usernames
//
// No external Telegram library is used: the module communicates with the
// Bot API via raw net/http + encoding/json.
package telegram
