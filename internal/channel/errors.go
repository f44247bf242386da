// Package channel splits formatted messages into transport-sized chunks and
// filters the chats they may be delivered to.
package channel

import "errors"

// ErrDenied indicates the target chat is not on the allow-list.
var ErrDenied = errors.New("channel: chat not allowed")
