package delivery

import "errors"

// Sentinel errors for delivery operations.
var (
	// ErrNoTransport indicates the sender was built without a transport.
	ErrNoTransport = errors.New("delivery: no transport configured")

	// ErrEmptyRecipient indicates a send without a target chat.
	ErrEmptyRecipient = errors.New("delivery: empty recipient")
)
