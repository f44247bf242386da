package delivery

import "github.com/flemzord/tgsend/internal/channel"

// Status is the terminal state of one delivery.
type Status int

const (
	// StatusPrimarySent means every chunk was accepted under MarkdownV2.
	StatusPrimarySent Status = iota + 1
	// StatusFallbackSent means the MarkdownV2 attempt failed and the whole
	// message was then delivered under HTML.
	StatusFallbackSent
	// StatusFailed means the HTML attempt failed as well.
	StatusFailed
)

// String implements fmt.Stringer. Values double as metric labels.
func (s Status) String() string {
	switch s {
	case StatusPrimarySent:
		return "primary_sent"
	case StatusFallbackSent:
		return "fallback_sent"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result reports how a message was delivered.
type Result struct {
	Status Status

	// Sent lists the chunks the transport accepted, in send order, across
	// both attempts. A failed primary attempt may contribute a prefix of
	// its chunks before the fallback chunks.
	Sent []channel.Chunk

	// Err is the last transport error when Status is StatusFailed.
	Err error
}

// OK reports whether the message reached the recipient in one of the two
// dialects.
func (r Result) OK() bool {
	return r.Status == StatusPrimarySent || r.Status == StatusFallbackSent
}
