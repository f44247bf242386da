package delivery

import (
	"github.com/flemzord/tgsend/internal/channel"
	"github.com/flemzord/tgsend/internal/markup"
)

// Plan is the chunk layout a message would be sent with, in both dialects.
type Plan struct {
	Primary  []channel.Chunk `json:"primary"`
	Fallback []channel.Chunk `json:"fallback"`
}

// PrimaryChunks converts text to MarkdownV2 and splits it.
func PrimaryChunks(text string, maxChunkSize int) []channel.Chunk {
	return channel.SplitIntoChunks(markup.Convert(text, markup.DialectMarkdownV2), markup.DialectMarkdownV2, maxChunkSize)
}

// FallbackChunks escapes text for HTML and splits it.
func FallbackChunks(text string, maxChunkSize int) []channel.Chunk {
	return channel.SplitIntoChunks(markup.EscapeMinimal(text), markup.DialectHTML, maxChunkSize)
}

// Plan returns the chunks Send would transmit for text, without sending.
func (s *Sender) Plan(text string) Plan {
	return Plan{
		Primary:  PrimaryChunks(text, s.maxChunkSize),
		Fallback: FallbackChunks(text, s.maxChunkSize),
	}
}
