// Package delivery sends converted messages through a transport, one chunk
// at a time, and falls back to HTML when the MarkdownV2 attempt is refused.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flemzord/tgsend/internal/channel"
	"github.com/flemzord/tgsend/internal/markup"
)

// DefaultPacing is the pause between consecutive chunks of one message.
const DefaultPacing = 100 * time.Millisecond

const previewRunes = 100

// Transport delivers a single chunk to a recipient. The chunk's dialect
// selects the parse mode.
type Transport interface {
	SendChunk(ctx context.Context, recipient string, chunk channel.Chunk) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, recipient string, chunk channel.Chunk) error

// SendChunk calls f.
func (f TransportFunc) SendChunk(ctx context.Context, recipient string, chunk channel.Chunk) error {
	return f(ctx, recipient, chunk)
}

// Sender converts, chunks and delivers messages. It holds no per-message
// state and is safe for concurrent use.
type Sender struct {
	transport    Transport
	logger       *slog.Logger
	maxChunkSize int
	pacing       time.Duration
	sleep        func(ctx context.Context, d time.Duration)
	metrics      *Metrics
	tracer       trace.Tracer
}

// Option configures a Sender.
type Option func(*Sender)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxChunkSize sets the per-chunk length limit in code points.
// Values <= 0 disable splitting.
func WithMaxChunkSize(n int) Option {
	return func(s *Sender) { s.maxChunkSize = n }
}

// WithPacing sets the pause between consecutive chunks.
func WithPacing(d time.Duration) Option {
	return func(s *Sender) { s.pacing = d }
}

// WithMetrics enables Prometheus counters.
func WithMetrics(m *Metrics) Option {
	return func(s *Sender) { s.metrics = m }
}

// WithTracerProvider sets the provider spans are created from.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Sender) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

const tracerName = "github.com/flemzord/tgsend/internal/delivery"

// NewSender creates a Sender that writes through t.
func NewSender(t Transport, opts ...Option) *Sender {
	s := &Sender{
		transport:    t,
		logger:       slog.Default(),
		maxChunkSize: markup.MaxMessageLength,
		pacing:       DefaultPacing,
		sleep:        pause,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers text to recipient. The text is converted to MarkdownV2 and
// sent chunk by chunk. If any chunk is refused, the remaining MarkdownV2
// chunks are abandoned and the whole original text is sent again as
// minimally escaped HTML. Chunks already delivered are not recalled, so a
// recipient may see a partial MarkdownV2 prefix followed by the full HTML
// rendition.
func (s *Sender) Send(ctx context.Context, recipient, text string) Result {
	ctx, span := s.startSpan(ctx, "delivery.Send", recipient, text)
	defer span.End()

	res := s.send(ctx, recipient, text, true)
	s.finish(span, res)
	return res
}

// SendFallback delivers text as minimally escaped HTML only, skipping the
// MarkdownV2 attempt.
func (s *Sender) SendFallback(ctx context.Context, recipient, text string) Result {
	ctx, span := s.startSpan(ctx, "delivery.SendFallback", recipient, text)
	defer span.End()

	res := s.send(ctx, recipient, text, false)
	s.finish(span, res)
	return res
}

func (s *Sender) send(ctx context.Context, recipient, text string, primary bool) Result {
	if s.transport == nil {
		return Result{Status: StatusFailed, Err: ErrNoTransport}
	}
	if recipient == "" {
		return Result{Status: StatusFailed, Err: ErrEmptyRecipient}
	}

	logger := s.logger.With("recipient", recipient)
	var sent []channel.Chunk

	if primary {
		chunks := PrimaryChunks(text, s.maxChunkSize)
		n, err := s.attempt(ctx, recipient, chunks)
		sent = append(sent, chunks[:n]...)
		if err == nil {
			logger.Info("message sent", "dialect", markup.DialectMarkdownV2.String(), "chunks", len(chunks))
			return Result{Status: StatusPrimarySent, Sent: sent}
		}
		logger.Warn("markdown send failed, retrying as html",
			"error", err,
			"sent_chunks", n,
			"total_chunks", len(chunks),
			"preview", preview(text),
		)
		s.metrics.observeFallback()
	}

	chunks := FallbackChunks(text, s.maxChunkSize)
	n, err := s.attempt(ctx, recipient, chunks)
	sent = append(sent, chunks[:n]...)
	if err != nil {
		logger.Error("message delivery failed",
			"error", err,
			"sent_chunks", n,
			"total_chunks", len(chunks),
			"preview", preview(text),
		)
		return Result{Status: StatusFailed, Sent: sent, Err: err}
	}
	logger.Info("message sent", "dialect", markup.DialectHTML.String(), "chunks", len(chunks))
	return Result{Status: StatusFallbackSent, Sent: sent}
}

// attempt sends chunks in order, pausing between them. It stops at the
// first refused chunk and returns how many were accepted.
func (s *Sender) attempt(ctx context.Context, recipient string, chunks []channel.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	dialect := chunks[0].Dialect

	ctx, span := s.tracer.Start(ctx, "delivery.attempt", trace.WithAttributes(
		attribute.String("tgsend.dialect", dialect.String()),
		attribute.Int("tgsend.chunks", len(chunks)),
	))
	defer span.End()

	for i, c := range chunks {
		if i > 0 {
			s.sleep(ctx, s.pacing)
		}
		err := s.transport.SendChunk(ctx, recipient, c)
		s.metrics.observeChunk(dialect, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "chunk refused")
			return i, fmt.Errorf("send chunk %d/%d as %s: %w", i+1, len(chunks), dialect, err)
		}
		s.logger.Debug("chunk sent", "recipient", recipient, "index", i+1, "total", len(chunks), "dialect", dialect.String())
	}
	return len(chunks), nil
}

func (s *Sender) startSpan(ctx context.Context, name, recipient, text string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("tgsend.recipient", recipient),
		attribute.Int("tgsend.text_length", utf8.RuneCountInString(text)),
	))
}

func (s *Sender) finish(span trace.Span, res Result) {
	s.metrics.observeResult(res.Status)
	span.SetAttributes(
		attribute.String("tgsend.status", res.Status.String()),
		attribute.Int("tgsend.sent_chunks", len(res.Sent)),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
}

// pause waits for d or until ctx is done. Cancellation only shortens the
// wait; the caller proceeds either way.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	return string([]rune(text)[:previewRunes]) + "..."
}
