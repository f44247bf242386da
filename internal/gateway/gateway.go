// Package gateway provides the HTTP API for submitting messages, previewing
// their chunk layout, and monitoring. It binds to loopback by default.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/flemzord/tgsend/internal/channel"
	"github.com/flemzord/tgsend/internal/delivery"
	"github.com/flemzord/tgsend/internal/security"
)

// Sender is the subset of *delivery.Sender the gateway needs.
type Sender interface {
	Send(ctx context.Context, recipient, text string) delivery.Result
	SendFallback(ctx context.Context, recipient, text string) delivery.Result
	Plan(text string) delivery.Plan
}

// Deps carries the collaborators of a Gateway.
type Deps struct {
	Sender Sender
	Logger *slog.Logger

	// MetricsHandler serves GET /metrics. The route is not mounted when nil.
	MetricsHandler http.Handler

	// Audit receives auth and delivery events. May be nil.
	Audit *security.AuditLogger

	// BotUsername is reported by GET /health.
	BotUsername string
}

// Gateway is the HTTP server. API routes are mounted only when auth is
// configured.
type Gateway struct {
	config    Config
	deps      Deps
	logger    *slog.Logger
	metrics   *Metrics
	limiter   *security.RateLimiter
	allowed   *channel.AllowList // nil when every chat is allowed
	startedAt time.Time

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New creates a gateway. cfg is expected to come from ParseConfig.
func New(cfg Config, deps Deps) *Gateway {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var allowed *channel.AllowList
	if len(cfg.AllowedChats) > 0 {
		allowed = channel.NewAllowList(cfg.AllowedChats)
	}
	return &Gateway{
		config:    cfg,
		allowed:   allowed,
		deps:      deps,
		logger:    logger,
		metrics:   &Metrics{},
		limiter:   security.NewRateLimiter(cfg.RateLimit),
		startedAt: time.Now(),
	}
}

// Handler returns the routed HTTP handler.
func (g *Gateway) Handler() http.Handler {
	return g.buildRouter()
}

// Start listens on the configured address and serves in the background.
func (g *Gateway) Start(ctx context.Context) error {
	if g.deps.Sender == nil {
		return errors.New("gateway: sender is required")
	}
	if !g.config.Auth.IsConfigured() {
		g.logger.Warn("gateway auth not configured, /api routes are disabled")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", g.config.Bind)
	if err != nil {
		return fmt.Errorf("gateway: listen failed: %w", err)
	}

	server := &http.Server{
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	g.mu.Lock()
	g.server = server
	g.addr = ln.Addr()
	g.startedAt = time.Now()
	g.mu.Unlock()

	go func() {
		g.logger.Info("gateway listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Addr returns the listening address once started, or nil.
func (g *Gateway) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addr
}

// Stop shuts the server down gracefully within the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	server := g.server
	g.mu.Unlock()
	if server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return server.Shutdown(shutdownCtx)
}
