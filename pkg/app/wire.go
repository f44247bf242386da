package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/tgsend/internal/config"
	"github.com/flemzord/tgsend/internal/cron"
	"github.com/flemzord/tgsend/internal/delivery"
	"github.com/flemzord/tgsend/internal/gateway"
	"github.com/flemzord/tgsend/internal/security"
	"github.com/flemzord/tgsend/internal/telemetry"
	"github.com/flemzord/tgsend/modules/channel/telegram"
)

// Runtime holds the wired components of a tgsend process. Build creates
// it without starting anything; Start and Stop drive the long-running parts.
type Runtime struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telegram  *telegram.Telegram
	Sender    *delivery.Sender
	Registry  *prometheus.Registry
	Scheduler *cron.Scheduler

	// Gateway is created by Start when the gateway is enabled.
	Gateway *gateway.Gateway

	gatewayConfig  gateway.Config
	metricsHandler http.Handler
	audit          *security.AuditLogger
	closers        []func(context.Context) error
}

// BuildParams configures Build.
type BuildParams struct {
	Config  *config.Config
	Version string

	// LogOutput receives the process log. Defaults to os.Stderr.
	LogOutput io.Writer
}

// Build wires every component from a validated configuration.
func Build(ctx context.Context, params BuildParams) (*Runtime, error) {
	cfg := params.Config

	tgCfg, err := telegram.ParseConfig(&cfg.Telegram)
	if err != nil {
		return nil, err
	}
	gwCfg, err := gateway.ParseConfig(&cfg.Gateway)
	if err != nil {
		return nil, err
	}

	// The token is embedded in every Bot API URL; credentials are redacted
	// from everything the process logs.
	redactor := security.NewRedactor()
	redactor.AddLiteral(tgCfg.Token)
	redactor.AddLiteral(gwCfg.Auth.BearerToken)
	redactor.AddLiteral(gwCfg.Auth.BasicPass)

	out := params.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := security.NewLogger(out, cfg.Log.SlogLevel(), cfg.Log.Format, redactor)

	rt := &Runtime{
		Config:        cfg,
		Logger:        logger,
		Registry:      prometheus.NewRegistry(),
		gatewayConfig: gwCfg,
	}

	tp, shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.OTLPInsecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: params.Version,
	})
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, shutdownTracing)

	senderOpts := []delivery.Option{
		delivery.WithLogger(logger),
		delivery.WithMaxChunkSize(tgCfg.MaxMessageLength),
		delivery.WithPacing(tgCfg.Pacing),
		delivery.WithTracerProvider(tp),
	}
	if cfg.Telemetry.MetricsEnabled() {
		rt.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		senderOpts = append(senderOpts, delivery.WithMetrics(delivery.NewMetrics(rt.Registry)))
		rt.metricsHandler = promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{})
	}

	rt.Telegram = telegram.New(tgCfg, logger)
	rt.Sender = delivery.NewSender(rt.Telegram, senderOpts...)

	if gwCfg.Enabled {
		audit, err := rt.openAudit(gwCfg.AuditLog, redactor)
		if err != nil {
			_ = rt.close(ctx)
			return nil, err
		}
		rt.audit = audit
	}

	rt.Scheduler = cron.NewScheduler(logger)
	for _, s := range cfg.Schedules {
		job, err := broadcastJob(s, rt.Sender, logger)
		if err == nil {
			err = rt.Scheduler.RegisterJob(job)
		}
		if err != nil {
			_ = rt.close(ctx)
			return nil, err
		}
	}

	return rt, nil
}

// broadcastJob builds the cron job for one schedule entry.
func broadcastJob(s config.ScheduleEntry, sender cron.Sender, logger *slog.Logger) (*cron.BroadcastJob, error) {
	job := &cron.BroadcastJob{
		JobName:      s.Name,
		ScheduleExpr: s.Cron,
		ChatID:       s.ChatID,
		Text:         s.Text,
		Sender:       sender,
		Logger:       logger,
	}
	if s.QuietHours != "" {
		q, err := cron.ParseQuietHours(s.QuietHours)
		if err != nil {
			return nil, err
		}
		job.Quiet = &q
	}
	if s.Timezone != "" {
		loc, err := time.LoadLocation(s.Timezone)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", s.Name, err)
		}
		job.Location = loc
	}
	return job, nil
}

// openAudit returns an audit logger writing JSONL to path, or one that
// only redacts when path is empty.
func (rt *Runtime) openAudit(path string, redactor *security.Redactor) (*security.AuditLogger, error) {
	cfg := security.AuditLoggerConfig{Redactor: redactor}
	if path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) error { return f.Close() })
		cfg.Writer = f
	}
	return security.NewAuditLogger(cfg), nil
}

// Start authenticates the bot, then starts the gateway and the scheduler.
func (rt *Runtime) Start(ctx context.Context) error {
	user, err := rt.Telegram.Start(ctx)
	if err != nil {
		return err
	}

	if rt.gatewayConfig.Enabled {
		rt.Gateway = gateway.New(rt.gatewayConfig, gateway.Deps{
			Sender:         rt.Sender,
			Logger:         rt.Logger,
			MetricsHandler: rt.metricsHandler,
			Audit:          rt.audit,
			BotUsername:    user.Username,
		})
		if err := rt.Gateway.Start(ctx); err != nil {
			return err
		}
	}

	if err := rt.Scheduler.Start(ctx); err != nil {
		return err
	}
	return nil
}

// Stop shuts down the scheduler and the gateway, then flushes telemetry and
// closes files. Every step runs; their errors are joined.
func (rt *Runtime) Stop(ctx context.Context) error {
	var errs []error
	if err := rt.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if rt.Gateway != nil {
		if err := rt.Gateway.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := rt.close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (rt *Runtime) close(ctx context.Context) error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
