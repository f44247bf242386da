package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/tgsend/internal/delivery"
)

// Sender delivers a message with the MarkdownV2-then-HTML strategy.
type Sender interface {
	Send(ctx context.Context, recipient, text string) delivery.Result
}

// BroadcastJob sends a fixed text to one chat on every tick.
type BroadcastJob struct {
	JobName      string
	ScheduleExpr string
	ChatID       string
	Text         string
	Sender       Sender
	Logger       *slog.Logger

	// Quiet, when set, skips ticks that fall inside the window, evaluated
	// in Location (UTC when nil).
	Quiet    *QuietHours
	Location *time.Location

	// Now overrides time.Now.
	Now func() time.Time
}

// Compile-time interface check.
var _ Job = (*BroadcastJob)(nil)

// Name implements Job.
func (j *BroadcastJob) Name() string {
	return "broadcast:" + j.JobName
}

// Schedule implements Job.
func (j *BroadcastJob) Schedule() string {
	return j.ScheduleExpr
}

// Run delivers the text. A delivery that ends in the Failed state is
// returned as an error.
func (j *BroadcastJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: broadcast %q cancelled: %w", j.JobName, ctx.Err())
	}

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if j.inQuietHours() {
		logger.Debug("cron: broadcast skipped in quiet hours", "job", j.JobName, "quiet_hours", j.Quiet.String())
		return nil
	}

	res := j.Sender.Send(ctx, j.ChatID, j.Text)
	if !res.OK() {
		if res.Err == nil {
			return fmt.Errorf("cron: broadcast %q to %s: %s", j.JobName, j.ChatID, res.Status)
		}
		return fmt.Errorf("cron: broadcast %q to %s: %w", j.JobName, j.ChatID, res.Err)
	}

	logger.Info("cron: broadcast delivered",
		"job", j.JobName,
		"chat_id", j.ChatID,
		"status", res.Status.String(),
		"chunks", len(res.Sent),
	)
	return nil
}

func (j *BroadcastJob) inQuietHours() bool {
	if j.Quiet == nil {
		return false
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	loc := j.Location
	if loc == nil {
		loc = time.UTC
	}
	return j.Quiet.IsQuiet(now().In(loc))
}
