// Package crontest provides test doubles for the cron package.
package crontest

import (
	"context"
	"sync"
	"time"

	"github.com/flemzord/tgsend/internal/cron"
	"github.com/flemzord/tgsend/internal/delivery"
)

// MockJob is a configurable test double for cron.Job.
type MockJob struct {
	NameVal     string
	ScheduleVal string
	RunFunc     func(ctx context.Context) error

	mu       sync.Mutex
	calls    int
	lastCall time.Time
}

// Compile-time interface check.
var _ cron.Job = (*MockJob)(nil)

// Name implements cron.Job.
func (m *MockJob) Name() string { return m.NameVal }

// Schedule implements cron.Job.
func (m *MockJob) Schedule() string { return m.ScheduleVal }

// Run implements cron.Job and increments the call counter.
func (m *MockJob) Run(ctx context.Context) error {
	m.mu.Lock()
	m.calls++
	m.lastCall = time.Now()
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx)
	}
	return nil
}

// CallCount returns the number of times Run was called.
func (m *MockJob) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastCall returns the time of the last Run call.
func (m *MockJob) LastCall() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCall
}

// SentMessage is one call recorded by MockSender.
type SentMessage struct {
	Recipient string
	Text      string
}

// MockSender is a test double for cron.Sender. It returns Result, or a
// PrimarySent result when Result is the zero value.
type MockSender struct {
	Result delivery.Result

	mu   sync.Mutex
	sent []SentMessage
}

// Compile-time interface check.
var _ cron.Sender = (*MockSender)(nil)

// Send implements cron.Sender.
func (m *MockSender) Send(_ context.Context, recipient, text string) delivery.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{Recipient: recipient, Text: text})
	if m.Result.Status == 0 {
		return delivery.Result{Status: delivery.StatusPrimarySent}
	}
	return m.Result
}

// Sent returns a copy of the recorded calls.
func (m *MockSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
