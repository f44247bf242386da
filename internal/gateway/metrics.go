package gateway

import (
	"sync/atomic"
	"time"

	"github.com/flemzord/tgsend/internal/delivery"
)

// Metrics tracks gateway-level counters using atomic operations for lock-free concurrency.
type Metrics struct {
	messages     atomic.Int64
	rejected     atomic.Int64
	primarySent  atomic.Int64
	fallbackSent atomic.Int64
	failed       atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// RecordDelivery records the outcome of a message accepted by the API.
func (m *Metrics) RecordDelivery(status delivery.Status, latency time.Duration) {
	m.messages.Add(1)
	m.totalLatency.Add(int64(latency))
	switch status {
	case delivery.StatusPrimarySent:
		m.primarySent.Add(1)
	case delivery.StatusFallbackSent:
		m.fallbackSent.Add(1)
	default:
		m.failed.Add(1)
	}
}

// RecordRejected records a request refused before delivery.
func (m *Metrics) RecordRejected() {
	m.rejected.Add(1)
}

// Snapshot returns a point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	messages := m.messages.Load()
	snap := MetricsSnapshot{
		Messages:     messages,
		Rejected:     m.rejected.Load(),
		PrimarySent:  m.primarySent.Load(),
		FallbackSent: m.fallbackSent.Load(),
		Failed:       m.failed.Load(),
	}
	if messages > 0 {
		snap.AvgLatency = time.Duration(m.totalLatency.Load() / messages)
	}
	return snap
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Messages     int64         `json:"messages"`
	Rejected     int64         `json:"rejected"`
	PrimarySent  int64         `json:"primary_sent"`
	FallbackSent int64         `json:"fallback_sent"`
	Failed       int64         `json:"failed"`
	AvgLatency   time.Duration `json:"avg_latency_ns"`
}
