package delivery

import (
	"github.com/flemzord/tgsend/internal/markup"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for message delivery.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	deliveries *prometheus.CounterVec
	chunks     *prometheus.CounterVec
	fallbacks  prometheus.Counter
}

// NewMetrics creates the delivery collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tgsend",
			Subsystem: "delivery",
			Name:      "messages_total",
			Help:      "Messages delivered, by terminal status.",
		}, []string{"status"}),
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tgsend",
			Subsystem: "delivery",
			Name:      "chunks_total",
			Help:      "Chunk send attempts, by dialect and outcome.",
		}, []string{"dialect", "outcome"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tgsend",
			Subsystem: "delivery",
			Name:      "fallbacks_total",
			Help:      "Messages whose MarkdownV2 attempt failed and were retried as HTML.",
		}),
	}
	reg.MustRegister(m.deliveries, m.chunks, m.fallbacks)
	return m
}

func (m *Metrics) observeResult(s Status) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(s.String()).Inc()
}

func (m *Metrics) observeChunk(d markup.Dialect, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.chunks.WithLabelValues(d.String(), outcome).Inc()
}

func (m *Metrics) observeFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}
