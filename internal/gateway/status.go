package gateway

import (
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Uptime  int64           `json:"uptime_seconds"`
	Metrics MetricsSnapshot `json:"metrics"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		g.mu.Lock()
		started := g.startedAt
		g.mu.Unlock()

		writeJSON(w, http.StatusOK, StatusResponse{
			Uptime:  int64(time.Since(started) / time.Second),
			Metrics: g.metrics.Snapshot(),
		})
	}
}
