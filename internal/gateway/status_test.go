package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flemzord/tgsend/internal/delivery"
)

func TestStatus_ReturnsMetrics(t *testing.T) {
	t.Parallel()

	g := New(testGatewayConfig(), Deps{Sender: &fakeSender{}})
	g.startedAt = time.Now().Add(-90 * time.Second)
	g.metrics.RecordDelivery(delivery.StatusPrimarySent, 10*time.Millisecond)
	g.metrics.RecordDelivery(delivery.StatusFailed, 30*time.Millisecond)
	g.metrics.RecordRejected()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+testBearer)
	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Uptime < 90 {
		t.Errorf("Uptime = %d, want >= 90", resp.Uptime)
	}
	m := resp.Metrics
	if m.Messages != 2 || m.PrimarySent != 1 || m.Failed != 1 || m.Rejected != 1 {
		t.Errorf("metrics = %+v", m)
	}
	if m.AvgLatency != 20*time.Millisecond {
		t.Errorf("AvgLatency = %v, want 20ms", m.AvgLatency)
	}
}

func TestStatus_RequiresAuth(t *testing.T) {
	t.Parallel()

	g := New(testGatewayConfig(), Deps{Sender: &fakeSender{}})

	rr := httptest.NewRecorder()
	g.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
