package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/flemzord/tgsend/internal/channel"
	"github.com/flemzord/tgsend/internal/delivery"
	"github.com/flemzord/tgsend/internal/security"
	"github.com/flemzord/tgsend/modules/channel/telegram"
)

// Send modes accepted by POST /api/messages.
const (
	ModeAuto = "auto"
	ModeHTML = "html"
)

// SendRequest is the JSON body of POST /api/messages.
type SendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
	// Mode is "auto" (MarkdownV2 with HTML fallback, the default) or
	// "html" (minimally escaped HTML only).
	Mode string `json:"mode,omitempty"`
}

// SendResponse is the JSON response of POST /api/messages.
type SendResponse struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

// PreviewRequest is the JSON body of POST /api/preview.
type PreviewRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleSendMessage delivers a message and reports its terminal status.
// The delivery outlives a client disconnect: once accepted, a message is
// sent in full.
func (g *Gateway) handleSendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := g.limiter.Allow(security.KindMessage); err != nil {
			g.metrics.RecordRejected()
			g.deps.Audit.Log(security.AuditEvent{Type: security.EventRateLimit, Detail: "message"})
			writeError(w, http.StatusTooManyRequests, err)
			return
		}

		var req SendRequest
		if status, err := decodeBody(r, &req); err != nil {
			g.metrics.RecordRejected()
			writeError(w, status, err)
			return
		}
		if _, err := telegram.ParseChatID(req.ChatID); err != nil {
			g.metrics.RecordRejected()
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if g.allowed != nil && !g.allowed.IsAllowed(req.ChatID) {
			g.metrics.RecordRejected()
			g.deps.Audit.Log(security.AuditEvent{
				Type:   security.EventDelivery,
				ChatID: req.ChatID,
				Detail: "chat not allowed",
			})
			writeError(w, http.StatusForbidden, channel.ErrDenied)
			return
		}
		if req.Text == "" {
			g.metrics.RecordRejected()
			writeError(w, http.StatusBadRequest, errors.New("text is required"))
			return
		}

		ctx := context.WithoutCancel(r.Context())
		start := time.Now()

		var res delivery.Result
		switch req.Mode {
		case "", ModeAuto:
			res = g.deps.Sender.Send(ctx, req.ChatID, req.Text)
		case ModeHTML:
			res = g.deps.Sender.SendFallback(ctx, req.ChatID, req.Text)
		default:
			g.metrics.RecordRejected()
			writeError(w, http.StatusBadRequest, errors.New(`mode must be "auto" or "html"`))
			return
		}

		g.metrics.RecordDelivery(res.Status, time.Since(start))
		g.deps.Audit.Log(security.AuditEvent{
			Type:   security.EventDelivery,
			ChatID: req.ChatID,
			Detail: res.Status.String(),
		})

		resp := SendResponse{Status: res.Status.String(), Chunks: len(res.Sent)}
		status := http.StatusOK
		if !res.OK() {
			status = http.StatusBadGateway
			if res.Err != nil {
				resp.Error = res.Err.Error()
			}
		}
		writeJSON(w, status, resp)
	}
}

// handlePreview returns the chunk layout of a message in both dialects
// without sending it.
func (g *Gateway) handlePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreviewRequest
		if status, err := decodeBody(r, &req); err != nil {
			writeError(w, status, err)
			return
		}
		writeJSON(w, http.StatusOK, g.deps.Sender.Plan(req.Text))
	}
}

// decodeBody reads a size- and depth-limited JSON body into v. On failure
// it returns the HTTP status to answer with.
func decodeBody(r *http.Request, v any) (int, error) {
	data, err := security.ReadBody(r.Body, 0)
	if err != nil {
		if errors.Is(err, security.ErrBodyTooLarge) {
			return http.StatusRequestEntityTooLarge, err
		}
		return http.StatusBadRequest, err
	}
	if err := security.ValidateJSONDepth(data, 0); err != nil {
		return http.StatusBadRequest, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return http.StatusBadRequest, err
	}
	return http.StatusOK, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
