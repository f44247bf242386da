package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flemzord/tgsend/internal/config"
	"github.com/flemzord/tgsend/internal/delivery"
)

const testToken = "123456:ABCdefGHIjklMNOpqrSTUvwxYZ0123456789"

// botAPI is a fake Bot API that refuses MarkdownV2 when rejectMarkdown is set.
type botAPI struct {
	rejectMarkdown bool

	mu        sync.Mutex
	parseMode []string
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/getMe") {
		_, _ = io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"tgsend","username":"tgsend_bot"}}`)
		return
	}

	var req struct {
		ParseMode string `json:"parse_mode"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	b.mu.Lock()
	b.parseMode = append(b.parseMode, req.ParseMode)
	b.mu.Unlock()

	if b.rejectMarkdown && req.ParseMode == "MarkdownV2" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: unexpected end"}`)
		return
	}
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":7,"chat":{"id":42,"type":"private"},"date":0}}`)
}

func (b *botAPI) modes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.parseMode...)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func baseConfig(apiURL string) string {
	return fmt.Sprintf(`version: "1"
telegram:
  token: %q
  api_url: %q
  pacing: 1ms
`, testToken, apiURL)
}

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	cfg, _, err := LoadConfig(writeConfig(t, body))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return cfg
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid yaml", body: "not: valid: yaml: ["},
		{name: "missing version", body: "telegram:\n  token: \"1:a\"\n"},
		{name: "missing token", body: "version: \"1\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	if _, _, err := LoadConfig("/nonexistent/tgsend.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuild_FallbackDelivery(t *testing.T) {
	t.Parallel()

	api := &botAPI{rejectMarkdown: true}
	srv := httptest.NewServer(api)
	defer srv.Close()

	var logs bytes.Buffer
	rt, err := Build(context.Background(), BuildParams{
		Config:    loadConfig(t, baseConfig(srv.URL)),
		LogOutput: &logs,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() { _ = rt.Stop(context.Background()) }()

	res := rt.Sender.Send(context.Background(), "42", "Hello **world**")
	if res.Status != delivery.StatusFallbackSent {
		t.Fatalf("Status = %v, want fallback_sent (err %v)", res.Status, res.Err)
	}
	if got := api.modes(); len(got) != 2 || got[0] != "MarkdownV2" || got[1] != "HTML" {
		t.Errorf("parse modes = %v, want [MarkdownV2 HTML]", got)
	}

	families, err := rt.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() == "tgsend_delivery_fallbacks_total" {
			found = true
		}
	}
	if !found {
		t.Error("fallback counter not registered")
	}

	if strings.Contains(logs.String(), testToken) {
		t.Errorf("log output leaks the bot token:\n%s", logs.String())
	}
}

func TestBuild_MetricsDisabled(t *testing.T) {
	t.Parallel()

	cfg := loadConfig(t, baseConfig("http://127.0.0.1:1")+"telemetry:\n  metrics: false\n")
	rt, err := Build(context.Background(), BuildParams{Config: cfg, LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() { _ = rt.Stop(context.Background()) }()

	families, err := rt.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 0 {
		t.Errorf("registry has %d families, want 0", len(families))
	}
}

func TestRuntime_StartStop(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(&botAPI{})
	defer srv.Close()

	auditPath := filepath.Join(t.TempDir(), "audit.jsonl")
	body := baseConfig(srv.URL) + fmt.Sprintf(`gateway:
  enabled: true
  bind: "127.0.0.1:0"
  audit_log: %q
  auth:
    bearer_token: gw-token
schedules:
  - name: nightly
    cron: "@daily"
    chat_id: "42"
    text: "Good night"
`, auditPath)

	rt, err := Build(context.Background(), BuildParams{Config: loadConfig(t, body), LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := rt.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	base := "http://" + rt.Gateway.Addr().String()

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var health struct {
		Bot string `json:"bot"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&health)
	_ = resp.Body.Close()
	if health.Bot != "tgsend_bot" {
		t.Errorf("health bot = %q, want tgsend_bot", health.Bot)
	}

	req, _ := http.NewRequest(http.MethodPost, base+"/api/messages", strings.NewReader(`{"chat_id":"42","text":"hi"}`))
	req.Header.Set("Authorization", "Bearer gw-token")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/messages: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("POST status = %d", resp.StatusCode)
	}

	if err := rt.Scheduler.RunJob(context.Background(), "broadcast:nightly"); err != nil {
		t.Errorf("RunJob: %v", err)
	}

	if err := rt.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	audit, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if !strings.Contains(string(audit), `"type":"delivery"`) {
		t.Errorf("audit log missing delivery event:\n%s", audit)
	}
	if strings.Contains(string(audit), "gw-token") {
		t.Error("audit log leaks the gateway token")
	}
}

func TestRuntime_StartBadToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer srv.Close()

	rt, err := Build(context.Background(), BuildParams{Config: loadConfig(t, baseConfig(srv.URL)), LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer func() { _ = rt.Stop(context.Background()) }()

	if err := rt.Start(context.Background()); err == nil {
		t.Fatal("expected getMe failure")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(&botAPI{})
	defer srv.Close()

	path := writeConfig(t, baseConfig(srv.URL))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Run(ctx, RunParams{ConfigPath: path, Version: "test", LogOutput: io.Discard}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_InvalidConfigPath(t *testing.T) {
	t.Parallel()

	if err := Run(context.Background(), RunParams{ConfigPath: "/nonexistent/config.yaml"}); err == nil {
		t.Error("expected error for invalid config path")
	}
}

func TestReloadRuntime(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(&botAPI{})
	defer srv.Close()

	path := writeConfig(t, baseConfig(srv.URL))
	params := RunParams{ConfigPath: path, LogOutput: io.Discard}
	ctx := context.Background()

	cfg, _, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	rt, err := Build(ctx, params.buildParams(cfg))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if rt.Gateway != nil {
		t.Fatal("gateway should be disabled initially")
	}

	// An invalid file keeps the running configuration.
	if err := os.WriteFile(path, []byte("version: \"9\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := reloadRuntime(ctx, rt, path, params); got != rt {
		t.Fatal("invalid config replaced the runtime")
	}

	// A valid file swaps in new components.
	body := baseConfig(srv.URL) + "gateway:\n  enabled: true\n  bind: \"127.0.0.1:0\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	next := reloadRuntime(ctx, rt, path, params)
	if next == rt {
		t.Fatal("valid config did not replace the runtime")
	}
	if next.Gateway == nil || next.Gateway.Addr() == nil {
		t.Fatal("reloaded runtime has no running gateway")
	}
	stopRuntime(ctx, next)
}

func TestReloadRuntime_RestoresOnStartFailure(t *testing.T) {
	t.Parallel()

	good := httptest.NewServer(&botAPI{})
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer bad.Close()

	path := writeConfig(t, baseConfig(good.URL))
	params := RunParams{ConfigPath: path, LogOutput: io.Discard}
	ctx := context.Background()

	cfg, _, _ := LoadConfig(path)
	rt, err := Build(ctx, params.buildParams(cfg))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := rt.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := os.WriteFile(path, []byte(baseConfig(bad.URL)), 0o600); err != nil {
		t.Fatal(err)
	}
	restored := reloadRuntime(ctx, rt, path, params)
	defer stopRuntime(ctx, restored)

	tgCfg := restored.Telegram.Config()
	if tgCfg.APIURL != good.URL {
		t.Errorf("restored API URL = %q, want %q", tgCfg.APIURL, good.URL)
	}
}
