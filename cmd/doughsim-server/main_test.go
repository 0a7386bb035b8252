package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
	"github.com/daniacca/doughsim/internal/session"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	defaults := session.DefaultConfig()
	defaults.Width, defaults.Height, defaults.Depth = 200, 200, 200
	defaults.Seed = 7

	srv, err := NewServer(NewLogger(io.Discard, "error"), defaults, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return srv, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, err := loadServerConfig(nil, func(string) string { return "" })
	if err != nil {
		t.Fatalf("loadServerConfig failed: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.SessionID != "default" || cfg.LogLevel != "info" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.Width != 1000 || cfg.Height != 720 || cfg.Depth != 1000 {
		t.Errorf("Expected 1000x720x1000, got %vx%vx%v", cfg.Width, cfg.Height, cfg.Depth)
	}
	if cfg.TickInterval != 16*time.Millisecond || cfg.MaxDt != 0.05 || cfg.Autostart {
		t.Errorf("Unexpected stepping defaults: %+v", cfg)
	}
}

func TestLoadServerConfig_Precedence(t *testing.T) {
	env := map[string]string{
		"DOUGHSIM_ADDR":      ":9000",
		"DOUGHSIM_SEED":      "11",
		"DOUGHSIM_AUTOSTART": "true",
	}
	cfg, err := loadServerConfig([]string{"-addr", ":7000", "-width", "500"}, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("loadServerConfig failed: %v", err)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("Expected flag to win over env, got %s", cfg.Addr)
	}
	if cfg.Seed != 11 || !cfg.Autostart {
		t.Errorf("Expected env values applied, got seed=%d autostart=%v", cfg.Seed, cfg.Autostart)
	}
	if cfg.Width != 500 {
		t.Errorf("Expected width 500, got %v", cfg.Width)
	}
}

func TestLoadServerConfig_Invalid(t *testing.T) {
	_, err := loadServerConfig([]string{"-tick-interval-ms", "fast"}, func(string) string { return "" })
	if err == nil || !strings.Contains(err.Error(), "tick-interval-ms") {
		t.Errorf("Expected error naming the option, got %v", err)
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Infof("hidden %d", 1)
	logger.Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected info suppressed at warn level")
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("Expected warning logged, got %q", out)
	}
	if parseLogLevel("bogus") != LogLevelInfo {
		t.Error("Expected unknown level to default to info")
	}
}

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		path, id, rest string
	}{
		{"/sessions/abc", "abc", ""},
		{"/sessions/abc/salt", "abc", "/salt"},
		{"/other/abc", "", ""},
	}
	for _, tt := range tests {
		id, rest := extractSessionID(tt.path)
		if string(id) != tt.id || rest != tt.rest {
			t.Errorf("extractSessionID(%q) = (%q, %q), want (%q, %q)", tt.path, id, rest, tt.id, tt.rest)
		}
	}
}

func TestServer_Health(t *testing.T) {
	_, ts := newTestServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("Expected 200 ok, got %d %q", resp.StatusCode, body)
	}
}

func TestServer_SessionLifecycle(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/sessions", `{"id":"bake"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodPost, ts.URL+"/sessions/bake/salt", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}
	var spawned map[string]int
	json.Unmarshal(body, &spawned)
	if spawned["spawned"] == 0 {
		t.Errorf("Expected salt spawned, got %s", body)
	}

	do(t, http.MethodPost, ts.URL+"/sessions/bake/yeast", "")
	resp, body = do(t, http.MethodPost, ts.URL+"/sessions/bake/tick?dt=0.05&n=5", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/sessions/bake", "")
	var info session.Info
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("Failed to decode info: %v (%s)", err, body)
	}
	if info.Steps != 5 {
		t.Errorf("Expected 5 steps, got %d", info.Steps)
	}
	if info.Stats.Phase != dough.PhaseFermentation {
		t.Errorf("Expected fermentation phase, got %s", info.Stats.Phase)
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/sessions/bake/snapshot", "")
	snap, err := dough.DecodeSnapshotJSON(body)
	if err != nil {
		t.Fatalf("Failed to decode snapshot: %v", err)
	}
	if err := dough.ValidateSnapshot(snap); err != nil {
		t.Errorf("Expected valid snapshot, got %v", err)
	}
	if len(snap.Molecules) != info.Stats.Molecules {
		t.Errorf("Expected %d molecules, got %d", info.Stats.Molecules, len(snap.Molecules))
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/sessions/bake/molecules?kind=yeast", "")
	var yeast []dough.MoleculeView
	json.Unmarshal(body, &yeast)
	if len(yeast) != info.Stats.Counts[dough.Yeast] {
		t.Errorf("Expected %d yeast, got %d", info.Stats.Counts[dough.Yeast], len(yeast))
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/sessions/bake/molecules?kind=flour", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown kind, got %d", resp.StatusCode)
	}

	resp, _ = do(t, http.MethodDelete, ts.URL+"/sessions/bake", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 on delete, got %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/sessions/bake", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestServer_CreateSessionErrors(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := do(t, http.MethodPost, ts.URL+"/sessions", `{"recipe":{"name":"x","hydration":3}}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid recipe, got %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodPost, ts.URL+"/sessions", `{bad`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid JSON, got %d", resp.StatusCode)
	}

	resp, body := do(t, http.MethodPost, ts.URL+"/sessions", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected empty body to use defaults, got %d: %s", resp.StatusCode, body)
	}
	var created map[string]string
	json.Unmarshal(body, &created)
	if created["id"] == "" {
		t.Error("Expected a generated ID")
	}

	resp, body = do(t, http.MethodGet, ts.URL+"/sessions", "")
	var list struct {
		Sessions []session.Info `json:"sessions"`
	}
	json.Unmarshal(body, &list)
	if len(list.Sessions) != 1 {
		t.Errorf("Expected 1 session listed, got %d", len(list.Sessions))
	}
}

func TestServer_Commands(t *testing.T) {
	srv, ts := newTestServer(t)
	if _, err := srv.CreateSession("s", nil); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"fold", http.MethodPost, "/sessions/s/fold", "", http.StatusOK},
		{"force", http.MethodPost, "/sessions/s/force", `{"center":{"x":100,"y":100,"z":100},"radius":30,"force":{"x":0,"y":5,"z":0}}`, http.StatusOK},
		{"force without radius", http.MethodPost, "/sessions/s/force", `{"center":{"x":1,"y":1,"z":1}}`, http.StatusBadRequest},
		{"temperature", http.MethodPost, "/sessions/s/temperature", `{"temperature":30}`, http.StatusOK},
		{"temperature missing", http.MethodPost, "/sessions/s/temperature", `{}`, http.StatusBadRequest},
		{"speed", http.MethodPost, "/sessions/s/speed", `{"speed":2}`, http.StatusOK},
		{"bad speed", http.MethodPost, "/sessions/s/speed", `{"speed":-1}`, http.StatusBadRequest},
		{"bad tick", http.MethodPost, "/sessions/s/tick?n=0", "", http.StatusBadRequest},
		{"bad dt", http.MethodPost, "/sessions/s/tick?dt=abc", "", http.StatusBadRequest},
		{"bonds", http.MethodGet, "/sessions/s/bonds", "", http.StatusOK},
		{"stats", http.MethodGet, "/sessions/s/stats", "", http.StatusOK},
		{"reset default", http.MethodPost, "/sessions/s/reset", "", http.StatusOK},
		{"reset recipe", http.MethodPost, "/sessions/s/reset", `{"name":"tiny","flour_proteins":5,"water":5}`, http.StatusOK},
		{"reset invalid", http.MethodPost, "/sessions/s/reset", `{"salt":0.5}`, http.StatusBadRequest},
		{"unknown route", http.MethodPost, "/sessions/s/bake", "", http.StatusNotFound},
		{"unknown session", http.MethodPost, "/sessions/nope/salt", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, tt.method, ts.URL+tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("Expected %d, got %d: %s", tt.want, resp.StatusCode, body)
			}
		})
	}

	sess, _ := srv.manager.Get("s")
	if got := sess.Stats().Molecules; got != 10 {
		t.Errorf("Expected reset recipe applied, got %d molecules", got)
	}
	if sess.Config().Speed != 2 {
		t.Errorf("Expected speed 2, got %v", sess.Config().Speed)
	}
}

func TestServer_StartStop(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.CreateSession("run", nil)
	sess, _ := srv.manager.Get("run")

	resp, _ := do(t, http.MethodPost, ts.URL+"/sessions/run/start?interval=abc", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad interval, got %d", resp.StatusCode)
	}

	do(t, http.MethodPost, ts.URL+"/sessions/run/start?interval=5", "")
	deadline := time.Now().Add(2 * time.Second)
	for sess.Steps() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sess.Steps() < 2 {
		t.Fatal("Expected running session to step")
	}

	do(t, http.MethodPost, ts.URL+"/sessions/run/stop", "")
	if sess.IsRunning() {
		t.Error("Expected session stopped")
	}
}

func TestServer_Notifiers(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := do(t, http.MethodPost, ts.URL+"/notifiers",
		`{"type":"webhook","id":"hook","events":["phase"],"config":{"url":"http://127.0.0.1:1/hook","headers":{"X-Key":"k"}}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.StatusCode, body)
	}

	badRequests := []string{
		`{"type":"webhook","id":"hook2","config":{}}`,
		`{"type":"carrier-pigeon","id":"p"}`,
		`{"type":"webhook","id":"","config":{"url":"http://x"}}`,
		`{"type":"webhook","id":"hook3","events":["bake"],"config":{"url":"http://x"}}`,
		`{"type":"webhook","id":"hook","config":{"url":"http://x"}}`,
	}
	for _, b := range badRequests {
		if resp, _ := do(t, http.MethodPost, ts.URL+"/notifiers", b); resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", b, resp.StatusCode)
		}
	}

	_, body = do(t, http.MethodGet, ts.URL+"/notifiers", "")
	var list struct {
		Notifiers []notifierInfo `json:"notifiers"`
	}
	json.Unmarshal(body, &list)
	if len(list.Notifiers) != 2 || list.Notifiers[0].ID != "hook" || list.Notifiers[1].ID != streamNotifierID {
		t.Errorf("Expected hook and stream notifiers, got %+v", list.Notifiers)
	}

	if resp, _ := do(t, http.MethodDelete, ts.URL+"/notifiers/"+streamNotifierID, ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected stream notifier protected, got %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodDelete, ts.URL+"/notifiers/hook", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 on unregister, got %d", resp.StatusCode)
	}
	if resp, _ := do(t, http.MethodDelete, ts.URL+"/notifiers/hook", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown notifier, got %d", resp.StatusCode)
	}
}

func TestServer_Stream(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.CreateSession("live", nil)
	srv.CreateSession("other", nil)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/live/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.stream.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	do(t, http.MethodPost, ts.URL+"/sessions/other/salt", "")
	do(t, http.MethodPost, ts.URL+"/sessions/live/salt", "")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var ev session.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if ev.SessionID != "live" || ev.Type != session.EventIngredient || ev.Ingredient != "salt" {
		t.Errorf("Expected salt event from 'live', got %+v", ev)
	}
}

func TestServer_Kinds(t *testing.T) {
	_, ts := newTestServer(t)
	_, body := do(t, http.MethodGet, ts.URL+"/kinds", "")
	var resp struct {
		Kinds []kindInfo `json:"kinds"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Failed to decode kinds: %v", err)
	}
	if len(resp.Kinds) != len(dough.Kinds) || resp.Kinds[4].Name != "co2" || resp.Kinds[4].Radius != 8 {
		t.Errorf("Unexpected kinds: %+v", resp.Kinds)
	}
}
