package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
	"github.com/daniacca/doughsim/internal/session"
	"github.com/daniacca/doughsim/internal/session/notifiers"
)

// maxTicksPerRequest bounds POST /sessions/{id}/tick.
const maxTicksPerRequest = 10000

// extractSessionID splits "/sessions/{id}/rest" into the ID and "/rest".
func extractSessionID(path string) (session.ID, string) {
	if !strings.HasPrefix(path, "/sessions/") {
		return "", ""
	}

	rest := path[len("/sessions/"):]
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return session.ID(rest), ""
	}
	return session.ID(rest[:idx]), rest[idx:]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}

// decodeOptional decodes a JSON body into v. An empty body is not an error
// and reports false.
func decodeOptional(r *http.Request, v any) (bool, error) {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// overlayRecipe applies the fields present in data on top of base and
// validates the result.
func overlayRecipe(base dough.RecipeConfig, data []byte) (dough.RecipeConfig, error) {
	recipe := base
	if err := json.Unmarshal(data, &recipe); err != nil {
		return dough.RecipeConfig{}, err
	}
	if err := dough.ValidateRecipeConfig(recipe); err != nil {
		return dough.RecipeConfig{}, err
	}
	return recipe, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type kindInfo struct {
	Name   string  `json:"name"`
	Radius float32 `json:"radius"`
	Mass   float32 `json:"mass"`
}

// GET /kinds
// Radius and mass per molecule kind, for renderers.
func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	kinds := make([]kindInfo, 0, len(dough.Kinds))
	for _, k := range dough.Kinds {
		kinds = append(kinds, kindInfo{Name: k.String(), Radius: k.Radius(), Mass: k.Mass()})
	}
	writeJSON(w, map[string]any{"kinds": kinds})
}

func (s *Server) handleSessionsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListSessions(w, r)
	case http.MethodPost:
		s.handleCreateSession(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /sessions
func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	ids := s.manager.List()
	infos := make([]session.Info, 0, len(ids))
	for _, id := range ids {
		if sess, ok := s.manager.Get(id); ok {
			infos = append(infos, sess.Info())
		}
	}
	writeJSON(w, map[string]any{"sessions": infos})
}

// POST /sessions
// Body (all optional): { "id": "...", "width": 1000, "seed": 7, "recipe": {...}, ... }
type createSessionRequest struct {
	ID         string  `json:"id"`
	Width      float32 `json:"width"`
	Height     float32 `json:"height"`
	Depth      float32 `json:"depth"`
	Seed       int64   `json:"seed"`
	Recipe     json.RawMessage `json:"recipe"`
	MaxDt      float32         `json:"max_dt"`
	Speed      float32         `json:"speed"`
	FrameEvery int             `json:"frame_every"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req createSessionRequest
	if _, err := decodeOptional(r, &req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	cfg := s.defaults
	if req.Width != 0 {
		cfg.Width = req.Width
	}
	if req.Height != 0 {
		cfg.Height = req.Height
	}
	if req.Depth != 0 {
		cfg.Depth = req.Depth
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if len(req.Recipe) > 0 {
		recipe, err := overlayRecipe(cfg.Recipe, req.Recipe)
		if err != nil {
			http.Error(w, "invalid recipe: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfg.Recipe = recipe
	}
	if req.MaxDt != 0 {
		cfg.MaxDt = req.MaxDt
	}
	if req.Speed != 0 {
		cfg.Speed = req.Speed
	}
	if req.FrameEvery != 0 {
		cfg.FrameEvery = req.FrameEvery
	}

	id, err := s.manager.Create(session.ID(req.ID), cfg)
	if err != nil {
		http.Error(w, "cannot create session: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Infof("session created over http: id=%s", id)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": string(id)})
}

// handleSessionRoutes routes /sessions/{id}/... to session handlers.
func (s *Server) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	id, rest := extractSessionID(r.URL.Path)
	if id == "" {
		http.Error(w, "session ID is required in path: /sessions/{id}/...", http.StatusBadRequest)
		return
	}

	sess, ok := s.manager.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		writeJSON(w, sess.Info())
	case rest == "" && r.Method == http.MethodDelete:
		s.handleDeleteSession(w, r, id)
	case rest == "/salt" && r.Method == http.MethodPost:
		writeJSON(w, map[string]int{"spawned": sess.AddSalt()})
	case rest == "/yeast" && r.Method == http.MethodPost:
		writeJSON(w, map[string]int{"spawned": sess.AddYeast()})
	case rest == "/fold" && r.Method == http.MethodPost:
		writeJSON(w, map[string]int{"affected": sess.Fold()})
	case rest == "/force" && r.Method == http.MethodPost:
		s.handleForce(w, r, sess)
	case rest == "/temperature" && r.Method == http.MethodPost:
		s.handleTemperature(w, r, sess)
	case rest == "/speed" && r.Method == http.MethodPost:
		s.handleSpeed(w, r, sess)
	case rest == "/reset" && r.Method == http.MethodPost:
		s.handleReset(w, r, sess)
	case rest == "/tick" && r.Method == http.MethodPost:
		s.handleTick(w, r, sess)
	case rest == "/start" && r.Method == http.MethodPost:
		s.handleStart(w, r, sess)
	case rest == "/stop" && r.Method == http.MethodPost:
		sess.Stop()
		s.logger.Infof("session stopped: id=%s", id)
		_, _ = w.Write([]byte("session stopped"))
	case rest == "/stats" && r.Method == http.MethodGet:
		writeJSON(w, sess.Stats())
	case rest == "/snapshot" && r.Method == http.MethodGet:
		writeJSON(w, sess.Snapshot())
	case rest == "/molecules" && r.Method == http.MethodGet:
		s.handleMolecules(w, r, sess)
	case rest == "/bonds" && r.Method == http.MethodGet:
		writeJSON(w, sess.Snapshot().Bonds)
	case rest == "/stream" && r.Method == http.MethodGet:
		s.serveStream(w, r, id)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// DELETE /sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, _ *http.Request, id session.ID) {
	if err := s.manager.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte("session deleted"))
}

// POST /sessions/{id}/force
// Body: { "center": {"x":..,"y":..,"z":..}, "radius": 50, "force": {...} }
type forceRequest struct {
	Center dough.Vec3 `json:"center"`
	Radius float32    `json:"radius"`
	Force  dough.Vec3 `json:"force"`
}

func (s *Server) handleForce(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	defer r.Body.Close()

	var req forceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Radius <= 0 {
		http.Error(w, "radius must be positive", http.StatusBadRequest)
		return
	}
	if !req.Center.IsFinite() || !req.Force.IsFinite() {
		http.Error(w, "center and force must be finite", http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]int{"affected": sess.ApplyForce(req.Center, req.Radius, req.Force)})
}

// POST /sessions/{id}/temperature
// Body: { "temperature": 28 }
func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	defer r.Body.Close()

	var req struct {
		Temperature *float32 `json:"temperature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Temperature == nil {
		http.Error(w, "temperature is required", http.StatusBadRequest)
		return
	}
	if err := sess.SetTemperature(*req.Temperature); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

// POST /sessions/{id}/speed
// Body: { "speed": 2 }
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	defer r.Body.Close()

	var req struct {
		Speed float32 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.SetSpeed(req.Speed); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

// POST /sessions/{id}/reset
// Optional body: a recipe replacing the session's recipe.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	defer r.Body.Close()

	var raw json.RawMessage
	present, err := decodeOptional(r, &raw)
	if err != nil {
		http.Error(w, "invalid recipe json: "+err.Error(), http.StatusBadRequest)
		return
	}

	var override *dough.RecipeConfig
	if present {
		recipe, err := overlayRecipe(sess.Config().Recipe, raw)
		if err != nil {
			http.Error(w, "cannot reset: "+err.Error(), http.StatusBadRequest)
			return
		}
		override = &recipe
	}
	if err := sess.Reset(override); err != nil {
		http.Error(w, "cannot reset: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("session reset: id=%s", sess.ID())
	_, _ = w.Write([]byte("session reset"))
}

// POST /sessions/{id}/tick?dt=0.016&n=10
// Steps the session manually; dt defaults to the session's max step.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	dt := sess.Config().MaxDt
	if v := r.URL.Query().Get("dt"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil || f <= 0 {
			http.Error(w, "invalid dt: must be a positive number of seconds", http.StatusBadRequest)
			return
		}
		dt = float32(f)
	}

	n := 1
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > maxTicksPerRequest {
			http.Error(w, "invalid n: must be between 1 and "+strconv.Itoa(maxTicksPerRequest), http.StatusBadRequest)
			return
		}
		n = parsed
	}

	applied := sess.StepN(dt, n)
	writeJSON(w, map[string]any{"applied": applied, "stats": sess.Stats()})
}

// POST /sessions/{id}/start?interval=16
// Interval is in milliseconds and defaults to the server tick interval.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	interval := s.tickInterval
	if v := r.URL.Query().Get("interval"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
		interval = time.Duration(ms) * time.Millisecond
	}

	sess.Run(interval)
	s.logger.Infof("session started: id=%s interval=%v", sess.ID(), interval)
	_, _ = w.Write([]byte("session started"))
}

// GET /sessions/{id}/molecules?kind=glutenin
func (s *Server) handleMolecules(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	mols := sess.Snapshot().Molecules

	if name := r.URL.Query().Get("kind"); name != "" {
		kind, err := dough.ParseKind(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filtered := make([]dough.MoleculeView, 0)
		for _, m := range mols {
			if m.Kind == kind {
				filtered = append(filtered, m)
			}
		}
		mols = filtered
	}

	writeJSON(w, mols)
}

// GET /stream
// Every session's events over a WebSocket.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.serveStream(w, r, "")
}

// serveStream upgrades the request and registers the connection with the
// stream notifier. The read loop only watches for the client going away.
func (s *Server) serveStream(w http.ResponseWriter, r *http.Request, filter session.ID) {
	upgrader := s.stream.GetUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	s.stream.RegisterClient(conn, filter)
	s.logger.Debugf("stream client connected: session=%q", filter)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.stream.UnregisterClient(conn)
				return
			}
		}
	}()
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type notifierInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// GET /notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	ids := s.notifications.ListNotifiers()
	infos := make([]notifierInfo, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.notifications.GetNotifier(id); ok {
			infos = append(infos, notifierInfo{ID: id, Type: n.Type()})
		}
	}
	writeJSON(w, map[string]any{"notifiers": infos})
}

// POST /notifiers
// Body: { "type": "webhook", "id": "my-hook", "events": ["phase"],
//         "config": { "url": "http://...", "headers": {...} } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Events []string       `json:"events"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	types := make([]session.EventType, 0, len(req.Events))
	for _, name := range req.Events {
		t, ok := session.ParseEventType(name)
		if !ok {
			http.Error(w, "unknown event type: "+name, http.StatusBadRequest)
			return
		}
		types = append(types, t)
	}

	var notifier session.Notifier
	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := notifiers.NewWebhookNotifier(req.ID, url)
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}
		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.notifications.RegisterNotifier(notifier, types...); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("notifier registered: id=%s type=%s", req.ID, req.Type)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}
	if notifierID == streamNotifierID {
		http.Error(w, "the stream notifier cannot be removed", http.StatusBadRequest)
		return
	}

	if err := s.notifications.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	_, _ = w.Write([]byte("notifier unregistered"))
}
