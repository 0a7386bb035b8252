package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
	"github.com/daniacca/doughsim/internal/session"
	"github.com/daniacca/doughsim/internal/session/notifiers"
)

// streamNotifierID is the built-in notifier behind the /stream endpoints.
const streamNotifierID = "stream"

// Server represents the HTTP server for doughsim
type Server struct {
	manager       *session.Manager
	notifications *session.NotificationManager
	stream        *notifiers.WebSocketNotifier
	defaults      session.Config
	tickInterval  time.Duration
	logger        *Logger
}

// NewServer creates a server whose new sessions start from defaults.
func NewServer(logger *Logger, defaults session.Config, tickInterval time.Duration) (*Server, error) {
	nm := session.NewNotificationManager(logger)
	stream := notifiers.NewWebSocketNotifier(streamNotifierID)
	if err := nm.RegisterNotifier(stream); err != nil {
		return nil, fmt.Errorf("registering stream notifier: %w", err)
	}
	if tickInterval <= 0 {
		tickInterval = 16 * time.Millisecond
	}

	return &Server{
		manager:       session.NewManager(nm, logger),
		notifications: nm,
		stream:        stream,
		defaults:      defaults,
		tickInterval:  tickInterval,
		logger:        logger,
	}, nil
}

// Routes returns the HTTP handler for every endpoint.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/kinds", s.handleKinds)
	mux.HandleFunc("/stream", s.handleStream)
	mux.HandleFunc("/sessions", s.handleSessionsRoot)
	mux.HandleFunc("/sessions/", s.handleSessionRoutes)
	mux.HandleFunc("/notifiers", s.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", s.handleNotifiersRoutes)
	return mux
}

// CreateSession creates a session from the server defaults.
func (s *Server) CreateSession(id session.ID, recipe *dough.RecipeConfig) (session.ID, error) {
	cfg := s.defaults
	if recipe != nil {
		cfg.Recipe = *recipe
	}
	return s.manager.Create(id, cfg)
}

// RegisterWebhook subscribes a webhook to every event except frames.
func (s *Server) RegisterWebhook(id, url string) error {
	wh := notifiers.NewWebhookNotifier(id, url)
	return s.notifications.RegisterNotifier(wh,
		session.EventIngredient, session.EventPhase, session.EventForce, session.EventReset)
}

// Close stops every session and closes all notifiers.
func (s *Server) Close() error {
	s.manager.StopAll()
	return s.notifications.Close()
}
