package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
	"github.com/daniacca/doughsim/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "doughsim-server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadServerConfig(os.Args[1:], os.Getenv)
	if err != nil {
		return err
	}

	logger := NewLogger(os.Stderr, cfg.LogLevel)

	defaults := session.DefaultConfig()
	defaults.Width = cfg.Width
	defaults.Height = cfg.Height
	defaults.Depth = cfg.Depth
	defaults.Seed = cfg.Seed
	defaults.MaxDt = cfg.MaxDt
	defaults.FrameEvery = cfg.FrameEvery

	if cfg.RecipeFile != "" {
		recipe, err := dough.LoadRecipeFile(cfg.RecipeFile)
		if err != nil {
			return fmt.Errorf("loading recipe: %w", err)
		}
		defaults.Recipe = recipe
		logger.Infof("recipe loaded: file=%s name=%s", cfg.RecipeFile, recipe.Name)
	}

	srv, err := NewServer(logger, defaults, cfg.TickInterval)
	if err != nil {
		return err
	}
	defer srv.Close()

	if cfg.WebhookURL != "" {
		if err := srv.RegisterWebhook("startup-webhook", cfg.WebhookURL); err != nil {
			return fmt.Errorf("registering webhook: %w", err)
		}
		logger.Infof("webhook registered: url=%s", cfg.WebhookURL)
	}

	if cfg.SessionID != "" {
		id, err := srv.CreateSession(session.ID(cfg.SessionID), nil)
		if err != nil {
			return fmt.Errorf("creating startup session: %w", err)
		}
		if cfg.Autostart {
			sess, _ := srv.manager.Get(id)
			sess.Run(cfg.TickInterval)
			logger.Infof("session started: id=%s interval=%v", id, cfg.TickInterval)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("doughsim-server listening on %s", cfg.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
