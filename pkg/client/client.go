package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
	"github.com/daniacca/doughsim/internal/session"
)

// RecipeBuilder provides a fluent API for building recipes.
// It starts from the classic recipe, so only the fields that differ need
// to be set.
type RecipeBuilder struct {
	cfg dough.RecipeConfig
}

// NewRecipe creates a recipe builder with the given name on top of the
// classic recipe.
func NewRecipe(name string) *RecipeBuilder {
	cfg := dough.DefaultRecipe()
	cfg.Name = name
	return &RecipeBuilder{cfg: cfg}
}

// Hydration sets water as a fraction of flour weight (0.72 = 72%).
func (rb *RecipeBuilder) Hydration(v float32) *RecipeBuilder {
	rb.cfg.Hydration = v
	return rb
}

// Salt sets salt as a fraction of flour weight.
func (rb *RecipeBuilder) Salt(v float32) *RecipeBuilder {
	rb.cfg.Salt = v
	return rb
}

// Yeast sets levain as a fraction of flour weight.
func (rb *RecipeBuilder) Yeast(v float32) *RecipeBuilder {
	rb.cfg.Yeast = v
	return rb
}

// Autolyse sets the rest before salt is added, in seconds.
func (rb *RecipeBuilder) Autolyse(seconds float32) *RecipeBuilder {
	rb.cfg.AutolyseTime = seconds
	return rb
}

// Temperature sets the dough temperature in °C.
func (rb *RecipeBuilder) Temperature(celsius float32) *RecipeBuilder {
	rb.cfg.Temperature = celsius
	return rb
}

// Molecules sets how many flour proteins and water molecules are spawned.
func (rb *RecipeBuilder) Molecules(proteins, water int) *RecipeBuilder {
	rb.cfg.FlourProteins = proteins
	rb.cfg.Water = water
	return rb
}

// GluteninShare sets the probability that a flour protein is glutenin.
func (rb *RecipeBuilder) GluteninShare(p float32) *RecipeBuilder {
	rb.cfg.GluteninShare = p
	return rb
}

// Build returns the recipe without validating it.
func (rb *RecipeBuilder) Build() dough.RecipeConfig {
	return rb.cfg
}

// Validate checks the recipe against the ranges the server accepts.
func (rb *RecipeBuilder) Validate() error {
	return dough.ValidateRecipeConfig(rb.cfg)
}

// SessionOptions describes a session to create. Zero fields take the
// server's defaults.
type SessionOptions struct {
	ID         string              `json:"id,omitempty"`
	Width      float32             `json:"width,omitempty"`
	Height     float32             `json:"height,omitempty"`
	Depth      float32             `json:"depth,omitempty"`
	Seed       int64               `json:"seed,omitempty"`
	Recipe     *dough.RecipeConfig `json:"recipe,omitempty"`
	MaxDt      float32             `json:"max_dt,omitempty"`
	Speed      float32             `json:"speed,omitempty"`
	FrameEvery int                 `json:"frame_every,omitempty"`
}

// TickResult is the answer to a manual tick.
type TickResult struct {
	Applied float32     `json:"applied"`
	Stats   dough.Stats `json:"stats"`
}

// NotifierInfo describes a registered notifier.
type NotifierInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// StatusError is returned when the server answers with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to a doughsim server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) do(ctx context.Context, method string, query url.Values, body any, out any, elems ...string) error {
	u, err := url.JoinPath(c.baseURL, elems...)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, nil, nil, nil, "healthz")
}

// CreateSession creates a session and returns its ID.
func (c *Client) CreateSession(ctx context.Context, opts SessionOptions) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, nil, opts, &resp, "sessions"); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// ListSessions returns every session, sorted by ID.
func (c *Client) ListSessions(ctx context.Context) ([]session.Info, error) {
	var resp struct {
		Sessions []session.Info `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, nil, nil, &resp, "sessions"); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (session.Info, error) {
	var info session.Info
	err := c.do(ctx, http.MethodGet, nil, nil, &info, "sessions", id)
	return info, err
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, nil, "sessions", id)
}

// AddSalt spreads salt in the session and returns how many molecules were
// spawned; zero when salt was already added.
func (c *Client) AddSalt(ctx context.Context, id string) (int, error) {
	return c.count(ctx, id, "salt", "spawned")
}

// AddYeast spreads yeast and sugar and returns the yeast count.
func (c *Client) AddYeast(ctx context.Context, id string) (int, error) {
	return c.count(ctx, id, "yeast", "spawned")
}

// Fold performs one stretch-and-fold and returns the molecules moved.
func (c *Client) Fold(ctx context.Context, id string) (int, error) {
	return c.count(ctx, id, "fold", "affected")
}

func (c *Client) count(ctx context.Context, id, action, key string) (int, error) {
	var resp map[string]int
	if err := c.do(ctx, http.MethodPost, nil, nil, &resp, "sessions", id, action); err != nil {
		return 0, err
	}
	return resp[key], nil
}

// ApplyForce pushes every molecule strictly within radius of center.
func (c *Client) ApplyForce(ctx context.Context, id string, center dough.Vec3, radius float32, force dough.Vec3) (int, error) {
	body := map[string]any{"center": center, "radius": radius, "force": force}
	var resp map[string]int
	if err := c.do(ctx, http.MethodPost, nil, body, &resp, "sessions", id, "force"); err != nil {
		return 0, err
	}
	return resp["affected"], nil
}

func (c *Client) SetTemperature(ctx context.Context, id string, celsius float32) error {
	return c.do(ctx, http.MethodPost, nil, map[string]float32{"temperature": celsius}, nil, "sessions", id, "temperature")
}

func (c *Client) SetSpeed(ctx context.Context, id string, speed float32) error {
	return c.do(ctx, http.MethodPost, nil, map[string]float32{"speed": speed}, nil, "sessions", id, "speed")
}

// Reset rebuilds the session's dough. A nil recipe keeps the current one.
func (c *Client) Reset(ctx context.Context, id string, recipe *dough.RecipeConfig) error {
	var body any
	if recipe != nil {
		body = recipe
	}
	return c.do(ctx, http.MethodPost, nil, body, nil, "sessions", id, "reset")
}

// Tick steps the session n times by dt seconds. A zero dt uses the
// session's max step.
func (c *Client) Tick(ctx context.Context, id string, dt float32, n int) (TickResult, error) {
	query := url.Values{}
	if dt > 0 {
		query.Set("dt", strconv.FormatFloat(float64(dt), 'f', -1, 32))
	}
	if n > 0 {
		query.Set("n", strconv.Itoa(n))
	}
	var res TickResult
	err := c.do(ctx, http.MethodPost, query, nil, &res, "sessions", id, "tick")
	return res, err
}

// Start runs the session on the server. A zero interval uses the server's.
func (c *Client) Start(ctx context.Context, id string, interval time.Duration) error {
	query := url.Values{}
	if interval > 0 {
		query.Set("interval", strconv.FormatInt(interval.Milliseconds(), 10))
	}
	return c.do(ctx, http.MethodPost, query, nil, nil, "sessions", id, "start")
}

func (c *Client) Stop(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, nil, nil, nil, "sessions", id, "stop")
}

func (c *Client) Stats(ctx context.Context, id string) (dough.Stats, error) {
	var st dough.Stats
	err := c.do(ctx, http.MethodGet, nil, nil, &st, "sessions", id, "stats")
	return st, err
}

func (c *Client) Snapshot(ctx context.Context, id string) (dough.Snapshot, error) {
	var snap dough.Snapshot
	err := c.do(ctx, http.MethodGet, nil, nil, &snap, "sessions", id, "snapshot")
	return snap, err
}

// Molecules lists the session's molecules, optionally only one kind.
func (c *Client) Molecules(ctx context.Context, id string, kind *dough.Kind) ([]dough.MoleculeView, error) {
	query := url.Values{}
	if kind != nil {
		query.Set("kind", kind.String())
	}
	var mols []dough.MoleculeView
	err := c.do(ctx, http.MethodGet, query, nil, &mols, "sessions", id, "molecules")
	return mols, err
}

func (c *Client) Bonds(ctx context.Context, id string) ([]dough.BondLine, error) {
	var lines []dough.BondLine
	err := c.do(ctx, http.MethodGet, nil, nil, &lines, "sessions", id, "bonds")
	return lines, err
}

// RegisterWebhook subscribes url to the given event types; none means all.
func (c *Client) RegisterWebhook(ctx context.Context, id, webhookURL string, headers map[string]string, events ...session.EventType) error {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = string(e)
	}
	config := map[string]any{"url": webhookURL}
	if len(headers) > 0 {
		config["headers"] = headers
	}
	body := map[string]any{
		"type":   "webhook",
		"id":     id,
		"events": names,
		"config": config,
	}
	return c.do(ctx, http.MethodPost, nil, body, nil, "notifiers")
}

func (c *Client) UnregisterNotifier(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, nil, nil, nil, "notifiers", id)
}

func (c *Client) ListNotifiers(ctx context.Context) ([]NotifierInfo, error) {
	var resp struct {
		Notifiers []NotifierInfo `json:"notifiers"`
	}
	if err := c.do(ctx, http.MethodGet, nil, nil, &resp, "notifiers"); err != nil {
		return nil, err
	}
	return resp.Notifiers, nil
}
