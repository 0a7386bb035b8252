package session

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
)

// ID identifies a session.
type ID string

// Defaults applied by Config.withDefaults.
const (
	DefaultWidth      float32 = 1000
	DefaultHeight     float32 = 720
	DefaultDepth      float32 = 1000
	DefaultMaxDt      float32 = 0.05
	DefaultSpeed      float32 = 1
	DefaultFrameEvery         = 1
)

// Config describes how a session builds and drives its simulation.
type Config struct {
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	Depth  float32 `json:"depth"`
	// Seed 0 seeds from the clock.
	Seed   int64              `json:"seed"`
	Recipe dough.RecipeConfig `json:"recipe"`

	// MaxDt caps the step a caller can ask for, in simulated seconds.
	MaxDt float32 `json:"max_dt"`
	// Speed multiplies every clamped step.
	Speed float32 `json:"speed"`
	// FrameEvery publishes a frame event every N steps.
	FrameEvery int `json:"frame_every"`
}

// DefaultConfig is a 1000x720x1000 domain with the classic recipe.
func DefaultConfig() Config {
	return Config{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Depth:      DefaultDepth,
		Recipe:     dough.DefaultRecipe(),
		MaxDt:      DefaultMaxDt,
		Speed:      DefaultSpeed,
		FrameEvery: DefaultFrameEvery,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.Depth == 0 {
		c.Depth = d.Depth
	}
	if c.Recipe == (dough.RecipeConfig{}) {
		c.Recipe = d.Recipe
	}
	if c.MaxDt <= 0 {
		c.MaxDt = d.MaxDt
	}
	if c.Speed <= 0 {
		c.Speed = d.Speed
	}
	if c.FrameEvery <= 0 {
		c.FrameEvery = d.FrameEvery
	}
	return c
}

// Validate checks the domain and the recipe.
func (c Config) Validate() error {
	if err := dough.ValidateDimensions(c.Width, c.Height, c.Depth); err != nil {
		return err
	}
	return dough.ValidateRecipeConfig(c.Recipe)
}

// Session owns one simulation and serialises every access to it.
type Session struct {
	mu        sync.Mutex
	id        ID
	cfg       Config
	sim       *dough.Simulation
	steps     uint64
	lastPhase dough.Phase

	notifications *NotificationManager
	logger        dough.Logger

	stopCh    chan struct{}
	isRunning bool
}

// NewSession validates cfg, filling zero fields with defaults, and
// initialises the simulation with its recipe.
func NewSession(id ID, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	s := &Session{
		id:     id,
		cfg:    cfg,
		logger: dough.NewNoOpLogger(),
	}
	s.sim = s.newSimulation()
	return s, nil
}

func (s *Session) newSimulation() *dough.Simulation {
	sim := dough.NewSimulationWithRand(s.cfg.Width, s.cfg.Height, s.cfg.Depth, dough.NewRand(s.cfg.Seed))
	sim.SetLogger(s.logger)
	sim.InitializeRecipe(s.cfg.Recipe)
	s.lastPhase = sim.Phase()
	return sim
}

func (s *Session) ID() ID { return s.id }

// Config returns the effective configuration.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetLogger sets the logger used by the session and its simulation.
func (s *Session) SetLogger(l dough.Logger) {
	if l == nil {
		l = dough.NewNoOpLogger()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
	s.sim.SetLogger(l)
}

// SetNotificationManager sets where events are published. nil disables events.
func (s *Session) SetNotificationManager(nm *NotificationManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = nm
}

// publish must be called with s.mu held.
func (s *Session) publish(ev Event) {
	if s.notifications == nil {
		return
	}
	s.notifications.Enqueue(ev)
}

// checkPhase publishes a phase event when the dough moved to a new phase.
// Must be called with s.mu held.
func (s *Session) checkPhase() {
	phase := s.sim.Phase()
	if phase == s.lastPhase {
		return
	}
	s.logger.Infof("session %s: phase %s -> %s", s.id, s.lastPhase, phase)
	s.lastPhase = phase
	s.publish(newEvent(EventPhase, s.id, s.sim))
}

func (s *Session) addIngredient(name string, already func() bool, add func() int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if already() {
		return 0
	}
	n := add()

	ev := newEvent(EventIngredient, s.id, s.sim)
	ev.Ingredient = name
	ev.Count = n
	s.publish(ev)
	s.checkPhase()
	return n
}

// AddSalt spreads salt once. It returns how many molecules were spawned.
func (s *Session) AddSalt() int {
	return s.addIngredient("salt", func() bool { return s.sim.SaltAdded() }, func() int { return s.sim.AddSalt() })
}

// AddYeast spreads yeast and its sugar once. It returns the yeast count.
func (s *Session) AddYeast() int {
	return s.addIngredient("yeast", func() bool { return s.sim.YeastAdded() }, func() int { return s.sim.AddYeast() })
}

// ApplyForce pushes molecules within radius of center.
func (s *Session) ApplyForce(center dough.Vec3, radius float32, force dough.Vec3) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.sim.ApplyForceToRegion(center, radius, force)
	ev := newEvent(EventForce, s.id, s.sim)
	ev.Count = n
	s.publish(ev)
	return n
}

// Fold presses the centre of the dough.
func (s *Session) Fold() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.sim.Fold()
	ev := newEvent(EventForce, s.id, s.sim)
	ev.Count = n
	s.publish(ev)
	return n
}

// SetTemperature changes the dough temperature.
func (s *Session) SetTemperature(t float32) error {
	if math.IsNaN(float64(t)) || math.IsInf(float64(t), 0) {
		return fmt.Errorf("temperature must be finite")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sim.SetTemperature(t)
	return nil
}

// SetSpeed changes the step multiplier.
func (s *Session) SetSpeed(speed float32) error {
	if !(speed > 0) || math.IsInf(float64(speed), 0) {
		return fmt.Errorf("speed must be positive, got %v", speed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Speed = speed
	return nil
}

// Reset throws the simulation away and builds a fresh one. A non-nil recipe
// replaces the configured one.
func (s *Session) Reset(recipe *dough.RecipeConfig) error {
	if recipe != nil {
		if err := dough.ValidateRecipeConfig(*recipe); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if recipe != nil {
		s.cfg.Recipe = *recipe
	}
	s.sim = s.newSimulation()
	s.steps = 0
	s.publish(newEvent(EventReset, s.id, s.sim))
	return nil
}

// Step advances the simulation by dt, clamped to [0, MaxDt] and scaled by
// Speed. It returns the simulated time actually applied.
func (s *Session) Step(dt float32) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepLocked(dt)
}

// StepN runs n steps of dt and returns the total simulated time applied.
func (s *Session) StepN(dt float32, n int) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float32
	for i := 0; i < n; i++ {
		total += s.stepLocked(dt)
	}
	return total
}

func (s *Session) stepLocked(dt float32) float32 {
	if !(dt > 0) {
		dt = 0
	}
	dt = min(dt, s.cfg.MaxDt) * s.cfg.Speed

	s.sim.Tick(dt)
	s.steps++

	if s.steps%uint64(s.cfg.FrameEvery) == 0 && s.notifications != nil && s.notifications.HasSubscribers(EventFrame) {
		ev := newEvent(EventFrame, s.id, s.sim)
		stats := s.sim.Stats()
		snap := s.sim.Snapshot()
		ev.Stats = &stats
		ev.Frame = &snap
		s.publish(ev)
	}
	return dt
}

// Steps returns how many steps ran since the last reset.
func (s *Session) Steps() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

func (s *Session) Stats() dough.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Stats()
}

func (s *Session) Snapshot() dough.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Snapshot()
}

// Info is the summary of a session served to clients.
type Info struct {
	ID      ID          `json:"id"`
	Running bool        `json:"running"`
	Steps   uint64      `json:"steps"`
	Config  Config      `json:"config"`
	Stats   dough.Stats `json:"stats"`
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:      s.id,
		Running: s.isRunning,
		Steps:   s.steps,
		Config:  s.cfg,
		Stats:   s.sim.Stats(),
	}
}

// Run starts stepping the simulation on a ticker, one step of interval per
// tick. Calling Run on a running session does nothing; after Stop it can be
// called again.
func (s *Session) Run(interval time.Duration) {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.isRunning = true
	s.mu.Unlock()

	dt := float32(interval.Seconds())
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Step(dt)
			case <-stopCh:
				return
			}
		}
	}()
}

// Stop halts a running session. It is a no-op when the session is stopped.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	close(s.stopCh)
	s.isRunning = false
}

func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
