package dough

import (
	"math/rand"
)

// Phase is the stage of the dough, derived from which ingredients were added.
type Phase string

const (
	PhaseAutolyse     Phase = "autolyse"
	PhaseSalted       Phase = "salted"
	PhaseFermentation Phase = "fermentation"
	PhasePreparation  Phase = "preparation"
)

// Simulation is the complete dough state: the molecule grid, the bond list,
// the recipe and environment parameters, and elapsed time.
//
// A Simulation is not safe for concurrent use. Callers issue commands and
// call Tick from one goroutine, then read copies through the read methods.
type Simulation struct {
	grid    *SpatialGrid3D
	bonds   []Bond
	bondSet map[bondKey]struct{}

	width, height, depth float32

	temperature float32
	timeElapsed float32
	recipe      RecipeConfig
	saltAdded   bool
	yeastAdded  bool

	rng    *rand.Rand
	logger Logger
}

// NewSimulation creates an empty domain with the default recipe and a
// clock-seeded PRNG.
//
// The salt flag starts out true, so AddSalt is a no-op until the state is
// initialised with a recipe, which clears both flags.
func NewSimulation(width, height, depth float32) *Simulation {
	return NewSimulationWithRand(width, height, depth, NewRand(0))
}

// NewSimulationWithRand is NewSimulation with an explicit PRNG, for
// reproducible runs.
func NewSimulationWithRand(width, height, depth float32, rng *rand.Rand) *Simulation {
	if rng == nil {
		rng = NewRand(0)
	}
	recipe := DefaultRecipe()
	return &Simulation{
		grid:        NewSpatialGrid3D(DefaultCellSize),
		bondSet:     make(map[bondKey]struct{}),
		width:       width,
		height:      height,
		depth:       depth,
		temperature: recipe.Temperature,
		recipe:      recipe,
		saltAdded:   true,
		yeastAdded:  false,
		rng:         rng,
		logger:      NewNoOpLogger(),
	}
}

// SetLogger injects a logger; nil restores the no-op logger.
func (s *Simulation) SetLogger(l Logger) {
	s.logger = orNoOp(l)
}

// InitializeClassicRecipe resets the state and populates it with the
// classic recipe.
func (s *Simulation) InitializeClassicRecipe() {
	s.InitializeRecipe(DefaultRecipe())
}

// InitializeRecipe resets grid, bonds, time and ingredient flags, then
// populates flour proteins and water at uniform random positions. The recipe
// is not validated here; see ValidateRecipeConfig.
func (s *Simulation) InitializeRecipe(cfg RecipeConfig) {
	s.recipe = cfg
	s.temperature = cfg.Temperature

	s.grid = NewSpatialGrid3D(DefaultCellSize)
	s.bonds = nil
	s.bondSet = make(map[bondKey]struct{})
	s.timeElapsed = 0
	s.saltAdded = false
	s.yeastAdded = false

	for i := 0; i < cfg.FlourProteins; i++ {
		pos := s.randomPosition()
		vel := jitter(s.rng, 0.1)
		kind := Gliadin
		if s.rng.Float32() < cfg.GluteninShare {
			kind = Glutenin
		}
		s.grid.Insert(NewMolecule(kind, pos, vel))
	}

	for i := 0; i < cfg.Water; i++ {
		pos := s.randomPosition()
		vel := jitter(s.rng, 0.2)
		s.grid.Insert(NewMolecule(Water, pos, vel))
	}

	s.logger.Infof("recipe initialized: name=%s proteins=%d water=%d", cfg.Name, cfg.FlourProteins, cfg.Water)
}

func (s *Simulation) randomPosition() Vec3 {
	return Vec3{
		X: uniform(s.rng, 0, s.width),
		Y: uniform(s.rng, 0, s.height),
		Z: uniform(s.rng, 0, s.depth),
	}
}

func (s *Simulation) volume() float32 {
	return s.width * s.height * s.depth
}

// AddSalt spreads salt through the domain once. Later calls do nothing.
// It returns how many salt molecules were spawned.
func (s *Simulation) AddSalt() int {
	if s.saltAdded {
		return 0
	}

	amount := int(s.volume() * SaltDensity * s.recipe.Salt)
	for i := 0; i < amount; i++ {
		pos := s.randomPosition()
		vel := jitter(s.rng, 0.2)
		s.grid.Insert(NewMolecule(Salt, pos, vel))
	}

	s.saltAdded = true
	s.logger.Debugf("salt added: count=%d", amount)
	return amount
}

// AddYeast spreads yeast once, each cell paired with one sugar molecule
// spawned close by. Later calls do nothing. It returns the yeast count.
func (s *Simulation) AddYeast() int {
	if s.yeastAdded {
		return 0
	}

	amount := int(s.volume() * YeastDensity * s.recipe.Yeast)
	for i := 0; i < amount; i++ {
		pos := s.randomPosition()
		vel := jitter(s.rng, 0.1)
		s.grid.Insert(NewMolecule(Yeast, pos, vel))

		sugarPos := Vec3{
			X: uniform(s.rng, max(pos.X-SugarSpread, 0), min(pos.X+SugarSpread, s.width)),
			Y: uniform(s.rng, max(pos.Y-SugarSpread, 0), min(pos.Y+SugarSpread, s.height)),
			Z: uniform(s.rng, max(pos.Z-SugarSpread, 0), min(pos.Z+SugarSpread, s.depth)),
		}
		s.grid.Insert(NewMolecule(Sugar, sugarPos, jitter(s.rng, 0.1)))
	}

	s.yeastAdded = true
	s.logger.Debugf("yeast added: count=%d", amount)
	return amount
}

// ApplyForceToRegion pushes every molecule strictly within radius of center
// by force/mass and caps the resulting speed. It returns how many molecules
// were affected.
func (s *Simulation) ApplyForceToRegion(center Vec3, radius float32, force Vec3) int {
	hit := s.grid.QueryRadius(center, radius)
	for _, m := range hit {
		m.Vel = m.Vel.Add(force.Scale(1 / m.Mass())).ClampLen(MaxForceSpeed)
	}
	return len(hit)
}

// Fold presses down on the centre of the domain, like folding dough.
func (s *Simulation) Fold() int {
	center := Vec3{X: s.width / 2, Y: s.height / 2, Z: s.depth / 2}
	return s.ApplyForceToRegion(center, FoldRadius, FoldForce)
}

// SetTemperature changes the temperature driving reaction rates.
func (s *Simulation) SetTemperature(t float32) {
	s.temperature = t
}

// Tick advances the simulation by dt seconds. The order is fixed:
// integration and boundaries, re-indexing, bond formation, metabolism (once
// yeast is in), then bond constraints on the post-reaction molecule set.
func (s *Simulation) Tick(dt float32) {
	s.timeElapsed += dt

	s.integrate(dt)
	s.formDisulfideBridges()
	if s.yeastAdded {
		s.metabolize(dt)
	}
	s.applyBondConstraints()
}

// temperatureFactor is T/ref, floored at minRateFactor.
func (s *Simulation) temperatureFactor(ref float32) float32 {
	return max(s.temperature/ref, minRateFactor)
}

func (s *Simulation) Width() float32  { return s.width }
func (s *Simulation) Height() float32 { return s.height }
func (s *Simulation) Depth() float32  { return s.depth }

func (s *Simulation) Time() float32        { return s.timeElapsed }
func (s *Simulation) Temperature() float32 { return s.temperature }
func (s *Simulation) SaltAdded() bool      { return s.saltAdded }
func (s *Simulation) YeastAdded() bool     { return s.yeastAdded }
func (s *Simulation) Recipe() RecipeConfig { return s.recipe }

// Phase derives the dough stage from the ingredient flags.
func (s *Simulation) Phase() Phase {
	switch {
	case !s.saltAdded && !s.yeastAdded:
		return PhaseAutolyse
	case s.saltAdded && !s.yeastAdded:
		return PhaseSalted
	case s.saltAdded && s.yeastAdded:
		return PhaseFermentation
	default:
		return PhasePreparation
	}
}

// Count returns the number of live molecules.
func (s *Simulation) Count() int {
	return s.grid.Len()
}

// Molecules returns copies of all live molecules ordered by ID.
func (s *Simulation) Molecules() []Molecule {
	return s.grid.All()
}

// Molecule looks up one molecule by ID.
func (s *Simulation) Molecule(id MoleculeID) (Molecule, bool) {
	return s.grid.Get(id)
}

// MoleculesByKind returns copies of all live molecules of one kind.
func (s *Simulation) MoleculesByKind(kind Kind) []Molecule {
	out := make([]Molecule, 0)
	for _, m := range s.grid.AllMut() {
		if m.Kind == kind {
			out = append(out, *m)
		}
	}
	return out
}

// Bonds returns a copy of the bond list, including bonds whose endpoints
// no longer exist.
func (s *Simulation) Bonds() []Bond {
	out := make([]Bond, len(s.bonds))
	copy(out, s.bonds)
	return out
}

// BondLine is a bond with both endpoint positions resolved, for display.
type BondLine struct {
	Bond
	PosA Vec3 `json:"pos_a"`
	PosB Vec3 `json:"pos_b"`
}

// BondLines resolves every bond whose endpoints are both alive.
func (s *Simulation) BondLines() []BondLine {
	out := make([]BondLine, 0, len(s.bonds))
	for _, b := range s.bonds {
		a, okA := s.grid.Get(b.A)
		c, okB := s.grid.Get(b.B)
		if !okA || !okB {
			continue
		}
		out = append(out, BondLine{Bond: b, PosA: a.Pos, PosB: c.Pos})
	}
	return out
}
