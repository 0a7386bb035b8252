package dough

// Physics.
const (
	// Restitution scales the reflected velocity component on a wall bounce.
	Restitution float32 = 0.8
	// Damping is applied to every velocity once per tick.
	Damping float32 = 0.999
	// MaxForceSpeed caps speeds after ApplyForceToRegion.
	MaxForceSpeed float32 = 5.0
	// MaxBondSpeed caps speeds of molecules touched by the bond solver.
	MaxBondSpeed float32 = 3.0
	// BondRelaxation is the fraction of the rest-length error corrected per tick.
	BondRelaxation float32 = 0.5
)

// Disulfide bridging between reactive glutenin.
const (
	BridgeDistance       float32 = 8.0
	BridgeBaseChance     float32 = 0.20
	BridgeRefTemperature float32 = 25.0
	BridgeSaltBoost      float32 = 1.2
	// BridgeThrottle scales the per-tick acceptance threshold.
	BridgeThrottle float32 = 0.1
)

// Yeast metabolism.
const (
	FeedDistance          float32 = 5.0
	FermentBaseRate       float32 = 0.01
	FermentRefTemperature float32 = 20.0
	EthanolChance         float32 = 0.3
	// Buoyancy is subtracted from every CO2 Y velocity each tick.
	Buoyancy      float32 = 0.05
	BubbleWobble  float32 = 0.02
	co2Jitter     float32 = 3.0
	co2Speed      float32 = 0.2
	ethanolJitter float32 = 2.0
	ethanolSpeed  float32 = 0.1
)

// minRateFactor is the floor of every temperature multiplier.
const minRateFactor float32 = 0.1

// Ingredient dosing. Amounts are domain volume x density x recipe share.
const (
	SaltDensity  float32 = 0.00005
	YeastDensity float32 = 0.00002
	// SugarSpread is the half-size of the box a yeast's sugar spawns in.
	SugarSpread float32 = 20.0
)

// Fold applies FoldForce within FoldRadius of the domain centre.
const FoldRadius float32 = 200.0

var FoldForce = Vec3{X: 0, Y: 30, Z: 0}
