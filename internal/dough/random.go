package dough

import (
	"math/rand"
	"time"
)

// NewRand returns a PRNG for a simulation. A zero seed means "seed from the
// clock", which gives no reproducibility across runs.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// uniform draws from [lo, hi). An empty or inverted range yields lo.
func uniform(rng *rand.Rand, lo, hi float32) float32 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float32()*(hi-lo)
}

// jitter draws each component from [-amp, amp).
func jitter(rng *rand.Rand, amp float32) Vec3 {
	return Vec3{
		X: uniform(rng, -amp, amp),
		Y: uniform(rng, -amp, amp),
		Z: uniform(rng, -amp, amp),
	}
}
