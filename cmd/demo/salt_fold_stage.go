package main

import "github.com/daniacca/doughsim/internal/dough"

// SaltFoldStage adds the salt, then folds every foldEvery ticks and kneads
// the middle of the dough in between.
type SaltFoldStage struct {
	ticks     int
	foldEvery int
	kneadPush float32
	folds     int
}

func NewSaltFoldStage(ticks, foldEvery int) Stage {
	return &SaltFoldStage{
		ticks:     ticks,
		foldEvery: foldEvery,
		kneadPush: 0.5, // gentle, fold does the heavy work
	}
}

func (s *SaltFoldStage) ID() string   { return "salt_and_fold" }
func (s *SaltFoldStage) Name() string { return "Add salt and stretch-and-fold" }
func (s *SaltFoldStage) Ticks() int   { return s.ticks }

func (s *SaltFoldStage) Enter(sim *dough.Simulation) {
	sim.AddSalt()
}

func (s *SaltFoldStage) Apply(sim *dough.Simulation, tick int) {
	if s.foldEvery > 0 && tick > 0 && tick%s.foldEvery == 0 {
		sim.Fold()
		s.folds++
		return
	}

	center := dough.Vec3{X: sim.Width() / 2, Y: sim.Height() / 2, Z: sim.Depth() / 2}
	radius := min(sim.Width(), sim.Height(), sim.Depth()) / 4
	sim.ApplyForceToRegion(center, radius, dough.Vec3{Y: -s.kneadPush})
}

// Folds reports how many folds were performed.
func (s *SaltFoldStage) Folds() int { return s.folds }
