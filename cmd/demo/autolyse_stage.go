package main

import "github.com/daniacca/doughsim/internal/dough"

// AutolyseStage lets flour and water rest before anything else is added.
type AutolyseStage struct {
	ticks int
}

func NewAutolyseStage(ticks int) Stage {
	return &AutolyseStage{ticks: ticks}
}

func (s *AutolyseStage) ID() string   { return "autolyse" }
func (s *AutolyseStage) Name() string { return "Rest flour and water" }
func (s *AutolyseStage) Ticks() int   { return s.ticks }

func (s *AutolyseStage) Enter(sim *dough.Simulation) {}

func (s *AutolyseStage) Apply(sim *dough.Simulation, tick int) {}
