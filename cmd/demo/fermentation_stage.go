package main

import "github.com/daniacca/doughsim/internal/dough"

// FermentationStage adds the levain and proofs the dough, optionally at a
// different temperature than the recipe's.
type FermentationStage struct {
	ticks       int
	temperature float32
}

func NewFermentationStage(ticks int, temperature float32) Stage {
	return &FermentationStage{ticks: ticks, temperature: temperature}
}

func (s *FermentationStage) ID() string   { return "fermentation" }
func (s *FermentationStage) Name() string { return "Bulk fermentation" }
func (s *FermentationStage) Ticks() int   { return s.ticks }

func (s *FermentationStage) Enter(sim *dough.Simulation) {
	if s.temperature != 0 {
		sim.SetTemperature(s.temperature)
	}
	sim.AddYeast()
}

func (s *FermentationStage) Apply(sim *dough.Simulation, tick int) {}
