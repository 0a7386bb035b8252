package main

import "github.com/daniacca/doughsim/internal/dough"

// Stage is one step of a bake. Enter runs once when the stage begins, Apply
// before every tick of the stage.
type Stage interface {
	ID() string
	Name() string
	Ticks() int
	Enter(sim *dough.Simulation)
	Apply(sim *dough.Simulation, tick int)
}
