package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/daniacca/doughsim/internal/dough"
	"github.com/dustin/go-humanize"
)

func main() {
	var (
		seed  = flag.Int64("seed", 42, "PRNG seed")
		dt    = flag.Float64("dt", 0.05, "seconds of simulated time per tick")
		scale = flag.Int("scale", 1, "tick multiplier applied to every stage")
		proof = flag.Float64("proof-temperature", 27, "fermentation temperature (°C)")
	)
	flag.Parse()

	if *scale <= 0 || !(*dt > 0) {
		fmt.Fprintln(os.Stderr, "error: scale and dt must be positive")
		os.Exit(1)
	}

	sim := dough.NewSimulationWithRand(600, 480, 600, dough.NewRand(*seed))
	sim.InitializeClassicRecipe()

	stages := []Stage{
		NewAutolyseStage(100 * *scale),
		NewSaltFoldStage(200 * *scale, 50),
		NewFermentationStage(400 * *scale, float32(*proof)),
	}

	runBake(os.Stdout, sim, stages, float32(*dt))
}

// runBake plays the stages in order and prints a line after each one.
func runBake(w io.Writer, sim *dough.Simulation, stages []Stage, dt float32) {
	fmt.Fprintf(w, "Baking %q with %s molecules\n", sim.Recipe().Name, humanize.Comma(int64(sim.Count())))

	for _, stage := range stages {
		stage.Enter(sim)
		for tick, n := 0, stage.Ticks(); tick < n; tick++ {
			stage.Apply(sim, tick)
			sim.Tick(dt)
		}
		printStage(w, stage, sim.Stats())
	}
}

func printStage(w io.Writer, stage Stage, st dough.Stats) {
	fmt.Fprintf(w, "[%s] %s: t=%.1fs phase=%s molecules=%s bonds=%s co2=%s ethanol=%s sugar=%s\n",
		stage.ID(), stage.Name(), st.Time, st.Phase,
		humanize.Comma(int64(st.Molecules)),
		humanize.Comma(int64(st.Bonds)),
		humanize.Comma(int64(st.Counts[dough.CO2])),
		humanize.Comma(int64(st.Counts[dough.Ethanol])),
		humanize.Comma(int64(st.Counts[dough.Sugar])),
	)
	if sf, ok := stage.(*SaltFoldStage); ok {
		fmt.Fprintf(w, "  folds performed: %d\n", sf.Folds())
	}
}
