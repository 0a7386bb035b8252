package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/daniacca/doughsim/internal/dough"
	"github.com/dustin/go-humanize"
)

type runOptions struct {
	ticks        int
	dt           float32
	seed         int64
	width        float32
	height       float32
	depth        float32
	recipe       dough.RecipeConfig
	saltTick     int
	yeastTick    int
	foldEvery    int
	reportEvery  int
	temperature  float32
}

// slogAdapter lets the simulation write through slog.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Debugf(format string, v ...any) { a.l.Debug(fmt.Sprintf(format, v...)) }
func (a slogAdapter) Infof(format string, v ...any)  { a.l.Info(fmt.Sprintf(format, v...)) }
func (a slogAdapter) Warnf(format string, v ...any)  { a.l.Warn(fmt.Sprintf(format, v...)) }
func (a slogAdapter) Errorf(format string, v ...any) { a.l.Error(fmt.Sprintf(format, v...)) }

func main() {
	var (
		ticks       = flag.Int("ticks", 600, "number of ticks to run")
		dt          = flag.Float64("dt", 0.05, "seconds of simulated time per tick")
		seed        = flag.Int64("seed", 1, "PRNG seed; 0 seeds from the clock")
		width       = flag.Float64("width", 1000, "domain width")
		height      = flag.Float64("height", 720, "domain height")
		depth       = flag.Float64("depth", 1000, "domain depth")
		recipeFile  = flag.String("recipe-file", "", "path to a JSON recipe (optional)")
		saltTick    = flag.Int("salt-at", 100, "tick at which salt is added; negative never")
		yeastTick   = flag.Int("yeast-at", 200, "tick at which yeast is added; negative never")
		foldEvery   = flag.Int("fold-every", 0, "fold the dough every N ticks; 0 disables")
		reportEvery = flag.Int("report-every", 100, "log stats every N ticks; 0 disables")
		temperature = flag.Float64("temperature", 0, "override the recipe temperature (°C); 0 keeps it")
		snapshotOut = flag.String("snapshot-out", "", "write the final snapshot as JSON to this path (optional)")
		verbose     = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	recipe := dough.DefaultRecipe()
	if *recipeFile != "" {
		var err error
		recipe, err = dough.LoadRecipeFile(*recipeFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading recipe: %v\n", err)
			os.Exit(1)
		}
	}

	if err := dough.ValidateDimensions(float32(*width), float32(*height), float32(*depth)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *ticks < 0 || !(*dt > 0) {
		fmt.Fprintf(os.Stderr, "error: ticks must not be negative and dt must be positive\n")
		os.Exit(1)
	}

	opts := runOptions{
		ticks:       *ticks,
		dt:          float32(*dt),
		seed:        *seed,
		width:       float32(*width),
		height:      float32(*height),
		depth:       float32(*depth),
		recipe:      recipe,
		saltTick:    *saltTick,
		yeastTick:   *yeastTick,
		foldEvery:   *foldEvery,
		reportEvery: *reportEvery,
		temperature: float32(*temperature),
	}

	start := time.Now()
	sim := simulate(opts, logger)
	printSummary(os.Stdout, opts, sim, time.Since(start))

	if *snapshotOut != "" {
		if err := writeSnapshot(*snapshotOut, sim); err != nil {
			fmt.Fprintf(os.Stderr, "error writing snapshot: %v\n", err)
			os.Exit(1)
		}
		logger.Info("snapshot written", "path", *snapshotOut)
	}
}

func writeSnapshot(path string, sim *dough.Simulation) error {
	snap := sim.Snapshot()
	if err := dough.ValidateSnapshot(snap); err != nil {
		return fmt.Errorf("validating snapshot: %w", err)
	}
	data, err := dough.EncodeSnapshotJSON(snap)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// simulate runs the bake described by opts and returns the final simulation.
func simulate(opts runOptions, logger *slog.Logger) *dough.Simulation {
	sim := dough.NewSimulationWithRand(opts.width, opts.height, opts.depth, dough.NewRand(opts.seed))
	sim.SetLogger(slogAdapter{l: logger})
	sim.InitializeRecipe(opts.recipe)
	if opts.temperature != 0 {
		sim.SetTemperature(opts.temperature)
	}

	for i := 0; i < opts.ticks; i++ {
		if i == opts.saltTick {
			n := sim.AddSalt()
			logger.Info("salt added", "tick", i, "molecules", n)
		}
		if i == opts.yeastTick {
			n := sim.AddYeast()
			logger.Info("yeast added", "tick", i, "cells", n)
		}
		if opts.foldEvery > 0 && i > 0 && i%opts.foldEvery == 0 {
			n := sim.Fold()
			logger.Debug("fold", "tick", i, "affected", n)
		}

		sim.Tick(opts.dt)

		if opts.reportEvery > 0 && (i+1)%opts.reportEvery == 0 {
			st := sim.Stats()
			logger.Info("progress",
				"tick", i+1,
				"time", st.Time,
				"phase", st.Phase,
				"molecules", st.Molecules,
				"bonds", st.Bonds,
			)
		}
	}
	return sim
}

func printSummary(w io.Writer, opts runOptions, sim *dough.Simulation, elapsed time.Duration) {
	st := sim.Stats()

	fmt.Fprintf(w, "Simulation finished (recipe=%s, ticks=%s, simulated=%.1fs, wall=%s)\n",
		opts.recipe.Name, humanize.Comma(int64(opts.ticks)), st.Time, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Phase: %s, temperature: %.1f°C\n", st.Phase, st.Temperature)
	fmt.Fprintf(w, "Molecules: %s (flour proteins: %s)\n",
		humanize.Comma(int64(st.Molecules)), humanize.Comma(int64(st.Flour)))
	fmt.Fprintf(w, "Bonds: %s\n", humanize.Comma(int64(st.Bonds)))
	fmt.Fprintln(w, "Kind counts:")
	for _, k := range dough.Kinds {
		fmt.Fprintf(w, "  %s: %s\n", k, humanize.Comma(int64(st.Counts[k])))
	}
}
