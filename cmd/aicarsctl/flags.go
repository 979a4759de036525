package main

import (
	"flag"
	"fmt"

	"aicars/internal/config"
)

// runFlags override config values only when given on the command line.
type runFlags struct {
	cars       *int
	ticks      *int
	gens       *int
	seed       *int64
	workers    *int
	mutation   *float64
	broadPhase *bool
	noSave     *bool
}

func addRunFlags(fs *flag.FlagSet) runFlags {
	defaults := config.Default()
	return runFlags{
		cars:       fs.Int("cars", defaults.Population.CarCount, "cars per generation"),
		ticks:      fs.Int("ticks", defaults.Run.Ticks, "max ticks per generation"),
		gens:       fs.Int("gens", defaults.Run.Generations, "generations to run"),
		seed:       fs.Int64("seed", defaults.Run.Seed, "random seed"),
		workers:    fs.Int("workers", defaults.Population.Workers, "parallel vehicle update workers"),
		mutation:   fs.Float64("mutation", defaults.Population.MutationAmount, "mutation amount in [0,1]"),
		broadPhase: fs.Bool("broad-phase", defaults.Population.BroadPhase, "index traffic in an r-tree before collision checks"),
		noSave:     fs.Bool("no-save", false, "do not store the best brain"),
	}
}

func (f runFlags) apply(fs *flag.FlagSet, cfg *config.Config) error {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "cars":
			cfg.Population.CarCount = *f.cars
		case "ticks":
			cfg.Run.Ticks = *f.ticks
		case "gens":
			cfg.Run.Generations = *f.gens
		case "seed":
			cfg.Run.Seed = *f.seed
		case "workers":
			cfg.Population.Workers = *f.workers
		case "mutation":
			cfg.Population.MutationAmount = *f.mutation
		case "broad-phase":
			cfg.Population.BroadPhase = *f.broadPhase
		case "no-save":
			cfg.Run.SaveBest = !*f.noSave
		}
	})
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid run settings: %w", err)
	}
	return nil
}

// applyConfig takes the store settings from cfg unless the flags were given.
func (s storeFlags) applyConfig(fs *flag.FlagSet, cfg config.Config) {
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	if !set["store"] && cfg.Run.Store != "" {
		*s.kind = cfg.Run.Store
	}
	if !set["db-path"] && cfg.Run.DBPath != "" {
		*s.dbPath = cfg.Run.DBPath
	}
}
