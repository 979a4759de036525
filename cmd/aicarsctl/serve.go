package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"aicars/internal/config"
	"aicars/internal/sim"
	"aicars/internal/vizserver"
	"aicars/pkg/aicars"
)

type publisher interface {
	Publish(frame sim.Frame) error
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "run config file (.json|.toml|.yaml|.ini)")
	store := addStoreFlags(fs)
	overrides := addRunFlags(fs)
	addr := fs.String("addr", ":8080", "listen address")
	tps := fs.Int("tps", 60, "simulation ticks per second")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tps <= 0 {
		return fmt.Errorf("tps must be > 0, got %d", *tps)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := overrides.apply(fs, &cfg); err != nil {
		return err
	}
	store.applyConfig(fs, cfg)

	client, err := store.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	rd, err := cfg.NewRoad()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	viz := vizserver.NewVizService(*addr, sim.RoadViewOf(rd), os.Stdout)
	errc := make(chan error, 1)
	go func() {
		errc <- viz.ListenAndServe(ctx)
		stop()
	}()

	loopErr := serveLoop(ctx, client, cfg, viz, time.Second/time.Duration(*tps))
	stop()
	if err := <-errc; err != nil {
		return err
	}
	return loopErr
}

// serveLoop steps generations forever at one tick per interval, publishing a
// frame per tick. A generation ends when every car is damaged or the tick
// limit is hit; its best brain is saved and seeds the next one.
func serveLoop(ctx context.Context, client *aicars.Client, cfg config.Config, out publisher, interval time.Duration) error {
	rng := rand.New(rand.NewSource(cfg.Run.Seed))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for generation := 1; ; generation++ {
		world, warning, err := client.SeedWorld(ctx, cfg, rng)
		if err != nil {
			return err
		}
		if warning != "" {
			log.Println(warning)
		}

		for world.Tick() < cfg.Run.Ticks && len(world.Alive()) > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
			if err := world.Step(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if err := out.Publish(world.Frame()); err != nil {
				return err
			}
		}

		summary := world.Summary()
		log.Printf("generation=%d ticks=%d alive=%d best=%s best_progress=%.3f", generation, summary.Tick, summary.Alive, summary.BestID, summary.BestProgress)
		if cfg.Run.SaveBest {
			if err := client.Save(ctx, world.Best().Brain()); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}
