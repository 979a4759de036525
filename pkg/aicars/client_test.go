package aicars

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"aicars/internal/config"
	"aicars/internal/nn"
	"aicars/internal/sim"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", ExportsDir: filepath.Join(t.TempDir(), "exports")})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return client
}

func smallSettings() *config.Config {
	cfg := config.Default()
	cfg.Population.CarCount = 6
	cfg.Run.Ticks = 40
	cfg.Run.Generations = 2
	cfg.Run.Seed = 7
	cfg.Traffic = cfg.Traffic[:4]
	return &cfg
}

func TestTrainSeedsLaterGenerationsAndSavesBest(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	observed := map[int]int{}
	summary, err := client.Train(ctx, TrainRequest{
		Settings: smallSettings(),
		Observe: func(generation int, _ sim.Frame) {
			observed[generation]++
		},
	})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if summary.RunID == "" || summary.Seeded || summary.SeedWarning != "" {
		t.Fatalf("unexpected summary header: %+v", summary)
	}
	if len(summary.Generations) != 2 {
		t.Fatalf("expected 2 generations, got %d", len(summary.Generations))
	}
	if summary.Generations[0].Seeded || !summary.Generations[1].Seeded {
		t.Fatalf("expected only the second generation to be seeded: %+v", summary.Generations)
	}
	if observed[1] == 0 || observed[2] == 0 {
		t.Fatalf("expected frames from both generations: %v", observed)
	}
	if !summary.Saved {
		t.Fatal("expected best brain to be saved")
	}

	stored, ok, err := client.BestBrain(ctx)
	if err != nil || !ok {
		t.Fatalf("best brain: ok=%t err=%v", ok, err)
	}
	if !stored.Equal(summary.BestBrain) {
		t.Fatal("stored brain differs from trained best")
	}

	again, err := client.Train(ctx, TrainRequest{Settings: smallSettings()})
	if err != nil {
		t.Fatalf("second train: %v", err)
	}
	if !again.Seeded || !again.Generations[0].Seeded {
		t.Fatal("expected second training run to start from the stored brain")
	}

	runs, err := client.Runs(ctx, RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 2 || runs[0].Generations != 2 || runs[0].CarCount != 6 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if limited, _ := client.Runs(ctx, RunsRequest{Limit: 1}); len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestTrainFallsBackOnMismatchedStoredBrain(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	wrong := nn.MustNew(rand.New(rand.NewSource(1)), 3, 4)
	if err := client.Save(ctx, wrong); err != nil {
		t.Fatalf("save: %v", err)
	}

	settings := smallSettings()
	settings.Run.Generations = 1
	settings.Run.SaveBest = false
	summary, err := client.Train(ctx, TrainRequest{Settings: settings})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if summary.Seeded || summary.SeedWarning == "" {
		t.Fatalf("expected random start with a warning: %+v", summary)
	}
	if summary.Saved {
		t.Fatal("save_best=false must not save")
	}

	stored, ok, err := client.BestBrain(ctx)
	if err != nil || !ok || !stored.Equal(wrong) {
		t.Fatalf("stored brain should be untouched: ok=%t err=%v", ok, err)
	}
}

func TestDiscardClearsBestBrain(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	if err := client.Save(ctx, nn.MustNew(rand.New(rand.NewSource(2)), 5, 6, 4)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := client.Discard(ctx); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, ok, err := client.BestBrain(ctx); err != nil || ok {
		t.Fatalf("expected no brain after discard, ok=%t err=%v", ok, err)
	}
	if err := client.Save(ctx, nil); err == nil {
		t.Fatal("expected error saving nil network")
	}
}

func TestSeedWorldUsesStoredBrain(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	cfg := *smallSettings()
	saved := nn.MustNew(rand.New(rand.NewSource(3)), cfg.SimConfig().Topology()...)
	if err := client.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	world, warning, err := client.SeedWorld(ctx, cfg, rand.New(rand.NewSource(4)))
	if err != nil {
		t.Fatalf("seed world: %v", err)
	}
	if warning != "" || !world.Seeded() {
		t.Fatalf("expected seeded world, warning=%q", warning)
	}
	if !world.Cars()[0].Brain().Equal(saved) {
		t.Fatal("car 0 must carry the stored brain")
	}
}

func TestExportWritesRunArtifacts(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	settings := smallSettings()
	settings.Run.Generations = 1
	summary, err := client.Train(ctx, TrainRequest{Settings: settings})
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	exported, err := client.Export(ctx, ExportRequest{Latest: true})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID {
		t.Fatalf("exported %s, want %s", exported.RunID, summary.RunID)
	}
	for _, name := range []string{"run.json", "best_brain.json"} {
		if _, err := os.Stat(filepath.Join(exported.Directory, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	if _, err := client.Export(ctx, ExportRequest{}); err == nil {
		t.Fatal("expected error without run id or latest")
	}
	if _, err := client.Export(ctx, ExportRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected error for unknown run")
	}
}
