//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"aicars/internal/model"
)

func TestSQLiteStoreBestBrainAndRuns(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "aicars.db")

	store, err := NewStore("sqlite", dbPath)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = CloseIfSupported(store)
	})

	if err := store.SaveBestBrain(ctx, sampleBrain()); err != nil {
		t.Fatalf("save brain: %v", err)
	}
	replacement := sampleBrain()
	replacement.Levels[0].Biases[0] = -0.125
	if err := store.SaveBestBrain(ctx, replacement); err != nil {
		t.Fatalf("overwrite brain: %v", err)
	}

	brain, ok, err := store.GetBestBrain(ctx)
	if err != nil {
		t.Fatalf("get brain: %v", err)
	}
	if !ok || brain.Levels[0].Biases[0] != -0.125 {
		t.Fatalf("unexpected brain: ok=%t %+v", ok, brain)
	}

	if err := store.DeleteBestBrain(ctx); err != nil {
		t.Fatalf("delete brain: %v", err)
	}
	if _, ok, err := store.GetBestBrain(ctx); err != nil || ok {
		t.Fatalf("expected empty slot, ok=%t err=%v", ok, err)
	}

	for _, run := range []model.RunRecord{
		{ID: "late", CreatedAtUTC: "2024-02-01T00:00:00Z", CarCount: 10},
		{ID: "early", CreatedAtUTC: "2024-01-01T00:00:00Z", CarCount: 5, Topology: []int{5, 6, 4}},
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "early" || runs[1].ID != "late" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	run, ok, err := store.GetRun(ctx, "early")
	if err != nil || !ok || len(run.Topology) != 3 {
		t.Fatalf("unexpected run: ok=%t err=%v %+v", ok, err, run)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "aicars.db")

	first := NewSQLiteStore(dbPath)
	if err := first.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := first.SaveBestBrain(ctx, sampleBrain()); err != nil {
		t.Fatalf("save brain: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second := NewSQLiteStore(dbPath)
	if err := second.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, ok, err := second.GetBestBrain(ctx); err != nil || !ok {
		t.Fatalf("expected persisted brain, ok=%t err=%v", ok, err)
	}
}
