// Package aicars is the programmatic entry point for training and inspecting
// populations of self-driving agents.
package aicars

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"aicars/internal/config"
	"aicars/internal/model"
	"aicars/internal/nn"
	"aicars/internal/sim"
	"aicars/internal/storage"
)

const (
	defaultDBPath     = "aicars.db"
	defaultExportsDir = "exports"
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
}

type Client struct {
	store       storage.Store
	initialized bool

	exportsDir string
}

type TrainRequest struct {
	// Settings defaults to config.Default when nil.
	Settings *config.Config
	Observe  func(generation int, frame sim.Frame)
}

type TrainSummary struct {
	RunID       string
	Generations []model.GenerationRecord
	BestID      string
	BestBrain   *nn.Network
	Seeded      bool
	SeedWarning string
	Saved       bool
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Seed         int64
	CarCount     int
	Generations  int
	BestProgress float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, exportsDir: exportsDir}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Train runs req.Settings.Run.Generations generations. Each generation is
// seeded from the best brain of the previous one; the first is seeded from
// the stored best brain when one fits the configured topology.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	cfg := config.Default()
	if req.Settings != nil {
		cfg = *req.Settings
	}
	if err := cfg.Validate(); err != nil {
		return TrainSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return TrainSummary{}, err
	}

	rd, err := cfg.NewRoad()
	if err != nil {
		return TrainSummary{}, err
	}
	simCfg := cfg.SimConfig()
	rng := rand.New(rand.NewSource(cfg.Run.Seed))

	seed, warning := c.loadSeed(ctx, simCfg.Topology())
	summary := TrainSummary{
		RunID:       uuid.NewString(),
		Seeded:      seed != nil,
		SeedWarning: warning,
	}

	for gen := 1; gen <= cfg.Run.Generations; gen++ {
		world, err := sim.NewWorld(rd, simCfg, rng, seed)
		if err != nil {
			return TrainSummary{}, err
		}

		opts := sim.RunOptions{Ticks: cfg.Run.Ticks, StopWhenAllDamaged: true}
		if req.Observe != nil {
			generation := gen
			opts.Observe = func(frame sim.Frame) { req.Observe(generation, frame) }
		}
		result, err := world.Run(ctx, opts)
		if err != nil {
			return TrainSummary{}, err
		}

		summary.Generations = append(summary.Generations, model.GenerationRecord{
			Generation:   gen,
			Ticks:        result.Tick,
			Alive:        result.Alive,
			BestProgress: result.BestProgress,
			BestID:       result.BestID,
			Seeded:       world.Seeded(),
		})
		seed = world.Best().Brain().Clone()
		summary.BestID = result.BestID
	}
	summary.BestBrain = seed

	if cfg.Run.SaveBest {
		if err := c.Save(ctx, seed); err != nil {
			return TrainSummary{}, err
		}
		summary.Saved = true
	}

	run := model.RunRecord{
		ID:           summary.RunID,
		CreatedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Seed:         cfg.Run.Seed,
		CarCount:     simCfg.CarCount,
		Topology:     simCfg.Topology(),
		Generations:  append([]model.GenerationRecord(nil), summary.Generations...),
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return TrainSummary{}, err
	}
	return summary, nil
}

// SeedWorld builds one generation seeded from the stored best brain. A
// missing or unusable stored brain falls back to random networks; the
// returned warning says why.
func (c *Client) SeedWorld(ctx context.Context, cfg config.Config, rng *rand.Rand) (*sim.World, string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	if err := c.Init(ctx); err != nil {
		return nil, "", err
	}
	rd, err := cfg.NewRoad()
	if err != nil {
		return nil, "", err
	}
	simCfg := cfg.SimConfig()
	seed, warning := c.loadSeed(ctx, simCfg.Topology())
	world, err := sim.NewWorld(rd, simCfg, rng, seed)
	if err != nil {
		return nil, "", err
	}
	return world, warning, nil
}

func (c *Client) loadSeed(ctx context.Context, topology []int) (*nn.Network, string) {
	brain, ok, err := c.store.GetBestBrain(ctx)
	if err != nil {
		return nil, fmt.Sprintf("stored best brain unreadable, starting from random networks: %v", err)
	}
	if !ok {
		return nil, ""
	}
	network, err := nn.FromModelWithTopology(brain, topology)
	if err != nil {
		return nil, fmt.Sprintf("stored best brain unusable, starting from random networks: %v", err)
	}
	return network, ""
}

// Save replaces the stored best brain.
func (c *Client) Save(ctx context.Context, network *nn.Network) error {
	if network == nil {
		return errors.New("network is required")
	}
	if err := c.Init(ctx); err != nil {
		return err
	}
	return c.store.SaveBestBrain(ctx, network.ToModel())
}

// Discard clears the stored best brain.
func (c *Client) Discard(ctx context.Context) error {
	if err := c.Init(ctx); err != nil {
		return err
	}
	return c.store.DeleteBestBrain(ctx)
}

func (c *Client) BestBrain(ctx context.Context) (*nn.Network, bool, error) {
	if err := c.Init(ctx); err != nil {
		return nil, false, err
	}
	brain, ok, err := c.store.GetBestBrain(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	network, err := nn.FromModel(brain)
	if err != nil {
		return nil, false, err
	}
	return network, true, nil
}

// Runs lists recorded training runs, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]RunItem, 0, min(len(runs), req.Limit))
	for i := len(runs) - 1; i >= 0 && len(out) < req.Limit; i-- {
		run := runs[i]
		item := RunItem{
			RunID:        run.ID,
			CreatedAtUTC: run.CreatedAtUTC,
			Seed:         run.Seed,
			CarCount:     run.CarCount,
			Generations:  len(run.Generations),
		}
		if n := len(run.Generations); n > 0 {
			item.BestProgress = run.Generations[n-1].BestProgress
		}
		out = append(out, item)
	}
	return out, nil
}

// Export writes a run record and the current best brain as JSON files under
// OutDir/<run id>.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	if err := c.Init(ctx); err != nil {
		return ExportSummary{}, err
	}

	runID := req.RunID
	if req.Latest {
		items, err := c.Runs(ctx, RunsRequest{Limit: 1})
		if err != nil {
			return ExportSummary{}, err
		}
		if len(items) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = items[0].RunID
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run not found: %s", runID)
	}

	dir := filepath.Join(req.OutDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ExportSummary{}, err
	}
	if err := writeJSON(filepath.Join(dir, "run.json"), run); err != nil {
		return ExportSummary{}, err
	}

	network, ok, err := c.BestBrain(ctx)
	if err != nil {
		return ExportSummary{}, err
	}
	if ok {
		if err := writeJSON(filepath.Join(dir, "best_brain.json"), network); err != nil {
			return ExportSummary{}, err
		}
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dir)}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
