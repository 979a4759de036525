package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"aicars/internal/config"
	"aicars/internal/storage"
	"aicars/pkg/aicars"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "train":
		return runTrain(ctx, args[1:])
	case "discard":
		return runDiscard(ctx, args[1:])
	case "brain":
		return runBrain(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath: fs.String("db-path", "aicars.db", "sqlite database path"),
	}
}

func (s storeFlags) open(ctx context.Context) (*aicars.Client, error) {
	client, err := aicars.New(aicars.Options{StoreKind: *s.kind, DBPath: *s.dbPath})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fmt.Printf("initialized store=%s\n", *store.kind)
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	configPath := fs.String("config", "", "run config file (.json|.toml|.yaml|.ini)")
	store := addStoreFlags(fs)
	overrides := addRunFlags(fs)
	jsonOut := fs.Bool("json", false, "emit training summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
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

	summary, err := client.Train(ctx, aicars.TrainRequest{Settings: &cfg})
	if err != nil {
		return err
	}
	if summary.SeedWarning != "" {
		fmt.Fprintln(os.Stderr, summary.SeedWarning)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID       string `json:"run_id"`
			Seeded      bool   `json:"seeded"`
			Saved       bool   `json:"saved"`
			BestID      string `json:"best_id"`
			Generations any    `json:"generations"`
		}{summary.RunID, summary.Seeded, summary.Saved, summary.BestID, summary.Generations})
	}

	for _, gen := range summary.Generations {
		fmt.Printf("generation=%d ticks=%d alive=%d best=%s best_progress=%.3f seeded=%t\n",
			gen.Generation,
			gen.Ticks,
			gen.Alive,
			gen.BestID,
			gen.BestProgress,
			gen.Seeded,
		)
	}
	fmt.Printf("run_id=%s best=%s saved=%t\n", summary.RunID, summary.BestID, summary.Saved)
	return nil
}

func runDiscard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("discard", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Discard(ctx); err != nil {
		return err
	}
	fmt.Printf("discarded best brain store=%s\n", *store.kind)
	return nil
}

func runBrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("brain", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	network, ok, err := client.BestBrain(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("no best brain stored")
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(network)
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	store := addStoreFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := store.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, aicars.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	for _, item := range items {
		fmt.Printf("run_id=%s created_at=%s seed=%d cars=%d gens=%d best_progress=%.3f\n",
			item.RunID,
			item.CreatedAtUTC,
			item.Seed,
			item.CarCount,
			item.Generations,
			item.BestProgress,
		)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	store := addStoreFlags(fs)
	runID := fs.String("run-id", "", "run id to export")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "exports", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := store.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, aicars.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
	return nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: aicarsctl <init|train|discard|brain|runs|export|serve> [flags]", msg)
}
