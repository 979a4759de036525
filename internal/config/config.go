// Package config loads simulation settings from JSON, TOML, YAML or INI
// files, merging them over the stock defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"aicars/internal/road"
	"aicars/internal/sensor"
	"aicars/internal/sim"
	"aicars/internal/storage"
	"aicars/internal/vehicle"
)

type Road struct {
	CenterX   float64 `json:"center_x" toml:"center_x" yaml:"center_x" ini:"center_x"`
	Width     float64 `json:"width" toml:"width" yaml:"width" ini:"width"`
	LaneCount int     `json:"lane_count" toml:"lane_count" yaml:"lane_count" ini:"lane_count"`
}

type Population struct {
	CarCount       int     `json:"car_count" toml:"car_count" yaml:"car_count" ini:"car_count"`
	MutationAmount float64 `json:"mutation_amount" toml:"mutation_amount" yaml:"mutation_amount" ini:"mutation_amount"`
	Hidden         []int   `json:"hidden" toml:"hidden" yaml:"hidden" ini:"hidden"`
	StartLane      int     `json:"start_lane" toml:"start_lane" yaml:"start_lane" ini:"start_lane"`
	StartY         float64 `json:"start_y" toml:"start_y" yaml:"start_y" ini:"start_y"`
	Workers        int     `json:"workers" toml:"workers" yaml:"workers" ini:"workers"`
	BroadPhase     bool    `json:"broad_phase" toml:"broad_phase" yaml:"broad_phase" ini:"broad_phase"`
}

type Run struct {
	Ticks       int    `json:"ticks" toml:"ticks" yaml:"ticks" ini:"ticks"`
	Generations int    `json:"generations" toml:"generations" yaml:"generations" ini:"generations"`
	Seed        int64  `json:"seed" toml:"seed" yaml:"seed" ini:"seed"`
	Store       string `json:"store" toml:"store" yaml:"store" ini:"store"`
	DBPath      string `json:"db_path" toml:"db_path" yaml:"db_path" ini:"db_path"`
	SaveBest    bool   `json:"save_best" toml:"save_best" yaml:"save_best" ini:"save_best"`
}

type Config struct {
	Road       Road              `json:"road" toml:"road" yaml:"road"`
	Sensor     sensor.Config     `json:"sensor" toml:"sensor" yaml:"sensor"`
	Vehicle    vehicle.Params    `json:"vehicle" toml:"vehicle" yaml:"vehicle"`
	Population Population        `json:"population" toml:"population" yaml:"population"`
	Run        Run               `json:"run" toml:"run" yaml:"run"`
	Traffic    []sim.TrafficSpec `json:"traffic" toml:"traffic" yaml:"traffic"`
}

func Default() Config {
	simCfg := sim.DefaultConfig()
	return Config{
		Road:    Road{CenterX: 100, Width: 180, LaneCount: 3},
		Sensor:  simCfg.Sensor,
		Vehicle: simCfg.Vehicle,
		Population: Population{
			CarCount:       simCfg.CarCount,
			MutationAmount: simCfg.MutationAmount,
			Hidden:         append([]int(nil), simCfg.Hidden...),
			StartLane:      simCfg.StartLane,
			StartY:         simCfg.StartY,
			Workers:        simCfg.Workers,
		},
		Run: Run{
			Ticks:       2000,
			Generations: 1,
			Seed:        1,
			Store:       storage.DefaultStoreKind(),
			DBPath:      "aicars.db",
			SaveBest:    true,
		},
		Traffic: simCfg.Traffic,
	}
}

// Load reads path over Default, picking the decoder from the file extension.
func Load(path string) (Config, error) {
	cfg := Default()
	// Decoders reuse an existing slice element by element, so a listed
	// obstacle would inherit fields from the default at the same index.
	defaults := cfg.Traffic
	cfg.Traffic = nil

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = loadJSON(path, &cfg)
	case ".toml":
		_, err = toml.DecodeFile(path, &cfg)
	case ".yaml", ".yml":
		err = loadYAML(path, &cfg)
	case ".ini":
		err = loadINI(path, &cfg)
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Traffic == nil {
		cfg.Traffic = defaults
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func loadINI(path string, cfg *Config) error {
	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		KeyValueDelimiters:  "=",
	}, path)
	if err != nil {
		return err
	}

	sections := []struct {
		name   string
		target any
	}{
		{"road", &cfg.Road},
		{"sensor", &cfg.Sensor},
		{"vehicle", &cfg.Vehicle},
		{"population", &cfg.Population},
		{"run", &cfg.Run},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			continue
		}
		if err := file.Section(s.name).MapTo(s.target); err != nil {
			return fmt.Errorf("map [%s] section: %w", s.name, err)
		}
	}

	if file.HasSection("traffic") && file.Section("traffic").HasKey("cars") {
		entries := file.Section("traffic").Key("cars").Strings(",")
		traffic := make([]sim.TrafficSpec, 0, len(entries))
		for _, entry := range entries {
			spec, err := ParseTrafficEntry(entry)
			if err != nil {
				return fmt.Errorf("[traffic] cars: %w", err)
			}
			traffic = append(traffic, spec)
		}
		cfg.Traffic = traffic
	}
	return nil
}

// ParseTrafficEntry parses one "lane:y:speed" obstacle.
func ParseTrafficEntry(entry string) (sim.TrafficSpec, error) {
	parts := strings.Split(strings.TrimSpace(entry), ":")
	if len(parts) != 3 {
		return sim.TrafficSpec{}, fmt.Errorf("traffic entry %q: want lane:y:speed", entry)
	}
	lane, err := strconv.Atoi(parts[0])
	if err != nil {
		return sim.TrafficSpec{}, fmt.Errorf("traffic entry %q lane: %w", entry, err)
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return sim.TrafficSpec{}, fmt.Errorf("traffic entry %q y: %w", entry, err)
	}
	speed, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return sim.TrafficSpec{}, fmt.Errorf("traffic entry %q speed: %w", entry, err)
	}
	return sim.TrafficSpec{Lane: lane, Y: y, MaxSpeed: speed}, nil
}

func (c Config) Validate() error {
	if c.Road.LaneCount < 1 {
		return fmt.Errorf("road lane count must be >= 1, got %d", c.Road.LaneCount)
	}
	if c.Road.Width <= 0 {
		return fmt.Errorf("road width must be > 0, got %f", c.Road.Width)
	}
	if c.Population.StartLane < 0 || c.Population.StartLane >= c.Road.LaneCount {
		return fmt.Errorf("start lane %d outside road with %d lanes", c.Population.StartLane, c.Road.LaneCount)
	}
	if c.Population.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Population.Workers)
	}
	if c.Run.Ticks < 1 {
		return fmt.Errorf("ticks must be >= 1, got %d", c.Run.Ticks)
	}
	if c.Run.Generations < 1 {
		return fmt.Errorf("generations must be >= 1, got %d", c.Run.Generations)
	}
	for i, spec := range c.Traffic {
		if spec.Lane < 0 || spec.Lane >= c.Road.LaneCount {
			return fmt.Errorf("traffic %d: lane %d outside road with %d lanes", i, spec.Lane, c.Road.LaneCount)
		}
		if spec.MaxSpeed <= 0 {
			return fmt.Errorf("traffic %d: max speed must be > 0, got %f", i, spec.MaxSpeed)
		}
	}
	return c.SimConfig().Validate()
}

// NewRoad builds the track described by the road section.
func (c Config) NewRoad() (*road.Road, error) {
	return road.New(c.Road.CenterX, c.Road.Width, c.Road.LaneCount)
}

// SimConfig converts the file layout into the simulation's settings.
func (c Config) SimConfig() sim.Config {
	return sim.Config{
		CarCount:       c.Population.CarCount,
		Workers:        c.Population.Workers,
		StartLane:      c.Population.StartLane,
		StartY:         c.Population.StartY,
		Hidden:         append([]int(nil), c.Population.Hidden...),
		MutationAmount: c.Population.MutationAmount,
		Sensor:         c.Sensor,
		Vehicle:        c.Vehicle,
		Traffic:        append([]sim.TrafficSpec(nil), c.Traffic...),
		BroadPhase:     c.Population.BroadPhase,
	}
}
