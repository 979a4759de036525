package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Traffic) != 32 || cfg.Road.LaneCount != 3 || cfg.Population.StartY != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	rd, err := cfg.NewRoad()
	if err != nil {
		t.Fatalf("new road: %v", err)
	}
	if rd.LaneCenter(1) != 100 {
		t.Fatalf("unexpected middle lane center: %f", rd.LaneCenter(1))
	}
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "json",
			file: "run.json",
			body: `{
  "population": {"car_count": 12, "hidden": [8, 4], "broad_phase": true},
  "sensor": {"ray_count": 7},
  "run": {"ticks": 300, "seed": 42},
  "traffic": [{"lane": 2, "y": -250, "max_speed": 1.5}]
}`,
		},
		{
			name: "toml",
			file: "run.toml",
			body: `
[population]
car_count = 12
hidden = [8, 4]
broad_phase = true

[sensor]
ray_count = 7

[run]
ticks = 300
seed = 42

[[traffic]]
lane = 2
y = -250.0
max_speed = 1.5
`,
		},
		{
			name: "yaml",
			file: "run.yaml",
			body: `
population:
  car_count: 12
  hidden: [8, 4]
  broad_phase: true
sensor:
  ray_count: 7
run:
  ticks: 300
  seed: 42
traffic:
  - lane: 2
    y: -250
    max_speed: 1.5
`,
		},
		{
			name: "ini",
			file: "run.ini",
			body: `
[population]
car_count = 12
hidden = 8,4
broad_phase = true

[sensor]
ray_count = 7

[run]
ticks = 300
seed = 42

[traffic]
cars = 2:-250:1.5
`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.file, tc.body))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Population.CarCount != 12 || !cfg.Population.BroadPhase {
				t.Fatalf("unexpected population: %+v", cfg.Population)
			}
			if !slices.Equal(cfg.Population.Hidden, []int{8, 4}) {
				t.Fatalf("unexpected hidden layers: %v", cfg.Population.Hidden)
			}
			if cfg.Sensor.RayCount != 7 || cfg.Sensor.RayLength != 150 {
				t.Fatalf("sensor not merged over defaults: %+v", cfg.Sensor)
			}
			if cfg.Run.Ticks != 300 || cfg.Run.Seed != 42 || cfg.Run.Generations != 1 {
				t.Fatalf("unexpected run settings: %+v", cfg.Run)
			}
			if len(cfg.Traffic) != 1 || cfg.Traffic[0].Lane != 2 || cfg.Traffic[0].Y != -250 || cfg.Traffic[0].MaxSpeed != 1.5 {
				t.Fatalf("unexpected traffic: %+v", cfg.Traffic)
			}
			if cfg.Road.Width != 180 {
				t.Fatalf("road not defaulted: %+v", cfg.Road)
			}

			simCfg := cfg.SimConfig()
			if got := simCfg.Topology(); !slices.Equal(got, []int{7, 8, 4, 4}) {
				t.Fatalf("unexpected topology: %v", got)
			}
		})
	}
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "unknown extension", file: "run.xml", body: "<run/>"},
		{name: "bad json", file: "run.json", body: "{"},
		{name: "zero lanes", file: "run.json", body: `{"road": {"lane_count": 0}}`},
		{name: "traffic lane", file: "run.yaml", body: "traffic:\n  - lane: 5\n    y: 0\n    max_speed: 1\n"},
		{name: "bad traffic entry", file: "run.ini", body: "[traffic]\ncars = 1:-100\n"},
		{name: "zero cars", file: "run.toml", body: "[population]\ncar_count = 0\n"},
		{name: "json traffic without speed", file: "run.json", body: `{"traffic": [{"lane": 0, "y": -50}]}`},
		{name: "toml traffic without speed", file: "run.toml", body: "[[traffic]]\nlane = 0\ny = -50.0\n"},
		{name: "yaml traffic without speed", file: "run.yaml", body: "traffic:\n  - lane: 0\n    y: -50\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.file, tc.body)); err == nil {
				t.Fatal("expected load error")
			}
		})
	}
}

func TestLoadTrafficReplacesDefaults(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want int
	}{
		{name: "json listed", file: "run.json", body: `{"traffic": [{"lane": 2, "y": -40, "max_speed": 1}]}`, want: 1},
		{name: "toml listed", file: "run.toml", body: "[[traffic]]\nlane = 2\ny = -40.0\nmax_speed = 1.0\n", want: 1},
		{name: "json empty", file: "run.json", body: `{"traffic": []}`, want: 0},
		{name: "json absent", file: "run.json", body: `{"run": {"ticks": 10}}`, want: 32},
		{name: "yaml absent", file: "run.yaml", body: "run:\n  ticks: 10\n", want: 32},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tc.file, tc.body))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(cfg.Traffic) != tc.want {
				t.Fatalf("got %d traffic entries, want %d", len(cfg.Traffic), tc.want)
			}
			if tc.want == 1 && (cfg.Traffic[0].Lane != 2 || cfg.Traffic[0].Y != -40 || cfg.Traffic[0].MaxSpeed != 1) {
				t.Fatalf("unexpected traffic: %+v", cfg.Traffic[0])
			}
		})
	}
}

func TestParseTrafficEntry(t *testing.T) {
	spec, err := ParseTrafficEntry(" 0:-300:2.5 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if spec.Lane != 0 || spec.Y != -300 || spec.MaxSpeed != 2.5 {
		t.Fatalf("unexpected spec: %+v", spec)
	}
	if _, err := ParseTrafficEntry("x:1:1"); err == nil {
		t.Fatal("expected lane parse error")
	}
}
