// Package sensor casts a fan of rays from a mounted vehicle and records the
// nearest hit along each one.
package sensor

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"aicars/internal/geom"
)

// Mount is the vehicle a sensor is attached to. The sensor only reads the
// pose; it never owns or mutates the mount.
type Mount interface {
	Pose() (position r2.Point, heading float64)
}

type Config struct {
	RayCount  int     `json:"ray_count" toml:"ray_count" yaml:"ray_count" ini:"ray_count"`
	RayLength float64 `json:"ray_length" toml:"ray_length" yaml:"ray_length" ini:"ray_length"`
	RaySpread float64 `json:"ray_spread" toml:"ray_spread" yaml:"ray_spread" ini:"ray_spread"`
}

func DefaultConfig() Config {
	return Config{
		RayCount:  5,
		RayLength: 150,
		RaySpread: math.Pi / 2,
	}
}

func (c Config) Validate() error {
	if c.RayCount < 1 {
		return fmt.Errorf("ray count must be >= 1, got %d", c.RayCount)
	}
	if c.RayLength <= 0 {
		return fmt.Errorf("ray length must be > 0, got %f", c.RayLength)
	}
	if c.RaySpread < 0 {
		return fmt.Errorf("ray spread must be >= 0, got %f", c.RaySpread)
	}
	return nil
}

// Reading is the nearest hit along one ray.
type Reading = geom.Touch

type Sensor struct {
	owner    Mount
	config   Config
	rays     []geom.Segment
	readings []*Reading
}

func New(owner Mount, cfg Config) (*Sensor, error) {
	if owner == nil {
		return nil, fmt.Errorf("sensor mount is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sensor{
		owner:    owner,
		config:   cfg,
		rays:     make([]geom.Segment, cfg.RayCount),
		readings: make([]*Reading, cfg.RayCount),
	}, nil
}

func (s *Sensor) Config() Config {
	return s.config
}

func (s *Sensor) RayCount() int {
	return s.config.RayCount
}

// Update recasts every ray from the mount's current pose. Each reading is
// the closest hit among borders and obstacle outlines, or nil.
func (s *Sensor) Update(borders []geom.Segment, obstacles []geom.Polygon) {
	s.castRays()
	for i, ray := range s.rays {
		s.readings[i] = nearestHit(ray, borders, obstacles)
	}
}

func (s *Sensor) castRays() {
	origin, heading := s.owner.Pose()
	half := s.config.RaySpread / 2
	for i := range s.rays {
		t := 0.5
		if s.config.RayCount > 1 {
			t = float64(i) / float64(s.config.RayCount-1)
		}
		angle := heading + geom.Lerp(-half, half, t)
		end := r2.Point{
			X: origin.X - math.Sin(angle)*s.config.RayLength,
			Y: origin.Y - math.Cos(angle)*s.config.RayLength,
		}
		s.rays[i] = geom.Segment{A: origin, B: end}
	}
}

func nearestHit(ray geom.Segment, borders []geom.Segment, obstacles []geom.Polygon) *Reading {
	var best *Reading
	consider := func(touch geom.Touch) {
		if best == nil || touch.Offset < best.Offset {
			hit := touch
			best = &hit
		}
	}

	for _, border := range borders {
		if touch, ok := geom.Intersect(ray, border); ok {
			consider(touch)
		}
	}
	for _, poly := range obstacles {
		for _, edge := range poly.Edges() {
			if touch, ok := geom.Intersect(ray, edge); ok {
				consider(touch)
			}
		}
	}
	return best
}

// Readings returns the last computed readings. Entries are nil for rays
// that hit nothing.
func (s *Sensor) Readings() []*Reading {
	out := make([]*Reading, len(s.readings))
	for i, reading := range s.readings {
		if reading != nil {
			copied := *reading
			out[i] = &copied
		}
	}
	return out
}

// Rays returns the segments cast on the last update.
func (s *Sensor) Rays() []geom.Segment {
	return append([]geom.Segment(nil), s.rays...)
}

// Offsets converts readings into network inputs: 1 at contact falling to 0
// at full ray length. A ray that hit nothing reads the same as a hit at full
// length.
func (s *Sensor) Offsets() []float64 {
	out := make([]float64, len(s.readings))
	for i, reading := range s.readings {
		if reading == nil {
			out[i] = 0
			continue
		}
		out[i] = 1 - reading.Offset
	}
	return out
}
