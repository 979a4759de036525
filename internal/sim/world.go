// Package sim runs one generation of autonomous vehicles against a shared
// road and a fixed set of traffic, and tracks the furthest live agent.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"aicars/internal/geom"
	"aicars/internal/nn"
	"aicars/internal/road"
	"aicars/internal/sensor"
	"aicars/internal/vehicle"
)

const DefaultMutationAmount = 0.1

type Config struct {
	CarCount       int
	Workers        int
	StartLane      int
	StartY         float64
	Hidden         []int
	MutationAmount float64
	Sensor         sensor.Config
	Vehicle        vehicle.Params
	Traffic        []TrafficSpec
	BroadPhase     bool
}

func DefaultConfig() Config {
	return Config{
		CarCount:       100,
		Workers:        1,
		StartLane:      1,
		StartY:         100,
		Hidden:         []int{6},
		MutationAmount: DefaultMutationAmount,
		Sensor:         sensor.DefaultConfig(),
		Vehicle:        vehicle.DefaultParams(),
		Traffic:        DefaultTraffic(),
	}
}

func (c Config) Validate() error {
	if c.CarCount < 1 {
		return fmt.Errorf("car count must be >= 1, got %d", c.CarCount)
	}
	if c.MutationAmount < 0 || c.MutationAmount > 1 {
		return fmt.Errorf("mutation amount must be in [0,1], got %f", c.MutationAmount)
	}
	for i, h := range c.Hidden {
		if h < 1 {
			return fmt.Errorf("hidden layer %d must have >= 1 neurons, got %d", i, h)
		}
	}
	if err := c.Sensor.Validate(); err != nil {
		return err
	}
	return c.Vehicle.Validate()
}

// Topology is the network shape every autonomous car in the world uses.
func (c Config) Topology() []int {
	counts := []int{c.Sensor.RayCount}
	counts = append(counts, c.Hidden...)
	return append(counts, vehicle.ControlCount)
}

type World struct {
	road    *road.Road
	borders []geom.Segment
	cfg     Config

	cars    []*vehicle.Vehicle
	traffic []*vehicle.Vehicle
	best    *vehicle.Vehicle
	tick    int
	seeded  bool
}

// NewWorld seeds a generation. Without a seed network every car gets a fresh
// random brain. With one, every car gets a deep copy; car 0 is kept as the
// unmutated elite and the rest are mutated independently.
func NewWorld(rd *road.Road, cfg Config, rng *rand.Rand, seed *nn.Network) (*World, error) {
	if rd == nil {
		return nil, errors.New("road is required")
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	traffic, err := buildTraffic(rd, cfg)
	if err != nil {
		return nil, err
	}
	cars, err := GenerateCars(rd, cfg, rng, seed)
	if err != nil {
		return nil, err
	}

	return &World{
		road:    rd,
		borders: rd.Borders(),
		cfg:     cfg,
		cars:    cars,
		traffic: traffic,
		best:    cars[0],
		seeded:  seed != nil,
	}, nil
}

func buildTraffic(rd *road.Road, cfg Config) ([]*vehicle.Vehicle, error) {
	out := make([]*vehicle.Vehicle, 0, len(cfg.Traffic))
	for i, spec := range cfg.Traffic {
		params := cfg.Vehicle
		params.MaxSpeed = spec.MaxSpeed
		v, err := vehicle.New(rd.LaneCenter(spec.Lane), spec.Y, vehicle.ConstantForward, params,
			vehicle.WithID(fmt.Sprintf("traffic-%d", i)))
		if err != nil {
			return nil, fmt.Errorf("traffic %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GenerateCars builds cfg.CarCount autonomous cars at the start position.
func GenerateCars(rd *road.Road, cfg Config, rng *rand.Rand, seed *nn.Network) ([]*vehicle.Vehicle, error) {
	cars := make([]*vehicle.Vehicle, 0, cfg.CarCount)
	x := rd.LaneCenter(cfg.StartLane)
	for i := 0; i < cfg.CarCount; i++ {
		opts := []vehicle.Option{
			vehicle.WithID(fmt.Sprintf("car-%d", i)),
			vehicle.WithSensor(cfg.Sensor),
		}
		if seed != nil {
			brain := seed.Clone()
			if i != 0 {
				if err := brain.Mutate(rng, cfg.MutationAmount); err != nil {
					return nil, err
				}
			}
			opts = append(opts, vehicle.WithBrain(brain))
		} else {
			opts = append(opts, vehicle.WithRandomBrain(rng, cfg.Hidden...))
		}

		car, err := vehicle.New(x, cfg.StartY, vehicle.Autonomous, cfg.Vehicle, opts...)
		if err != nil {
			return nil, fmt.Errorf("car %d: %w", i, err)
		}
		cars = append(cars, car)
	}
	return cars, nil
}

// Step advances the world one tick: traffic first, seeing only the borders,
// then every car, seeing the borders and the traffic but never each other.
func (w *World) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := w.updateGroup(ctx, w.traffic, func(v *vehicle.Vehicle) error {
		return v.Update(w.borders, nil)
	}); err != nil {
		return err
	}

	var index *broadPhase
	if w.cfg.BroadPhase {
		built, err := newBroadPhase(w.traffic)
		if err != nil {
			return err
		}
		index = built
	}
	if err := w.updateGroup(ctx, w.cars, func(v *vehicle.Vehicle) error {
		traffic := w.traffic
		if index != nil {
			traffic = index.near(v, w.reach(v))
		}
		return v.Update(w.borders, traffic)
	}); err != nil {
		return err
	}

	w.tick++
	w.best = w.findBest()
	return nil
}

// updateGroup runs fn for every vehicle. Vehicles within a group never read
// each other, so the group can be split across workers.
func (w *World) updateGroup(ctx context.Context, group []*vehicle.Vehicle, fn func(*vehicle.Vehicle) error) error {
	workerCount := w.cfg.Workers
	if workerCount > len(group) {
		workerCount = len(group)
	}
	if workerCount <= 1 {
		for _, v := range group {
			if err := fn(v); err != nil {
				return err
			}
		}
		return nil
	}

	jobs := make(chan *vehicle.Vehicle)
	errs := make(chan error, len(group))

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for v := range jobs {
				if err := fn(v); err != nil {
					errs <- err
				}
			}
		}()
	}

	for _, v := range group {
		if err := ctx.Err(); err != nil {
			break
		}
		jobs <- v
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return err
	}
	return ctx.Err()
}

// reach bounds how far from its current center a car can sense or collide
// during one tick.
func (w *World) reach(v *vehicle.Vehicle) float64 {
	p := v.Params()
	rayLength := 0.0
	if s := v.Sensor(); s != nil {
		rayLength = s.Config().RayLength
	}
	return rayLength + math.Hypot(p.Width, p.Height)/2 + p.MaxSpeed
}

func (w *World) findBest() *vehicle.Vehicle {
	var best *vehicle.Vehicle
	for _, car := range w.cars {
		if car.Damaged() {
			continue
		}
		if best == nil || car.Y() < best.Y() {
			best = car
		}
	}
	if best == nil {
		return w.cars[0]
	}
	return best
}

// Alive returns the cars that are not damaged.
func (w *World) Alive() []*vehicle.Vehicle {
	out := make([]*vehicle.Vehicle, 0, len(w.cars))
	for _, car := range w.cars {
		if !car.Damaged() {
			out = append(out, car)
		}
	}
	return out
}

// Best returns the live car furthest up the track, or car 0 when every car
// is damaged.
func (w *World) Best() *vehicle.Vehicle {
	return w.best
}

func (w *World) Cars() []*vehicle.Vehicle {
	return append([]*vehicle.Vehicle(nil), w.cars...)
}

func (w *World) Traffic() []*vehicle.Vehicle {
	return append([]*vehicle.Vehicle(nil), w.traffic...)
}

func (w *World) Road() *road.Road { return w.road }
func (w *World) Tick() int        { return w.tick }
func (w *World) Seeded() bool     { return w.seeded }
func (w *World) Config() Config   { return w.cfg }

type Summary struct {
	Tick         int
	Alive        int
	BestID       string
	BestProgress float64
}

func (w *World) Summary() Summary {
	return Summary{
		Tick:         w.tick,
		Alive:        len(w.Alive()),
		BestID:       w.best.ID(),
		BestProgress: w.best.Progress(),
	}
}

type RunOptions struct {
	Ticks              int
	StopWhenAllDamaged bool
	Observe            func(Frame)
}

// Run steps the world up to opts.Ticks times.
func (w *World) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	for i := 0; i < opts.Ticks; i++ {
		if err := w.Step(ctx); err != nil {
			return w.Summary(), err
		}
		if opts.Observe != nil {
			opts.Observe(w.Frame())
		}
		if opts.StopWhenAllDamaged && len(w.Alive()) == 0 {
			break
		}
	}
	return w.Summary(), nil
}
