// Package vehicle implements rigid-rectangle kinematics, the collision
// outline, and the one-way damage state for a single driving agent.
package vehicle

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"

	"aicars/internal/geom"
	"aicars/internal/nn"
	"aicars/internal/sensor"
)

var ErrNotManual = errors.New("controls can only be set on manual vehicles")

type Params struct {
	Width        float64 `json:"width" toml:"width" yaml:"width" ini:"width"`
	Height       float64 `json:"height" toml:"height" yaml:"height" ini:"height"`
	MaxSpeed     float64 `json:"max_speed" toml:"max_speed" yaml:"max_speed" ini:"max_speed"`
	Acceleration float64 `json:"acceleration" toml:"acceleration" yaml:"acceleration" ini:"acceleration"`
	Friction     float64 `json:"friction" toml:"friction" yaml:"friction" ini:"friction"`
	TurnRate     float64 `json:"turn_rate" toml:"turn_rate" yaml:"turn_rate" ini:"turn_rate"`
}

func DefaultParams() Params {
	return Params{
		Width:        30,
		Height:       50,
		MaxSpeed:     3,
		Acceleration: 0.2,
		Friction:     0.05,
		TurnRate:     0.03,
	}
}

func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("vehicle size must be > 0, got %fx%f", p.Width, p.Height)
	}
	if p.MaxSpeed <= 0 {
		return fmt.Errorf("max speed must be > 0, got %f", p.MaxSpeed)
	}
	if p.Acceleration < 0 || p.Friction < 0 || p.TurnRate < 0 {
		return fmt.Errorf("acceleration, friction and turn rate must be >= 0")
	}
	return nil
}

type options struct {
	id        string
	sensorCfg sensor.Config
	brain     *nn.Network
	rng       *rand.Rand
	hidden    []int
}

type Option func(*options)

func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

func WithSensor(cfg sensor.Config) Option {
	return func(o *options) { o.sensorCfg = cfg }
}

// WithBrain hands ownership of network to the vehicle.
func WithBrain(network *nn.Network) Option {
	return func(o *options) { o.brain = network }
}

// WithRandomBrain builds a fresh network [rays, hidden..., 4] from rng.
func WithRandomBrain(rng *rand.Rand, hidden ...int) Option {
	return func(o *options) {
		o.rng = rng
		o.hidden = append([]int(nil), hidden...)
	}
}

type Vehicle struct {
	id     string
	x      float64
	y      float64
	angle  float64
	speed  float64
	params Params

	mode     ControlMode
	controls Controls
	sensor   *sensor.Sensor
	brain    *nn.Network

	damaged bool
	polygon geom.Polygon
}

func New(x, y float64, mode ControlMode, params Params, opts ...Option) (*Vehicle, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	o := options{sensorCfg: sensor.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	v := &Vehicle{
		id:     o.id,
		x:      x,
		y:      y,
		params: params,
		mode:   mode,
	}

	switch mode {
	case Manual:
		s, err := sensor.New(v, o.sensorCfg)
		if err != nil {
			return nil, err
		}
		v.sensor = s
	case Autonomous:
		s, err := sensor.New(v, o.sensorCfg)
		if err != nil {
			return nil, err
		}
		v.sensor = s
		brain, err := resolveBrain(o, s.RayCount())
		if err != nil {
			return nil, fmt.Errorf("vehicle %s: %w", v.id, err)
		}
		v.brain = brain
	case ConstantForward:
		v.controls.Forward = true
	default:
		return nil, fmt.Errorf("unsupported control mode: %s", mode)
	}

	v.polygon = v.createPolygon()
	return v, nil
}

func resolveBrain(o options, rayCount int) (*nn.Network, error) {
	brain := o.brain
	if brain == nil {
		if o.rng == nil {
			return nil, errors.New("autonomous vehicle requires a brain or a random source")
		}
		counts := append([]int{rayCount}, o.hidden...)
		counts = append(counts, ControlCount)
		built, err := nn.New(o.rng, counts...)
		if err != nil {
			return nil, err
		}
		brain = built
	}
	if brain.InputSize() != rayCount {
		return nil, fmt.Errorf("%w: brain takes %d inputs, sensor casts %d rays", nn.ErrShapeMismatch, brain.InputSize(), rayCount)
	}
	if brain.OutputSize() != ControlCount {
		return nil, fmt.Errorf("%w: brain has %d outputs, want %d", nn.ErrShapeMismatch, brain.OutputSize(), ControlCount)
	}
	return brain, nil
}

// Update advances the vehicle by one tick. Other vehicles in traffic are
// read, never written; the receiver itself is skipped if present.
func (v *Vehicle) Update(borders []geom.Segment, traffic []*Vehicle) error {
	if v.damaged {
		if v.sensor != nil {
			v.sensor.Update(borders, v.obstacles(traffic))
		}
		return nil
	}

	if v.sensor != nil {
		v.sensor.Update(borders, v.obstacles(traffic))
	}
	if v.mode == Autonomous {
		outputs, err := v.brain.FeedForward(v.sensor.Offsets())
		if err != nil {
			return fmt.Errorf("vehicle %s: %w", v.id, err)
		}
		v.controls = controlsFromOutputs(outputs)
	}

	v.move()
	v.polygon = v.createPolygon()
	v.damaged = v.assessDamage(borders, traffic)
	return nil
}

func (v *Vehicle) move() {
	p := v.params
	if v.controls.Forward {
		v.speed += p.Acceleration
	}
	if v.controls.Reverse {
		v.speed -= p.Acceleration
	}

	if v.speed > p.MaxSpeed {
		v.speed = p.MaxSpeed
	}
	if v.speed < -p.MaxSpeed/2 {
		v.speed = -p.MaxSpeed / 2
	}

	if v.speed > 0 {
		v.speed -= p.Friction
	}
	if v.speed < 0 {
		v.speed += p.Friction
	}
	if math.Abs(v.speed) < p.Friction {
		v.speed = 0
	}

	if v.speed != 0 {
		flip := 1.0
		if v.speed < 0 {
			flip = -1
		}
		if v.controls.Left {
			v.angle += p.TurnRate * flip
		}
		if v.controls.Right {
			v.angle -= p.TurnRate * flip
		}
	}

	v.x -= math.Sin(v.angle) * v.speed
	v.y -= math.Cos(v.angle) * v.speed
}

// createPolygon returns the four corners front-left, front-right, back-left,
// back-right around the center.
func (v *Vehicle) createPolygon() geom.Polygon {
	rad := math.Hypot(v.params.Width, v.params.Height) / 2
	alpha := math.Atan2(v.params.Width, v.params.Height)
	corner := func(theta float64) r2.Point {
		return r2.Point{
			X: v.x - math.Sin(theta)*rad,
			Y: v.y - math.Cos(theta)*rad,
		}
	}
	return geom.Polygon{
		corner(v.angle - alpha),
		corner(v.angle + alpha),
		corner(math.Pi + v.angle - alpha),
		corner(math.Pi + v.angle + alpha),
	}
}

func (v *Vehicle) assessDamage(borders []geom.Segment, traffic []*Vehicle) bool {
	for _, border := range borders {
		if geom.SegmentIntersectsPolygon(border, v.polygon) {
			return true
		}
	}
	for _, other := range traffic {
		if other == v {
			continue
		}
		if geom.PolygonsIntersect(v.polygon, other.polygon) {
			return true
		}
	}
	return false
}

func (v *Vehicle) obstacles(traffic []*Vehicle) []geom.Polygon {
	out := make([]geom.Polygon, 0, len(traffic))
	for _, other := range traffic {
		if other == v {
			continue
		}
		out = append(out, other.polygon)
	}
	return out
}

func (v *Vehicle) ID() string             { return v.id }
func (v *Vehicle) X() float64             { return v.x }
func (v *Vehicle) Y() float64             { return v.y }
func (v *Vehicle) Angle() float64         { return v.angle }
func (v *Vehicle) Speed() float64         { return v.speed }
func (v *Vehicle) Params() Params         { return v.params }
func (v *Vehicle) Mode() ControlMode      { return v.mode }
func (v *Vehicle) Damaged() bool          { return v.damaged }
func (v *Vehicle) Controls() Controls     { return v.controls }
func (v *Vehicle) Brain() *nn.Network     { return v.brain }
func (v *Vehicle) Sensor() *sensor.Sensor { return v.sensor }

// Pose implements sensor.Mount.
func (v *Vehicle) Pose() (r2.Point, float64) {
	return r2.Point{X: v.x, Y: v.y}, v.angle
}

// Progress is the distance travelled up the track; larger is further.
func (v *Vehicle) Progress() float64 {
	return -v.y
}

func (v *Vehicle) Polygon() geom.Polygon {
	return v.polygon.Clone()
}

func (v *Vehicle) Readings() []*sensor.Reading {
	if v.sensor == nil {
		return nil
	}
	return v.sensor.Readings()
}

// SetControls sets the input flags of a manual vehicle.
func (v *Vehicle) SetControls(c Controls) error {
	if v.mode != Manual {
		return fmt.Errorf("%w: %s is %s", ErrNotManual, v.id, v.mode)
	}
	v.controls = c
	return nil
}
