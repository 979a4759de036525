package sim

import (
	"github.com/golang/geo/r2"

	"aicars/internal/nn"
	"aicars/internal/road"
	"aicars/internal/sensor"
	"aicars/internal/vehicle"
)

// Frame is a read-only snapshot of the world for display collaborators.
type Frame struct {
	Tick      int           `json:"tick"`
	Alive     int           `json:"alive"`
	BestID    string        `json:"best_id"`
	Cars      []VehicleView `json:"cars"`
	Traffic   []VehicleView `json:"traffic"`
	BestBrain *nn.Network   `json:"best_brain,omitempty"`
}

type VehicleView struct {
	ID       string            `json:"id"`
	Mode     string            `json:"mode"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Angle    float64           `json:"angle"`
	Speed    float64           `json:"speed"`
	Damaged  bool              `json:"damaged"`
	Polygon  []r2.Point        `json:"polygon"`
	Readings []*sensor.Reading `json:"readings,omitempty"`
}

// RoadView describes the static track for display collaborators.
type RoadView struct {
	Left         float64   `json:"left"`
	Right        float64   `json:"right"`
	LaneCount    int       `json:"lane_count"`
	LaneMarkings []float64 `json:"lane_markings"`
}

func viewOf(v *vehicle.Vehicle) VehicleView {
	return VehicleView{
		ID:       v.ID(),
		Mode:     v.Mode().String(),
		X:        v.X(),
		Y:        v.Y(),
		Angle:    v.Angle(),
		Speed:    v.Speed(),
		Damaged:  v.Damaged(),
		Polygon:  v.Polygon(),
		Readings: v.Readings(),
	}
}

func (w *World) Frame() Frame {
	frame := Frame{
		Tick:    w.tick,
		Alive:   len(w.Alive()),
		BestID:  w.best.ID(),
		Cars:    make([]VehicleView, len(w.cars)),
		Traffic: make([]VehicleView, len(w.traffic)),
	}
	for i, car := range w.cars {
		frame.Cars[i] = viewOf(car)
	}
	for i, v := range w.traffic {
		frame.Traffic[i] = viewOf(v)
	}
	if brain := w.best.Brain(); brain != nil {
		frame.BestBrain = brain.Clone()
	}
	return frame
}

func (w *World) RoadView() RoadView {
	return RoadViewOf(w.road)
}

func RoadViewOf(rd *road.Road) RoadView {
	return RoadView{
		Left:         rd.Left(),
		Right:        rd.Right(),
		LaneCount:    rd.LaneCount,
		LaneMarkings: rd.LaneMarkings(),
	}
}
