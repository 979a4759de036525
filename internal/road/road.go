// Package road provides the straight multi-lane track the agents drive on:
// lane centers for spawning and the border segments used by sensing and
// damage checks.
package road

import (
	"fmt"

	"aicars/internal/geom"
)

// Infinity stands in for the open ends of the track.
const Infinity = 1e6

type Road struct {
	CenterX   float64
	Width     float64
	LaneCount int

	left   float64
	right  float64
	top    float64
	bottom float64
}

func New(centerX, width float64, laneCount int) (*Road, error) {
	if laneCount < 1 {
		return nil, fmt.Errorf("lane count must be >= 1, got %d", laneCount)
	}
	if width <= 0 {
		return nil, fmt.Errorf("road width must be > 0, got %f", width)
	}
	return &Road{
		CenterX:   centerX,
		Width:     width,
		LaneCount: laneCount,
		left:      centerX - width/2,
		right:     centerX + width/2,
		top:       -Infinity,
		bottom:    Infinity,
	}, nil
}

func (r *Road) Left() float64  { return r.left }
func (r *Road) Right() float64 { return r.right }

func (r *Road) LaneWidth() float64 {
	return r.Width / float64(r.LaneCount)
}

// LaneCenter returns the x coordinate of lane index. Out of range indexes
// clamp to the outermost lanes.
func (r *Road) LaneCenter(index int) float64 {
	index = max(0, min(index, r.LaneCount-1))
	laneWidth := r.LaneWidth()
	return r.left + laneWidth/2 + float64(index)*laneWidth
}

// Borders returns the left and right edges of the track.
func (r *Road) Borders() []geom.Segment {
	return []geom.Segment{
		geom.Seg(r.left, r.top, r.left, r.bottom),
		geom.Seg(r.right, r.top, r.right, r.bottom),
	}
}

// LaneMarkings returns the dividers between lanes for display collaborators.
// They take no part in sensing or damage.
func (r *Road) LaneMarkings() []float64 {
	out := make([]float64, 0, r.LaneCount-1)
	for i := 1; i < r.LaneCount; i++ {
		out = append(out, r.left+float64(i)*r.LaneWidth())
	}
	return out
}
