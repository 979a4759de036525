// Package geom holds the 2D primitives shared by ray sensing and collision
// checks: segments, polygons, and the segment intersection they are built on.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Epsilon bounds the direction determinant below which two segments are
// treated as parallel.
const Epsilon = 1e-9

type Segment struct {
	A r2.Point
	B r2.Point
}

func Seg(ax, ay, bx, by float64) Segment {
	return Segment{A: r2.Point{X: ax, Y: ay}, B: r2.Point{X: bx, Y: by}}
}

// Touch is an intersection along a segment. Offset is the fraction of the
// first segment travelled before the hit.
type Touch struct {
	Point  r2.Point `json:"point"`
	Offset float64  `json:"offset"`
}

// Polygon is an ordered vertex list; the closing edge runs from the last
// vertex back to the first.
type Polygon []r2.Point

func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func LerpPoint(a, b r2.Point, t float64) r2.Point {
	return r2.Point{X: Lerp(a.X, b.X, t), Y: Lerp(a.Y, b.Y, t)}
}

// Intersect solves the two segment line equations parametrically. Parallel,
// collinear and zero-length inputs never hit.
func Intersect(a, b Segment) (Touch, bool) {
	tTop := (b.B.X-b.A.X)*(a.A.Y-b.A.Y) - (b.B.Y-b.A.Y)*(a.A.X-b.A.X)
	uTop := (b.A.Y-a.A.Y)*(a.A.X-a.B.X) - (b.A.X-a.A.X)*(a.A.Y-a.B.Y)
	bottom := (b.B.Y-b.A.Y)*(a.B.X-a.A.X) - (b.B.X-b.A.X)*(a.B.Y-a.A.Y)
	if math.Abs(bottom) < Epsilon {
		return Touch{}, false
	}

	t := tTop / bottom
	u := uTop / bottom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return Touch{}, false
	}
	return Touch{Point: LerpPoint(a.A, a.B, t), Offset: t}, true
}

// Edges returns the closed outline of p. Fewer than two vertices have no
// edges.
func (p Polygon) Edges() []Segment {
	if len(p) < 2 {
		return nil
	}
	edges := make([]Segment, 0, len(p))
	for i := range p {
		edges = append(edges, Segment{A: p[i], B: p[(i+1)%len(p)]})
	}
	return edges
}

// PolygonsIntersect reports whether any edge of a crosses any edge of b.
// A polygon fully contained in the other does not count.
func PolygonsIntersect(a, b Polygon) bool {
	edgesB := b.Edges()
	for _, ea := range a.Edges() {
		for _, eb := range edgesB {
			if _, ok := Intersect(ea, eb); ok {
				return true
			}
		}
	}
	return false
}

// SegmentIntersectsPolygon tests a single open segment, such as a road
// border, against the closed outline of p.
func SegmentIntersectsPolygon(s Segment, p Polygon) bool {
	for _, edge := range p.Edges() {
		if _, ok := Intersect(s, edge); ok {
			return true
		}
	}
	return false
}

// Bounds returns the axis-aligned box around p. The zero box is returned for
// an empty polygon.
func (p Polygon) Bounds() (min, max r2.Point) {
	if len(p) == 0 {
		return r2.Point{}, r2.Point{}
	}
	min, max = p[0], p[0]
	for _, v := range p[1:] {
		min.X = math.Min(min.X, v.X)
		min.Y = math.Min(min.Y, v.Y)
		max.X = math.Max(max.X, v.X)
		max.Y = math.Max(max.Y, v.Y)
	}
	return min, max
}

func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	return append(Polygon(nil), p...)
}

// Rect builds an axis-aligned rectangle polygon from a corner and size.
func Rect(x, y, w, h float64) Polygon {
	return Polygon{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}
}
