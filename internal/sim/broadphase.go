package sim

import (
	"sort"

	"github.com/dhconnelly/rtreego"

	"aicars/internal/vehicle"
)

const broadPhasePad = 1.0

type trafficBox struct {
	index int
	v     *vehicle.Vehicle
	rect  rtreego.Rect
}

func (b *trafficBox) Bounds() rtreego.Rect {
	return b.rect
}

// broadPhase indexes traffic outlines so a car only tests the traffic that
// can reach its sensor fan or its body this tick.
type broadPhase struct {
	tree *rtreego.Rtree
}

func newBroadPhase(traffic []*vehicle.Vehicle) (*broadPhase, error) {
	tree := rtreego.NewTree(2, 4, 16)
	for i, v := range traffic {
		min, max := v.Polygon().Bounds()
		rect, err := rtreego.NewRect(
			rtreego.Point{min.X - broadPhasePad, min.Y - broadPhasePad},
			[]float64{max.X - min.X + 2*broadPhasePad, max.Y - min.Y + 2*broadPhasePad},
		)
		if err != nil {
			return nil, err
		}
		tree.Insert(&trafficBox{index: i, v: v, rect: rect})
	}
	return &broadPhase{tree: tree}, nil
}

// near returns the traffic whose box overlaps the square of half-size reach
// around v, in the original traffic order.
func (b *broadPhase) near(v *vehicle.Vehicle, reach float64) []*vehicle.Vehicle {
	query, err := rtreego.NewRect(
		rtreego.Point{v.X() - reach, v.Y() - reach},
		[]float64{2 * reach, 2 * reach},
	)
	if err != nil {
		return nil
	}

	hits := b.tree.SearchIntersect(query)
	boxes := make([]*trafficBox, 0, len(hits))
	for _, hit := range hits {
		boxes = append(boxes, hit.(*trafficBox))
	}
	sort.Slice(boxes, func(i, j int) bool { return boxes[i].index < boxes[j].index })

	out := make([]*vehicle.Vehicle, len(boxes))
	for i, box := range boxes {
		out[i] = box.v
	}
	return out
}
