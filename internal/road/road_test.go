package road

import (
	"math"
	"testing"
)

func TestLaneCenters(t *testing.T) {
	r, err := New(100, 180, 3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	tests := []struct {
		lane int
		want float64
	}{
		{lane: 0, want: 40},
		{lane: 1, want: 100},
		{lane: 2, want: 160},
		{lane: 7, want: 160},
		{lane: -2, want: 40},
	}
	for _, tc := range tests {
		if got := r.LaneCenter(tc.lane); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("lane %d: got=%f want=%f", tc.lane, got, tc.want)
		}
	}
}

func TestBordersSpanTrack(t *testing.T) {
	r, err := New(100, 180, 3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	borders := r.Borders()
	if len(borders) != 2 {
		t.Fatalf("unexpected border count: %d", len(borders))
	}
	if borders[0].A.X != 10 || borders[1].A.X != 190 {
		t.Fatalf("unexpected border x: %+v", borders)
	}
	if borders[0].A.Y != -Infinity || borders[0].B.Y != Infinity {
		t.Fatalf("unexpected border span: %+v", borders[0])
	}
	if got := r.LaneMarkings(); len(got) != 2 || got[0] != 70 {
		t.Fatalf("unexpected lane markings: %v", got)
	}
}

func TestNewRejectsInvalidRoad(t *testing.T) {
	if _, err := New(0, 100, 0); err == nil {
		t.Fatal("expected lane count error")
	}
	if _, err := New(0, -1, 2); err == nil {
		t.Fatal("expected width error")
	}
}
