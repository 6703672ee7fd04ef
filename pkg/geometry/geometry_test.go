package geometry

import (
	"math"
	"testing"
)

func TestPointDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Point2D
		want float64
	}{
		{"same point", NewPoint2D(3, 4), NewPoint2D(3, 4), 0},
		{"horizontal", NewPoint2D(0, 0), NewPoint2D(200, 0), 200},
		{"3-4-5 triangle", NewPoint2D(0, 0), NewPoint2D(3, 4), 5},
		{"negative coords", NewPoint2D(-1, -1), NewPoint2D(2, 3), 5},
	}
	for _, tt := range tests {
		if got := tt.a.Distance(tt.b); !AlmostEqual(got, tt.want) {
			t.Errorf("%s: Distance = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSegmentLength(t *testing.T) {
	s := NewSegment(NewPoint2D(100, 100), NewPoint2D(300, 100))
	if got := s.Length(); !AlmostEqual(got, 200) {
		t.Errorf("Length = %v, want 200", got)
	}
}

func TestSegmentMidpoint(t *testing.T) {
	s := NewSegment(NewPoint2D(0, 0), NewPoint2D(10, 20))
	mid := s.Midpoint()
	if !AlmostEqual(mid.X, 5) || !AlmostEqual(mid.Y, 10) {
		t.Errorf("Midpoint = %v, want (5, 10)", mid)
	}
}

func TestSegmentIsDegenerate(t *testing.T) {
	if !NewSegment(NewPoint2D(7, 7), NewPoint2D(7, 7)).IsDegenerate() {
		t.Error("coincident endpoints should be degenerate")
	}
	if NewSegment(NewPoint2D(0, 0), NewPoint2D(0.001, 0)).IsDegenerate() {
		t.Error("distinct endpoints should not be degenerate")
	}
}

func TestDistanceToLine(t *testing.T) {
	// Horizontal line at y=0.
	s := NewSegment(NewPoint2D(0, 0), NewPoint2D(10, 0))

	tests := []struct {
		p    Point2D
		want float64
	}{
		{NewPoint2D(5, 3), 3},
		{NewPoint2D(-100, 4), 4}, // distance to the infinite line, not the segment
		{NewPoint2D(5, 0), 0},
	}
	for _, tt := range tests {
		if got := s.DistanceToLine(tt.p); !AlmostEqual(got, tt.want) {
			t.Errorf("DistanceToLine(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestDistanceToSegment(t *testing.T) {
	s := NewSegment(NewPoint2D(0, 0), NewPoint2D(10, 0))

	tests := []struct {
		p    Point2D
		want float64
	}{
		{NewPoint2D(5, 3), 3},
		{NewPoint2D(-3, 4), 5},  // clamps to start
		{NewPoint2D(13, -4), 5}, // clamps to end
		{NewPoint2D(10, 0), 0},
	}
	for _, tt := range tests {
		if got := s.DistanceToSegment(tt.p); !AlmostEqual(got, tt.want) {
			t.Errorf("DistanceToSegment(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestCollinear(t *testing.T) {
	base := NewSegment(NewPoint2D(0, 0), NewPoint2D(10, 10))

	on := NewSegment(NewPoint2D(20, 20), NewPoint2D(-5, -5))
	if !base.Collinear(on) {
		t.Error("segments on the same line should be collinear")
	}

	off := NewSegment(NewPoint2D(0, 1), NewPoint2D(10, 11))
	if base.Collinear(off) {
		t.Error("parallel but offset segments should not be collinear")
	}

	degenerate := NewSegment(NewPoint2D(5, 5), NewPoint2D(5, 5))
	if base.Collinear(degenerate) {
		t.Error("degenerate segments should never be collinear")
	}
}

func TestSnapAngle(t *testing.T) {
	tests := []struct {
		name         string
		dx, dy       float64
		wantX, wantY float64
	}{
		{"near horizontal", 100, 1, 100, 0},
		{"near horizontal negative", -100, -1, -100, 0},
		{"near vertical", 1, 100, 0, 100},
		{"diagonal unchanged", 100, 100, 100, 100},
		{"zero vector", 0, 0, 0, 0},
	}
	for _, tt := range tests {
		gotX, gotY := SnapAngle(tt.dx, tt.dy, 1.0)
		if gotX != tt.wantX || gotY != tt.wantY {
			t.Errorf("%s: SnapAngle(%v, %v) = (%v, %v), want (%v, %v)",
				tt.name, tt.dx, tt.dy, gotX, gotY, tt.wantX, tt.wantY)
		}
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(10, 10, 100, 50)
	if !r.Contains(NewPoint2D(10, 10)) {
		t.Error("edge point should be contained")
	}
	if !r.Contains(NewPoint2D(60, 35)) {
		t.Error("interior point should be contained")
	}
	if r.Contains(NewPoint2D(111, 35)) {
		t.Error("outside point should not be contained")
	}
}

func TestRectIntersection(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(5, 5, 10, 10)

	got := a.Intersection(b)
	want := NewRect(5, 5, 5, 5)
	if got != want {
		t.Errorf("Intersection = %v, want %v", got, want)
	}

	c := NewRect(20, 20, 5, 5)
	if !a.Intersection(c).IsEmpty() {
		t.Error("disjoint rects should give an empty intersection")
	}
}

func TestRectCenter(t *testing.T) {
	r := NewRect(30, 98.5, 150, 100)
	center := r.Center()
	if !AlmostEqual(center.X, 105) || !AlmostEqual(center.Y, 148.5) {
		t.Errorf("Center = %v, want (105, 148.5)", center)
	}
}

func TestAlmostEqual(t *testing.T) {
	if !AlmostEqual(1.0, 1.0+1e-12) {
		t.Error("values within tolerance should compare equal")
	}
	if AlmostEqual(1.0, 1.001) {
		t.Error("values outside tolerance should not compare equal")
	}
	// Relative comparison for large magnitudes.
	big := 1e12
	if !AlmostEqual(big, big*(1+1e-12)) {
		t.Error("large values within relative tolerance should compare equal")
	}
	if AlmostEqual(0, math.Inf(1)) {
		t.Error("infinity should never compare equal to zero")
	}
}
