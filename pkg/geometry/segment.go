package geometry

import "math"

// Segment represents a directed line segment between two points.
type Segment struct {
	Start Point2D `json:"start"`
	End   Point2D `json:"end"`
}

// NewSegment creates a new Segment.
func NewSegment(start, end Point2D) Segment {
	return Segment{Start: start, End: end}
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.Start.Distance(s.End)
}

// Midpoint returns the midpoint of the segment.
func (s Segment) Midpoint() Point2D {
	return Point2D{
		X: (s.Start.X + s.End.X) / 2,
		Y: (s.Start.Y + s.End.Y) / 2,
	}
}

// IsDegenerate reports whether the segment has zero length within Tolerance.
func (s Segment) IsDegenerate() bool {
	return AlmostEqual(s.Length(), 0)
}

// DistanceToLine returns the perpendicular distance from p to the infinite
// line through the segment. The segment must not be degenerate.
func (s Segment) DistanceToLine(p Point2D) float64 {
	dx := s.End.X - s.Start.X
	dy := s.End.Y - s.Start.Y
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		return p.Distance(s.Start)
	}
	// Magnitude of the cross product of (end-start) and (p-start),
	// normalized by segment length.
	return math.Abs(dx*(p.Y-s.Start.Y)-dy*(p.X-s.Start.X)) / length
}

// DistanceToSegment returns the shortest distance from p to the segment,
// clamping the projection to the segment's endpoints.
func (s Segment) DistanceToSegment(p Point2D) float64 {
	ax := p.X - s.Start.X
	ay := p.Y - s.Start.Y
	bx := s.End.X - s.Start.X
	by := s.End.Y - s.Start.Y

	lenSq := bx*bx + by*by
	if lenSq == 0 {
		return p.Distance(s.Start)
	}

	t := (ax*bx + ay*by) / lenSq
	var cx, cy float64
	switch {
	case t < 0:
		cx, cy = s.Start.X, s.Start.Y
	case t > 1:
		cx, cy = s.End.X, s.End.Y
	default:
		cx = s.Start.X + t*bx
		cy = s.Start.Y + t*by
	}

	dx := p.X - cx
	dy := p.Y - cy
	return math.Sqrt(dx*dx + dy*dy)
}

// Collinear reports whether both endpoints of other lie on the infinite line
// through s, within Tolerance. Degenerate segments are never collinear.
func (s Segment) Collinear(other Segment) bool {
	if s.IsDegenerate() || other.IsDegenerate() {
		return false
	}
	return AlmostEqual(s.DistanceToLine(other.Start), 0) &&
		AlmostEqual(s.DistanceToLine(other.End), 0)
}

// SnapAngle snaps a drag vector to the horizontal or vertical axis when its
// angle is within thresholdDeg of that axis. Vectors outside the threshold
// are returned unchanged.
func SnapAngle(dx, dy, thresholdDeg float64) (float64, float64) {
	if dx == 0 && dy == 0 {
		return dx, dy
	}
	ang := math.Atan2(dy, dx) * 180 / math.Pi
	if math.Abs(ang) < thresholdDeg || math.Abs(math.Abs(ang)-180) < thresholdDeg {
		return dx, 0
	}
	if math.Abs(math.Abs(ang)-90) < thresholdDeg {
		return 0, dy
	}
	return dx, dy
}
