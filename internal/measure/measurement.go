// Package measure implements reference-measurement calibration: it turns a
// user-drawn pixel measurement and a known real-world length into a
// millimeters-per-pixel scale factor for one image.
package measure

import (
	"errors"
	"fmt"

	"openscaler/internal/units"
	"openscaler/pkg/geometry"
)

// Validation and state errors surfaced by the package API.
var (
	ErrDegenerateMeasurement   = errors.New("measure: degenerate measurement")
	ErrInvalidParallelGeometry = errors.New("measure: invalid parallel geometry")
	ErrNonPositiveLength       = errors.New("measure: real length must be positive")
	ErrUncalibrated            = errors.New("measure: image is not calibrated")
	ErrUnknownMeasurement      = errors.New("measure: unknown measurement")
)

// Kind identifies the type of a reference measurement.
type Kind int

const (
	SingleLine   Kind = iota // distance between two endpoints
	ParallelLine             // perpendicular distance between two parallel rails
)

func (k Kind) String() string {
	switch k {
	case SingleLine:
		return "single-line"
	case ParallelLine:
		return "parallel-line"
	default:
		return "unknown"
	}
}

// ID identifies a measurement within an Engine. IDs are never reused.
type ID int

// Measurement is a user-drawn reference measurement in image pixel space.
// For SingleLine only First is set. For ParallelLine, First and Second are
// the two rails; the effective pixel distance is the perpendicular distance
// from Second's midpoint to the line through First.
type Measurement struct {
	ID     ID               `json:"id"`
	Kind   Kind             `json:"kind"`
	First  geometry.Segment `json:"first"`
	Second geometry.Segment `json:"second,omitempty"`

	// RealLength is the user-assigned real-world length, nil until assigned.
	RealLength *units.Length `json:"real_length,omitempty"`
}

// PixelDistance returns the measurement's distance in image pixels.
func (m *Measurement) PixelDistance() float64 {
	if m.Kind == ParallelLine {
		return m.First.DistanceToLine(m.Second.Midpoint())
	}
	return m.First.Length()
}

// validate checks the measurement geometry using the pure predicates from
// pkg/geometry and maps failures onto the package error taxonomy.
func (m *Measurement) validate() error {
	switch m.Kind {
	case SingleLine:
		if m.First.IsDegenerate() {
			return fmt.Errorf("%w: endpoints coincide", ErrDegenerateMeasurement)
		}
	case ParallelLine:
		if m.First.IsDegenerate() || m.Second.IsDegenerate() {
			return fmt.Errorf("%w: zero-length rail", ErrDegenerateMeasurement)
		}
		if m.First.Collinear(m.Second) {
			return fmt.Errorf("%w: rails are collinear", ErrInvalidParallelGeometry)
		}
		if geometry.AlmostEqual(m.PixelDistance(), 0) {
			return fmt.Errorf("%w: zero perpendicular separation", ErrInvalidParallelGeometry)
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidParallelGeometry, m.Kind)
	}
	return nil
}
