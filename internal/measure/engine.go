package measure

import (
	"fmt"

	"openscaler/internal/units"
	"openscaler/pkg/geometry"
)

// Engine owns the reference measurements and the active scale factor for a
// single image. It is not safe for concurrent use; callers serialize access
// (app.State holds the lock in the GUI).
//
// The scale factor is always recomputed from the raw stored points and the
// stored real length, never adjusted incrementally, so identical inputs give
// identical results no matter how often the engine is recalibrated.
type Engine struct {
	measurements map[ID]*Measurement
	order        []ID
	nextID       ID

	active     ID      // measurement supplying the scale factor, 0 = none
	scaleMM    float64 // millimeters per pixel, 0 = uncalibrated
	generation uint64
}

// NewEngine creates an empty, uncalibrated engine.
func NewEngine() *Engine {
	return &Engine{
		measurements: make(map[ID]*Measurement),
		nextID:       1,
	}
}

// AddSingleLine registers a single-line measurement between two endpoints.
func (e *Engine) AddSingleLine(p1, p2 geometry.Point2D) (ID, error) {
	m := &Measurement{
		Kind:  SingleLine,
		First: geometry.NewSegment(p1, p2),
	}
	return e.add(m)
}

// AddParallelLine registers a parallel-line measurement from two rails.
func (e *Engine) AddParallelLine(first, second geometry.Segment) (ID, error) {
	m := &Measurement{
		Kind:   ParallelLine,
		First:  first,
		Second: second,
	}
	return e.add(m)
}

// AddMeasurement registers a measurement from a flat point list: two points
// for SingleLine, four (two per rail) for ParallelLine.
func (e *Engine) AddMeasurement(kind Kind, points []geometry.Point2D) (ID, error) {
	switch kind {
	case SingleLine:
		if len(points) != 2 {
			return 0, fmt.Errorf("%w: need 2 points, got %d", ErrDegenerateMeasurement, len(points))
		}
		return e.AddSingleLine(points[0], points[1])
	case ParallelLine:
		if len(points) != 4 {
			return 0, fmt.Errorf("%w: need 4 points, got %d", ErrInvalidParallelGeometry, len(points))
		}
		return e.AddParallelLine(
			geometry.NewSegment(points[0], points[1]),
			geometry.NewSegment(points[2], points[3]),
		)
	default:
		return 0, fmt.Errorf("%w: kind %d", ErrInvalidParallelGeometry, kind)
	}
}

func (e *Engine) add(m *Measurement) (ID, error) {
	if err := m.validate(); err != nil {
		return 0, err
	}
	m.ID = e.nextID
	e.nextID++
	e.measurements[m.ID] = m
	e.order = append(e.order, m.ID)
	return m.ID, nil
}

// SetRealLength assigns a real-world length to a measurement and makes it
// the active calibration source. Last write wins: recalibrating via a
// different measurement simply overwrites the scale factor.
func (e *Engine) SetRealLength(id ID, magnitude float64, unit units.Unit) error {
	m, ok := e.measurements[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownMeasurement, id)
	}
	length, err := units.NewLength(magnitude, unit)
	if err != nil {
		return err
	}
	if magnitude <= 0 {
		return fmt.Errorf("%w: %g", ErrNonPositiveLength, magnitude)
	}

	m.RealLength = &length
	e.active = id
	e.scaleMM = length.Millimeters() / m.PixelDistance()
	e.generation++
	return nil
}

// ScaleFactor returns the active scale factor in millimeters per pixel, or
// ErrUncalibrated if no measurement has been assigned a real length yet.
func (e *Engine) ScaleFactor() (float64, error) {
	if e.scaleMM <= 0 {
		return 0, ErrUncalibrated
	}
	return e.scaleMM, nil
}

// Calibrated reports whether a scale factor has been established.
func (e *Engine) Calibrated() bool {
	return e.scaleMM > 0
}

// Generation returns a counter that increases on every recalibration or
// reset. Hosts use it to detect stale cached placement geometry.
func (e *Engine) Generation() uint64 {
	return e.generation
}

// Active returns the measurement currently supplying the scale factor.
func (e *Engine) Active() (*Measurement, bool) {
	m, ok := e.measurements[e.active]
	return m, ok
}

// Measurement returns the measurement with the given id.
func (e *Engine) Measurement(id ID) (*Measurement, bool) {
	m, ok := e.measurements[id]
	return m, ok
}

// Measurements returns all measurements in insertion order.
func (e *Engine) Measurements() []*Measurement {
	out := make([]*Measurement, 0, len(e.order))
	for _, id := range e.order {
		if m, ok := e.measurements[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Remove deletes a measurement. Removing the active measurement keeps the
// established scale factor; only Reset or a new SetRealLength changes it.
func (e *Engine) Remove(id ID) {
	if _, ok := e.measurements[id]; !ok {
		return
	}
	delete(e.measurements, id)
	for i, oid := range e.order {
		if oid == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	if e.active == id {
		e.active = 0
	}
}

// Clear removes all measurements without touching the scale factor.
func (e *Engine) Clear() {
	e.measurements = make(map[ID]*Measurement)
	e.order = nil
	e.active = 0
}

// Reset returns the engine to the uncalibrated state and bumps the
// generation counter. Measurements are kept.
func (e *Engine) Reset() {
	e.scaleMM = 0
	e.active = 0
	e.generation++
}

// PixelDistance returns the Euclidean distance between two points.
// Exposed as a convenience for hosts that display live distances.
func PixelDistance(p1, p2 geometry.Point2D) float64 {
	return p1.Distance(p2)
}
