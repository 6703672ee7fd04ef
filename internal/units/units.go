// Package units provides real-world length units and millimeter conversion.
package units

import (
	"errors"
	"fmt"
)

// Conversion constants.
const (
	MillimetersPerCentimeter = 10.0
	MillimetersPerInch       = 25.4
)

// ErrInvalidUnit is returned when a unit string is not recognized.
var ErrInvalidUnit = errors.New("units: invalid unit")

// Unit identifies a supported length unit.
type Unit string

const (
	Millimeter Unit = "mm"
	Centimeter Unit = "cm"
	Inch       Unit = "inch"
)

// Parse returns the Unit for a unit string.
func Parse(s string) (Unit, error) {
	switch Unit(s) {
	case Millimeter, Centimeter, Inch:
		return Unit(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

// Valid reports whether the unit is one of the supported units.
func (u Unit) Valid() bool {
	switch u {
	case Millimeter, Centimeter, Inch:
		return true
	}
	return false
}

func (u Unit) String() string {
	return string(u)
}

// Length is a real-world length as entered by the user: a magnitude in a
// given unit. The original magnitude and unit are retained so they can be
// shown back to the user and round-tripped through project files.
type Length struct {
	Magnitude float64 `json:"magnitude"`
	Unit      Unit    `json:"unit"`
}

// NewLength creates a Length, validating the unit.
func NewLength(magnitude float64, unit Unit) (Length, error) {
	if !unit.Valid() {
		return Length{}, fmt.Errorf("%w: %q", ErrInvalidUnit, unit)
	}
	return Length{Magnitude: magnitude, Unit: unit}, nil
}

// Millimeters returns the length normalized to millimeters.
func (l Length) Millimeters() float64 {
	switch l.Unit {
	case Centimeter:
		return l.Magnitude * MillimetersPerCentimeter
	case Inch:
		return l.Magnitude * MillimetersPerInch
	default:
		return l.Magnitude
	}
}

func (l Length) String() string {
	return fmt.Sprintf("%g %s", l.Magnitude, l.Unit)
}
