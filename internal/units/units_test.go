package units

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{"mm", Millimeter, false},
		{"cm", Centimeter, false},
		{"inch", Inch, false},
		{"in", "", true},
		{"furlong", "", true},
		{"", "", true},
		{"MM", "", true}, // units are case-sensitive
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error", tt.in)
			}
			if !errors.Is(err, ErrInvalidUnit) {
				t.Errorf("Parse(%q): error should wrap ErrInvalidUnit", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMillimeters(t *testing.T) {
	tests := []struct {
		magnitude float64
		unit      Unit
		want      float64
	}{
		{50, Millimeter, 50},
		{5, Centimeter, 50},
		{1, Inch, 25.4},
		{2.5, Inch, 63.5},
		{0.1, Centimeter, 1},
	}
	for _, tt := range tests {
		l, err := NewLength(tt.magnitude, tt.unit)
		if err != nil {
			t.Fatalf("NewLength(%g, %s): %v", tt.magnitude, tt.unit, err)
		}
		if got := l.Millimeters(); got != tt.want {
			t.Errorf("%g %s = %g mm, want %g", tt.magnitude, tt.unit, got, tt.want)
		}
	}
}

func TestNewLengthInvalidUnit(t *testing.T) {
	if _, err := NewLength(10, "yards"); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("expected ErrInvalidUnit, got %v", err)
	}
}

func TestUnitRoundTrip(t *testing.T) {
	// The same physical length expressed in different units must normalize
	// to the same millimeter value.
	mm, _ := NewLength(25.4, Millimeter)
	cm, _ := NewLength(2.54, Centimeter)
	inch, _ := NewLength(1, Inch)

	if mm.Millimeters() != cm.Millimeters() || cm.Millimeters() != inch.Millimeters() {
		t.Errorf("25.4 mm / 2.54 cm / 1 inch should agree, got %g / %g / %g",
			mm.Millimeters(), cm.Millimeters(), inch.Millimeters())
	}
}

func TestLengthString(t *testing.T) {
	l, _ := NewLength(12.5, Centimeter)
	if got := l.String(); got != "12.5 cm" {
		t.Errorf("String = %q, want %q", got, "12.5 cm")
	}
}
