// Package paper provides paper size definitions and printable-area geometry.
package paper

import (
	"errors"
	"fmt"
	"sort"

	"openscaler/pkg/geometry"
)

// Errors returned by the package API.
var (
	ErrInvalidMargin = errors.New("paper: margins leave no printable area")
	ErrUnknownSize   = errors.New("paper: unknown paper size")
)

// Orientation selects portrait or landscape page orientation.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Size is a named paper size with nominal portrait dimensions in millimeters.
type Size struct {
	Name     string  `json:"name"`
	WidthMm  float64 `json:"width_mm"`
	HeightMm float64 `json:"height_mm"`
}

// Custom creates an unnamed paper size with explicit millimeter dimensions.
func Custom(widthMm, heightMm float64) Size {
	return Size{Name: "Custom", WidthMm: widthMm, HeightMm: heightMm}
}

// Validate checks that the size has positive dimensions.
func (s Size) Validate() error {
	if s.WidthMm <= 0 || s.HeightMm <= 0 {
		return fmt.Errorf("paper: size %q has non-positive dimensions", s.Name)
	}
	return nil
}

// Margins are page margins in millimeters.
type Margins struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// UniformMargins returns equal margins on all sides.
func UniformMargins(mm float64) Margins {
	return Margins{Left: mm, Top: mm, Right: mm, Bottom: mm}
}

// Spec combines a paper size with orientation and margins. Coordinates
// derived from a Spec use a top-left origin with y growing downward, in
// millimeters.
type Spec struct {
	Size        Size        `json:"size"`
	Orientation Orientation `json:"orientation"`
	Margins     Margins     `json:"margins"`
}

// Default returns the application default: A4 portrait with 10 mm margins.
func Default() Spec {
	size, _ := Get("A4")
	return Spec{
		Size:        size,
		Orientation: Portrait,
		Margins:     UniformMargins(10),
	}
}

// PageSize returns the oriented page dimensions in millimeters, swapping
// width and height for landscape.
func (s Spec) PageSize() (widthMm, heightMm float64) {
	if s.Orientation == Landscape {
		return s.Size.HeightMm, s.Size.WidthMm
	}
	return s.Size.WidthMm, s.Size.HeightMm
}

// PrintableArea returns the page rectangle minus margins. It fails with
// ErrInvalidMargin when no positive printable area remains.
func (s Spec) PrintableArea() (geometry.Rect, error) {
	if err := s.Size.Validate(); err != nil {
		return geometry.Rect{}, err
	}
	pageW, pageH := s.PageSize()
	area := geometry.NewRect(
		s.Margins.Left,
		s.Margins.Top,
		pageW-s.Margins.Left-s.Margins.Right,
		pageH-s.Margins.Top-s.Margins.Bottom,
	)
	if area.IsEmpty() {
		return geometry.Rect{}, fmt.Errorf("%w: %.0f×%.0f mm page, margins %+v",
			ErrInvalidMargin, pageW, pageH, s.Margins)
	}
	return area, nil
}

// Registry of known paper sizes.
var registry = make(map[string]Size)

// Register adds a paper size to the registry.
func Register(size Size) {
	registry[size.Name] = size
}

// Get returns a registered paper size by name.
func Get(name string) (Size, error) {
	if size, ok := registry[name]; ok {
		return size, nil
	}
	return Size{}, fmt.Errorf("%w: %q", ErrUnknownSize, name)
}

// List returns all registered paper size names, sorted.
func List() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	// Built-in sizes, nominal portrait dimensions.
	Register(Size{Name: "A3", WidthMm: 297, HeightMm: 420})
	Register(Size{Name: "A4", WidthMm: 210, HeightMm: 297})
	Register(Size{Name: "A5", WidthMm: 148, HeightMm: 210})
	Register(Size{Name: "Letter", WidthMm: 216, HeightMm: 279})
	Register(Size{Name: "Legal", WidthMm: 216, HeightMm: 356})
}
