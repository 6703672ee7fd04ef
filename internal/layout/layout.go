// Package layout computes where and how large to draw a calibrated image on
// a printable page so that the printout matches real-world dimensions.
//
// All page coordinates are millimeters with a top-left origin and y growing
// downward. Results are always computed fresh from the inputs; nothing is
// cached, so a recalibrated scale factor can never leak stale geometry.
package layout

import (
	"errors"
	"fmt"
	"math"

	"openscaler/internal/paper"
	"openscaler/pkg/geometry"
)

// ErrUncalibratedImage is returned when placement is requested for an image
// without an established scale factor.
var ErrUncalibratedImage = errors.New("layout: image has no scale factor")

// Anchor selects where a placement rectangle sits within the printable area.
type Anchor int

const (
	AnchorCenter  Anchor = iota // centered both ways
	AnchorTopLeft               // flush with the top-left margin corner
	AnchorGrid                  // tile as many copies as fit, row-major from top-left
)

func (a Anchor) String() string {
	switch a {
	case AnchorCenter:
		return "center"
	case AnchorTopLeft:
		return "top-left"
	case AnchorGrid:
		return "grid"
	default:
		return "unknown"
	}
}

// Policy decides what happens when the image is physically larger than the
// printable area.
type Policy int

const (
	PolicyClip Policy = iota // draw the maximal fitting sub-rectangle (default)
	PolicyTile               // split across multiple pages
)

// CalibratedImage pairs an image's pixel dimensions with its scale factor.
type CalibratedImage struct {
	WidthPx  int
	HeightPx int
	ScaleMM  float64 // millimeters per pixel, must be > 0
}

// PhysicalSize returns the image's real-world size in millimeters.
func (c CalibratedImage) PhysicalSize() geometry.Size {
	return geometry.NewSize(
		float64(c.WidthPx)*c.ScaleMM,
		float64(c.HeightPx)*c.ScaleMM,
	)
}

// Tile is one page of a multi-page tiling: the pixel region of the source
// image and the millimeter rectangle it occupies on its page.
type Tile struct {
	Page     int // 0-based, row-major
	Row, Col int
	SourcePx geometry.Rect
	Target   geometry.Rect
}

// Placement describes where a calibrated image must be drawn.
type Placement struct {
	// Rect is the target rectangle in page millimeters. When the image is
	// clipped this is the visible part only.
	Rect geometry.Rect

	// SourcePx is the pixel region of the image covered by Rect. It spans
	// the whole image unless the placement was clipped.
	SourcePx geometry.Rect

	// ExceedsPage is set when the image's physical size does not fit the
	// printable area in at least one dimension.
	ExceedsPage bool

	// Clipped is set when ExceedsPage and the clip policy was applied.
	Clipped bool

	// Copies holds the rectangles of all grid copies (AnchorGrid only,
	// including the first, which equals Rect).
	Copies []geometry.Rect

	// Tiles holds the per-page tiles (PolicyTile with an oversized image).
	Tiles []Tile
}

// Planner computes placements. The zero value clips oversized images.
type Planner struct {
	Policy Policy

	// TileOverlapMm adds a glue margin repeated on adjacent tiles.
	TileOverlapMm float64
}

// NewPlanner returns a Planner with the default clip policy.
func NewPlanner() *Planner {
	return &Planner{Policy: PolicyClip}
}

// Placement computes the placement of img on the paper described by spec.
func (pl *Planner) Placement(img CalibratedImage, spec paper.Spec, anchor Anchor) (Placement, error) {
	if img.ScaleMM <= 0 {
		return Placement{}, ErrUncalibratedImage
	}
	if img.WidthPx <= 0 || img.HeightPx <= 0 {
		return Placement{}, fmt.Errorf("layout: invalid pixel size %d×%d", img.WidthPx, img.HeightPx)
	}
	area, err := spec.PrintableArea()
	if err != nil {
		return Placement{}, err
	}

	phys := img.PhysicalSize()
	fullSource := geometry.NewRect(0, 0, float64(img.WidthPx), float64(img.HeightPx))

	if phys.Width <= area.Width && phys.Height <= area.Height {
		p := Placement{
			Rect:     anchorRect(area, phys, anchor),
			SourcePx: fullSource,
		}
		if anchor == AnchorGrid {
			p.Copies = gridCopies(area, phys)
			p.Rect = p.Copies[0]
		}
		return p, nil
	}

	if pl.Policy == PolicyTile {
		return Placement{
			Rect:        geometry.NewRect(area.X, area.Y, phys.Width, phys.Height),
			SourcePx:    fullSource,
			ExceedsPage: true,
			Tiles:       pl.tiles(img, area),
		}, nil
	}

	return clipPlacement(img, area, anchor), nil
}

// anchorRect positions a size within the printable area per the anchor.
func anchorRect(area geometry.Rect, size geometry.Size, anchor Anchor) geometry.Rect {
	switch anchor {
	case AnchorTopLeft, AnchorGrid:
		return geometry.NewRect(area.X, area.Y, size.Width, size.Height)
	default:
		return geometry.NewRect(
			area.X+(area.Width-size.Width)/2,
			area.Y+(area.Height-size.Height)/2,
			size.Width,
			size.Height,
		)
	}
}

// gridCopies lays out as many copies as fit, row-major from the top-left.
// At least one copy is always returned.
func gridCopies(area geometry.Rect, size geometry.Size) []geometry.Rect {
	cols := int(area.Width / size.Width)
	rows := int(area.Height / size.Height)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	copies := make([]geometry.Rect, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			copies = append(copies, geometry.NewRect(
				area.X+float64(col)*size.Width,
				area.Y+float64(row)*size.Height,
				size.Width,
				size.Height,
			))
		}
	}
	return copies
}

// clipPlacement computes the maximal sub-rectangle of the image that fits
// the printable area, anchored per policy.
func clipPlacement(img CalibratedImage, area geometry.Rect, anchor Anchor) Placement {
	phys := img.PhysicalSize()

	visW := math.Min(phys.Width, area.Width)
	visH := math.Min(phys.Height, area.Height)

	// Pixel region corresponding to the visible physical extent.
	srcW := visW / img.ScaleMM
	srcH := visH / img.ScaleMM
	var srcX, srcY float64
	if anchor == AnchorCenter {
		srcX = (float64(img.WidthPx) - srcW) / 2
		srcY = (float64(img.HeightPx) - srcH) / 2
	}

	return Placement{
		Rect:        anchorRect(area, geometry.NewSize(visW, visH), anchor),
		SourcePx:    geometry.NewRect(srcX, srcY, srcW, srcH),
		ExceedsPage: true,
		Clipped:     true,
	}
}

// tiles splits an oversized image into row-major page tiles. Adjacent tiles
// repeat TileOverlapMm of content for gluing.
func (pl *Planner) tiles(img CalibratedImage, area geometry.Rect) []Tile {
	phys := img.PhysicalSize()

	advW := area.Width - pl.TileOverlapMm
	advH := area.Height - pl.TileOverlapMm
	if advW <= 0 {
		advW = area.Width
	}
	if advH <= 0 {
		advH = area.Height
	}

	cols := tileCount(phys.Width, area.Width, advW)
	rows := tileCount(phys.Height, area.Height, advH)

	var out []Tile
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x0 := float64(col) * advW
			y0 := float64(row) * advH
			w := math.Min(area.Width, phys.Width-x0)
			h := math.Min(area.Height, phys.Height-y0)

			out = append(out, Tile{
				Page: row*cols + col,
				Row:  row,
				Col:  col,
				SourcePx: geometry.NewRect(
					x0/img.ScaleMM,
					y0/img.ScaleMM,
					w/img.ScaleMM,
					h/img.ScaleMM,
				),
				Target: geometry.NewRect(area.X, area.Y, w, h),
			})
		}
	}
	return out
}

// tileCount returns how many tiles of size tile, advancing by adv, cover
// total millimeters.
func tileCount(total, tile, adv float64) int {
	if total <= tile {
		return 1
	}
	return 1 + int(math.Ceil((total-tile)/adv))
}
