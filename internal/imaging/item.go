// Package imaging provides raster image import and sheet items.
package imaging

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"openscaler/internal/layout"
	"openscaler/internal/measure"
	"openscaler/internal/paper"
	"openscaler/pkg/geometry"

	_ "golang.org/x/image/bmp"
)

// fitMarginMm is the margin used when computing the provisional scale for a
// freshly imported, not-yet-calibrated image.
const fitMarginMm = 30

// Item is one image placed on the sheet: the decoded raster, its calibration
// engine, and its position on the paper expressed as fractions of the free
// space (so the relative position survives paper changes).
type Item struct {
	Path  string
	Image image.Image

	// OffsetRatios positions the item within the leftover paper space,
	// 0 = flush left/top, 1 = flush right/bottom.
	OffsetRatios geometry.Point2D

	engine   *measure.Engine
	fitScale float64 // provisional mm/px until the first calibration
}

// Load decodes an image file (PNG, JPEG or BMP) into a sheet Item.
func Load(path string) (*Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Item{
		Path:         path,
		Image:        img,
		OffsetRatios: geometry.NewPoint2D(0.05, 0.05),
		engine:       measure.NewEngine(),
	}, nil
}

// NewItem wraps an already decoded image, for tests and headless use.
func NewItem(img image.Image) *Item {
	return &Item{
		Image:        img,
		OffsetRatios: geometry.NewPoint2D(0.05, 0.05),
		engine:       measure.NewEngine(),
	}
}

// Engine returns the item's calibration engine.
func (it *Item) Engine() *measure.Engine {
	return it.engine
}

// Width returns the image width in pixels.
func (it *Item) Width() int {
	if it.Image == nil {
		return 0
	}
	return it.Image.Bounds().Dx()
}

// Height returns the image height in pixels.
func (it *Item) Height() int {
	if it.Image == nil {
		return 0
	}
	return it.Image.Bounds().Dy()
}

// FitWithin sets the provisional scale factor so the image fits inside the
// paper with a 30 mm margin. A later calibration overrides it.
func (it *Item) FitWithin(spec paper.Spec) {
	w, h := it.Width(), it.Height()
	if w == 0 || h == 0 {
		return
	}
	pageW, pageH := spec.PageSize()
	availW := pageW - 2*fitMarginMm
	availH := pageH - 2*fitMarginMm
	if availW <= 0 || availH <= 0 {
		return
	}
	byWidth := availW / float64(w)
	byHeight := availH / float64(h)
	if byWidth < byHeight {
		it.fitScale = byWidth
	} else {
		it.fitScale = byHeight
	}
}

// Scale returns the effective mm-per-pixel factor: the calibrated one when
// available, the provisional fit scale otherwise.
func (it *Item) Scale() float64 {
	if s, err := it.engine.ScaleFactor(); err == nil {
		return s
	}
	return it.fitScale
}

// Calibrated reports whether the item has a user-established scale factor.
func (it *Item) Calibrated() bool {
	return it.engine.Calibrated()
}

// CalibratedImage returns the layout view of the item. The error is
// measure.ErrUncalibrated when no scale factor exists at all (not even a
// provisional one).
func (it *Item) CalibratedImage() (layout.CalibratedImage, error) {
	s := it.Scale()
	if s <= 0 {
		return layout.CalibratedImage{}, measure.ErrUncalibrated
	}
	return layout.CalibratedImage{
		WidthPx:  it.Width(),
		HeightPx: it.Height(),
		ScaleMM:  s,
	}, nil
}

// PhysicalOffset returns the item's top-left position on the page in
// millimeters, derived from the offset ratios and the current scale.
func (it *Item) PhysicalOffset(spec paper.Spec) geometry.Point2D {
	pageW, pageH := spec.PageSize()
	s := it.Scale()
	freeW := pageW - float64(it.Width())*s
	freeH := pageH - float64(it.Height())*s
	return geometry.NewPoint2D(freeW*it.OffsetRatios.X, freeH*it.OffsetRatios.Y)
}
