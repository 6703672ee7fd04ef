// Package export writes calibrated placements to print-ready PDF documents.
//
// Page geometry arrives in sheet coordinates (millimeters, top-left origin,
// y down) and is converted to PDF user space (points, bottom-left origin)
// here. 1 point = 1/72 inch = 25.4/72 mm.
package export

import (
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"openscaler/internal/imaging"
	"openscaler/internal/layout"
	"openscaler/internal/paper"
	"openscaler/pkg/geometry"

	xdraw "golang.org/x/image/draw"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/graphics/content"
	"seehuhn.de/go/pdf/graphics/content/builder"
	pdfimage "seehuhn.de/go/pdf/graphics/image"
	"seehuhn.de/go/geom/matrix"
	pdfpage "seehuhn.de/go/pdf/page"
	"seehuhn.de/go/pdf/pagetree"
)

// PointsPerMm converts millimeters to PostScript points.
const PointsPerMm = 72.0 / 25.4

// Draw is one image region drawn onto a page.
type Draw struct {
	Image    image.Image
	SourcePx geometry.Rect // pixel region of Image
	TargetMm geometry.Rect // sheet rectangle in millimeters
}

// Page is one output page.
type Page struct {
	Draws []Draw
}

// Document is a complete export job: a page size plus the pages to write.
type Document struct {
	WidthMm  float64
	HeightMm float64
	Pages    []Page
}

// NewDocument creates an empty document with the spec's oriented page size.
func NewDocument(spec paper.Spec) *Document {
	w, h := spec.PageSize()
	return &Document{WidthMm: w, HeightMm: h}
}

// AddSheet appends a single page placing every item at its physical offset,
// clipped to the page. This is the GUI export path: the sheet is reproduced
// as arranged, at true physical size.
func (d *Document) AddSheet(items []*imaging.Item, spec paper.Spec) {
	pageRect := geometry.NewRect(0, 0, d.WidthMm, d.HeightMm)
	var page Page
	for _, it := range items {
		if it.Image == nil {
			continue
		}
		s := it.Scale()
		if s <= 0 {
			continue
		}
		off := it.PhysicalOffset(spec)
		target := geometry.NewRect(off.X, off.Y, float64(it.Width())*s, float64(it.Height())*s)

		visible := target.Intersection(pageRect)
		if visible.IsEmpty() {
			continue
		}
		source := geometry.NewRect(
			(visible.X-target.X)/s,
			(visible.Y-target.Y)/s,
			visible.Width/s,
			visible.Height/s,
		)
		page.Draws = append(page.Draws, Draw{
			Image:    it.Image,
			SourcePx: source,
			TargetMm: visible,
		})
	}
	d.Pages = append(d.Pages, page)
}

// AddPlacement appends the pages for a planner placement: one page for a
// fitting or clipped result, one page per tile for a tiled result.
func (d *Document) AddPlacement(img image.Image, pl layout.Placement) {
	if len(pl.Tiles) > 0 {
		for _, tile := range pl.Tiles {
			d.Pages = append(d.Pages, Page{Draws: []Draw{{
				Image:    img,
				SourcePx: tile.SourcePx,
				TargetMm: tile.Target,
			}}})
		}
		return
	}

	var page Page
	if len(pl.Copies) > 0 {
		for _, copyRect := range pl.Copies {
			page.Draws = append(page.Draws, Draw{
				Image:    img,
				SourcePx: pl.SourcePx,
				TargetMm: copyRect,
			})
		}
	} else {
		page.Draws = append(page.Draws, Draw{
			Image:    img,
			SourcePx: pl.SourcePx,
			TargetMm: pl.Rect,
		})
	}
	d.Pages = append(d.Pages, page)
}

// WriteFile writes the document to a PDF file.
func (d *Document) WriteFile(path string) error {
	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Write(fd); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

// Write writes the document as a PDF to w.
func (d *Document) Write(w io.Writer) error {
	if len(d.Pages) == 0 {
		return fmt.Errorf("export: document has no pages")
	}
	if d.WidthMm <= 0 || d.HeightMm <= 0 {
		return fmt.Errorf("export: invalid page size %gx%g mm", d.WidthMm, d.HeightMm)
	}

	out, err := pdf.NewWriter(w, pdf.V1_7, nil)
	if err != nil {
		return err
	}
	rm := pdf.NewResourceManager(out)
	tree := pagetree.NewWriter(out, rm)

	mediaBox := &pdf.Rectangle{
		URx: d.WidthMm * PointsPerMm,
		URy: d.HeightMm * PointsPerMm,
	}

	for _, page := range d.Pages {
		if err := d.writePage(out, tree, mediaBox, page); err != nil {
			return err
		}
	}

	ref, err := tree.Close()
	if err != nil {
		return err
	}
	out.GetMeta().Catalog.Pages = ref
	if err := rm.Close(); err != nil {
		return err
	}
	return out.Close()
}

func (d *Document) writePage(out *pdf.Writer, tree *pagetree.Writer, mediaBox *pdf.Rectangle, page Page) error {
	res := &content.Resources{}
	b := builder.New(content.Page, res)

	for _, draw := range page.Draws {
		src := cropToRegion(draw.Image, draw.SourcePx)
		if src == nil {
			continue
		}
		img, err := pdfimage.PNG(src, nil)
		if err != nil {
			return err
		}

		x := draw.TargetMm.X * PointsPerMm
		// Flip to the PDF bottom-left origin.
		y := (d.HeightMm - draw.TargetMm.Y - draw.TargetMm.Height) * PointsPerMm
		w := draw.TargetMm.Width * PointsPerMm
		h := draw.TargetMm.Height * PointsPerMm

		b.PushGraphicsState()
		b.Transform(matrix.Translate(x, y))
		b.Transform(matrix.Scale(w, h))
		b.DrawXObject(img)
		b.PopGraphicsState()
	}
	if b.Err != nil {
		return b.Err
	}

	pg := &pdfpage.Page{
		MediaBox:  mediaBox,
		Resources: res,
		Contents:  []*pdfpage.Content{{Operators: b.Stream}},
	}
	return tree.AppendPageRef(out.Alloc(), pg)
}

// cropToRegion returns the pixel region of src as a standalone image, or src
// itself when the region covers the whole image. Fractional region edges are
// rounded outward so no calibrated content is lost.
func cropToRegion(src image.Image, region geometry.Rect) image.Image {
	if src == nil {
		return nil
	}
	bounds := src.Bounds()
	if region.IsEmpty() {
		return src
	}

	x0 := bounds.Min.X + int(math.Floor(region.X))
	y0 := bounds.Min.Y + int(math.Floor(region.Y))
	x1 := bounds.Min.X + int(math.Ceil(region.X+region.Width))
	y1 := bounds.Min.Y + int(math.Ceil(region.Y+region.Height))

	crop := image.Rect(x0, y0, x1, y1).Intersect(bounds)
	if crop == bounds {
		return src
	}
	if crop.Empty() {
		return nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	xdraw.Copy(dst, image.Point{}, src, crop, xdraw.Src, nil)
	return dst
}
