package export

import (
	"bytes"
	"image"
	"strings"
	"testing"

	"openscaler/internal/imaging"
	"openscaler/internal/layout"
	"openscaler/internal/paper"
	"openscaler/internal/units"
	"openscaler/pkg/geometry"
)

func calibratedItem(t *testing.T, w, h int, scaleMM float64) *imaging.Item {
	t.Helper()
	item := imaging.NewItem(image.NewRGBA(image.Rect(0, 0, w, h)))

	// A 100 px reference line whose real length yields the wanted scale.
	id, err := item.Engine().AddSingleLine(
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(100, 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := item.Engine().SetRealLength(id, 100*scaleMM, units.Millimeter); err != nil {
		t.Fatal(err)
	}
	return item
}

func TestNewDocumentPageSize(t *testing.T) {
	spec := paper.Default()
	spec.Orientation = paper.Landscape

	doc := NewDocument(spec)
	if doc.WidthMm != 297 || doc.HeightMm != 210 {
		t.Errorf("document = %gx%g mm, want 297x210", doc.WidthMm, doc.HeightMm)
	}
}

func TestAddSheet(t *testing.T) {
	spec := paper.Default()
	item := calibratedItem(t, 600, 400, 0.25)
	item.OffsetRatios = geometry.NewPoint2D(0.5, 0.5)

	doc := NewDocument(spec)
	doc.AddSheet([]*imaging.Item{item}, spec)

	if len(doc.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(doc.Pages))
	}
	draws := doc.Pages[0].Draws
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}

	// 150x100 mm centered in the free space of the 210x297 page.
	target := draws[0].TargetMm
	if !geometry.AlmostEqual(target.X, 30) || !geometry.AlmostEqual(target.Y, 98.5) {
		t.Errorf("target origin = (%v, %v), want (30, 98.5)", target.X, target.Y)
	}
	if !geometry.AlmostEqual(target.Width, 150) || !geometry.AlmostEqual(target.Height, 100) {
		t.Errorf("target = %vx%v mm, want 150x100", target.Width, target.Height)
	}

	src := draws[0].SourcePx
	if !geometry.AlmostEqual(src.Width, 600) || !geometry.AlmostEqual(src.Height, 400) {
		t.Errorf("source = %vx%v px, want the full image", src.Width, src.Height)
	}
}

func TestAddSheetClipsToPage(t *testing.T) {
	spec := paper.Default()

	// 2 mm/px makes the 600x400 image 1200x800 mm; only the page-sized part
	// is drawn and the source region shrinks accordingly.
	item := calibratedItem(t, 600, 400, 2)
	item.OffsetRatios = geometry.NewPoint2D(0, 0)

	doc := NewDocument(spec)
	doc.AddSheet([]*imaging.Item{item}, spec)

	draws := doc.Pages[0].Draws
	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	target := draws[0].TargetMm
	if target.Width > 210+1e-9 || target.Height > 297+1e-9 {
		t.Errorf("target %vx%v mm exceeds the page", target.Width, target.Height)
	}
	src := draws[0].SourcePx
	if !geometry.AlmostEqual(src.Width, target.Width/2) {
		t.Errorf("source width = %v px, want %v", src.Width, target.Width/2)
	}
}

func TestAddSheetSkipsUnscaledItems(t *testing.T) {
	spec := paper.Default()
	item := imaging.NewItem(image.NewRGBA(image.Rect(0, 0, 10, 10)))

	doc := NewDocument(spec)
	doc.AddSheet([]*imaging.Item{item}, spec)

	if len(doc.Pages[0].Draws) != 0 {
		t.Error("an item without any scale must not be drawn")
	}
}

func TestAddPlacementTiles(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 600, 400))
	cal := layout.CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 2}

	planner := layout.NewPlanner()
	planner.Policy = layout.PolicyTile
	pl, err := planner.Placement(cal, paper.Default(), layout.AnchorCenter)
	if err != nil {
		t.Fatal(err)
	}

	doc := NewDocument(paper.Default())
	doc.AddPlacement(img, pl)

	if len(doc.Pages) != len(pl.Tiles) {
		t.Errorf("got %d pages, want one per tile (%d)", len(doc.Pages), len(pl.Tiles))
	}
	for i, page := range doc.Pages {
		if len(page.Draws) != 1 {
			t.Errorf("page %d has %d draws, want 1", i, len(page.Draws))
		}
	}
}

func TestAddPlacementGridCopies(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 500))
	cal := layout.CalibratedImage{WidthPx: 400, HeightPx: 500, ScaleMM: 0.1}

	pl, err := layout.NewPlanner().Placement(cal, paper.Default(), layout.AnchorGrid)
	if err != nil {
		t.Fatal(err)
	}

	doc := NewDocument(paper.Default())
	doc.AddPlacement(img, pl)

	if len(doc.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(doc.Pages))
	}
	if len(doc.Pages[0].Draws) != len(pl.Copies) {
		t.Errorf("got %d draws, want one per copy (%d)", len(doc.Pages[0].Draws), len(pl.Copies))
	}
}

func TestWritePDF(t *testing.T) {
	spec := paper.Default()
	item := calibratedItem(t, 60, 40, 0.25)

	doc := NewDocument(spec)
	doc.AddSheet([]*imaging.Item{item}, spec)

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF-") {
		t.Error("output does not start with a PDF header")
	}
}

func TestWriteEmptyDocument(t *testing.T) {
	doc := NewDocument(paper.Default())
	var buf bytes.Buffer
	if err := doc.Write(&buf); err == nil {
		t.Error("writing a document without pages should fail")
	}
}

func TestCropToRegion(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 80))

	// Full coverage returns the source untouched.
	if got := cropToRegion(src, geometry.NewRect(0, 0, 100, 80)); got != src {
		t.Error("full-coverage crop should return the source image")
	}

	// Fractional edges round outward.
	got := cropToRegion(src, geometry.NewRect(10.4, 20.6, 30.2, 10.2))
	bounds := got.Bounds()
	if bounds.Dx() != 31 || bounds.Dy() != 11 {
		t.Errorf("crop = %dx%d, want 31x11 (outward rounding)", bounds.Dx(), bounds.Dy())
	}

	// Regions outside the image yield nothing.
	if got := cropToRegion(src, geometry.NewRect(200, 200, 10, 10)); got != nil {
		t.Error("out-of-bounds crop should return nil")
	}
}
