package layout

import (
	"errors"
	"testing"

	"openscaler/internal/paper"
	"openscaler/pkg/geometry"
)

func a4Portrait() paper.Spec {
	return paper.Default()
}

func TestPhysicalSize(t *testing.T) {
	img := CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 0.25}
	phys := img.PhysicalSize()
	if !geometry.AlmostEqual(phys.Width, 150) || !geometry.AlmostEqual(phys.Height, 100) {
		t.Errorf("PhysicalSize = %v, want 150x100 mm", phys)
	}
}

func TestCenteredPlacement(t *testing.T) {
	// 600x400 px at 0.25 mm/px is 150x100 mm. On A4 portrait with 10 mm
	// margins the printable area is 190x277 mm, so the centered position is
	// (10 + 40/2, 10 + 177/2) = (30, 98.5).
	img := CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 0.25}

	pl, err := NewPlanner().Placement(img, a4Portrait(), AnchorCenter)
	if err != nil {
		t.Fatalf("Placement: %v", err)
	}

	if !geometry.AlmostEqual(pl.Rect.X, 30) || !geometry.AlmostEqual(pl.Rect.Y, 98.5) {
		t.Errorf("origin = (%v, %v), want (30, 98.5)", pl.Rect.X, pl.Rect.Y)
	}
	if !geometry.AlmostEqual(pl.Rect.Width, 150) || !geometry.AlmostEqual(pl.Rect.Height, 100) {
		t.Errorf("size = %vx%v, want 150x100", pl.Rect.Width, pl.Rect.Height)
	}
	if pl.ExceedsPage || pl.Clipped {
		t.Error("fitting image should not be flagged as exceeding or clipped")
	}
	full := geometry.NewRect(0, 0, 600, 400)
	if pl.SourcePx != full {
		t.Errorf("SourcePx = %v, want the full image", pl.SourcePx)
	}
}

func TestTopLeftPlacement(t *testing.T) {
	img := CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 0.25}

	pl, err := NewPlanner().Placement(img, a4Portrait(), AnchorTopLeft)
	if err != nil {
		t.Fatalf("Placement: %v", err)
	}
	if pl.Rect.X != 10 || pl.Rect.Y != 10 {
		t.Errorf("origin = (%v, %v), want the margin corner (10, 10)", pl.Rect.X, pl.Rect.Y)
	}
}

func TestUncalibratedRejected(t *testing.T) {
	img := CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 0}
	if _, err := NewPlanner().Placement(img, a4Portrait(), AnchorCenter); !errors.Is(err, ErrUncalibratedImage) {
		t.Errorf("got %v, want ErrUncalibratedImage", err)
	}
}

func TestInvalidPixelSizeRejected(t *testing.T) {
	img := CalibratedImage{WidthPx: 0, HeightPx: 400, ScaleMM: 0.25}
	if _, err := NewPlanner().Placement(img, a4Portrait(), AnchorCenter); err == nil {
		t.Error("zero pixel width should be rejected")
	}
}

func TestOversizedClipped(t *testing.T) {
	// At 2 mm/px the 600x400 image is 1200x800 mm, far beyond A4.
	img := CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 2}

	pl, err := NewPlanner().Placement(img, a4Portrait(), AnchorCenter)
	if err != nil {
		t.Fatalf("Placement: %v", err)
	}
	if !pl.ExceedsPage || !pl.Clipped {
		t.Error("oversized image should be flagged exceeding and clipped")
	}
	if !geometry.AlmostEqual(pl.Rect.Width, 190) || !geometry.AlmostEqual(pl.Rect.Height, 277) {
		t.Errorf("clipped rect = %vx%v, want the full printable 190x277", pl.Rect.Width, pl.Rect.Height)
	}

	// The visible pixel region covers 190/2 x 277/2 px, centered.
	if !geometry.AlmostEqual(pl.SourcePx.Width, 95) || !geometry.AlmostEqual(pl.SourcePx.Height, 138.5) {
		t.Errorf("source = %vx%v px, want 95x138.5", pl.SourcePx.Width, pl.SourcePx.Height)
	}
	if !geometry.AlmostEqual(pl.SourcePx.X, (600-95)/2.0) {
		t.Errorf("source X = %v, want centered", pl.SourcePx.X)
	}
}

func TestOversizedTiled(t *testing.T) {
	img := CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 2}

	planner := NewPlanner()
	planner.Policy = PolicyTile
	pl, err := planner.Placement(img, a4Portrait(), AnchorCenter)
	if err != nil {
		t.Fatalf("Placement: %v", err)
	}
	if !pl.ExceedsPage {
		t.Error("tiled placement should be flagged exceeding")
	}

	// 1200 mm wide over 190 mm pages: ceil((1200-190)/190)+1 = 7 columns.
	// 800 mm tall over 277 mm pages: ceil((800-277)/277)+1 = 3 rows.
	wantTiles := 7 * 3
	if len(pl.Tiles) != wantTiles {
		t.Fatalf("got %d tiles, want %d", len(pl.Tiles), wantTiles)
	}

	// Tiles are row-major with sequential page numbers.
	for i, tile := range pl.Tiles {
		if tile.Page != i {
			t.Errorf("tile %d has page %d", i, tile.Page)
		}
	}

	// The last tile holds the remainder.
	last := pl.Tiles[len(pl.Tiles)-1]
	if !geometry.AlmostEqual(last.Target.Width, 1200-6*190) {
		t.Errorf("last tile width = %v, want %v", last.Target.Width, 1200-6*190.0)
	}
	if !geometry.AlmostEqual(last.Target.Height, 800-2*277) {
		t.Errorf("last tile height = %v, want %v", last.Target.Height, 800-2*277.0)
	}
}

func TestTileOverlap(t *testing.T) {
	img := CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 2}

	planner := NewPlanner()
	planner.Policy = PolicyTile
	planner.TileOverlapMm = 10

	pl, err := planner.Placement(img, a4Portrait(), AnchorCenter)
	if err != nil {
		t.Fatalf("Placement: %v", err)
	}

	// With a 10 mm overlap the advance is 180 mm, so the second column
	// starts 180 mm into the image instead of 190.
	var secondCol *Tile
	for i := range pl.Tiles {
		if pl.Tiles[i].Row == 0 && pl.Tiles[i].Col == 1 {
			secondCol = &pl.Tiles[i]
			break
		}
	}
	if secondCol == nil {
		t.Fatal("no second-column tile found")
	}
	if !geometry.AlmostEqual(secondCol.SourcePx.X*img.ScaleMM, 180) {
		t.Errorf("second column starts at %v mm, want 180", secondCol.SourcePx.X*img.ScaleMM)
	}
}

func TestGridCopies(t *testing.T) {
	// A 40x50 mm label on the 190x277 mm printable area fits 4 columns and
	// 5 rows.
	img := CalibratedImage{WidthPx: 400, HeightPx: 500, ScaleMM: 0.1}

	pl, err := NewPlanner().Placement(img, a4Portrait(), AnchorGrid)
	if err != nil {
		t.Fatalf("Placement: %v", err)
	}
	if len(pl.Copies) != 4*5 {
		t.Fatalf("got %d copies, want 20", len(pl.Copies))
	}
	if pl.Copies[0] != pl.Rect {
		t.Error("first copy should equal the placement rect")
	}

	// Second copy advances by one physical width.
	if !geometry.AlmostEqual(pl.Copies[1].X, pl.Copies[0].X+40) {
		t.Errorf("second copy X = %v, want %v", pl.Copies[1].X, pl.Copies[0].X+40)
	}

	// All copies stay within the printable area.
	area, _ := a4Portrait().PrintableArea()
	for i, c := range pl.Copies {
		if c.X < area.X || c.Y < area.Y ||
			c.X+c.Width > area.X+area.Width+1e-9 ||
			c.Y+c.Height > area.Y+area.Height+1e-9 {
			t.Errorf("copy %d escapes the printable area: %v", i, c)
		}
	}
}

func TestPlacementRecomputedAfterRescale(t *testing.T) {
	planner := NewPlanner()
	spec := a4Portrait()

	img := CalibratedImage{WidthPx: 600, HeightPx: 400, ScaleMM: 0.25}
	first, err := planner.Placement(img, spec, AnchorCenter)
	if err != nil {
		t.Fatal(err)
	}

	img.ScaleMM = 0.1
	second, err := planner.Placement(img, spec, AnchorCenter)
	if err != nil {
		t.Fatal(err)
	}

	if first.Rect == second.Rect {
		t.Error("a new scale factor must produce a new placement")
	}
	if !geometry.AlmostEqual(second.Rect.Width, 60) {
		t.Errorf("rescaled width = %v, want 60", second.Rect.Width)
	}
}
