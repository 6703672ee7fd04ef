package app

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"openscaler/internal/layout"
	"openscaler/internal/paper"
	"openscaler/internal/units"
	"openscaler/pkg/geometry"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func TestAddImageSelectsAndEmits(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "scan.png", 600, 400)

	state := NewState()

	var added, modified bool
	state.On(EventImageAdded, func(interface{}) { added = true })
	state.On(EventModified, func(interface{}) { modified = true })

	item, err := state.AddImage(path)
	if err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	if !added || !modified {
		t.Error("AddImage should emit EventImageAdded and EventModified")
	}

	selected, ok := state.SelectedItem()
	if !ok || selected != item {
		t.Error("new image should be selected")
	}

	// Imported image gets a provisional fit scale immediately.
	if item.Scale() <= 0 {
		t.Error("imported image should have a fit scale")
	}
}

func TestCalibrateUpdatesScale(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "scan.png", 600, 400)

	state := NewState()
	item, err := state.AddImage(path)
	if err != nil {
		t.Fatal(err)
	}

	var calibrated bool
	state.On(EventCalibrationChanged, func(interface{}) { calibrated = true })

	id, err := item.Engine().AddSingleLine(
		geometry.NewPoint2D(100, 100), geometry.NewPoint2D(300, 100))
	if err != nil {
		t.Fatal(err)
	}
	if err := state.Calibrate(item, id, 50, units.Millimeter); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if !calibrated {
		t.Error("Calibrate should emit EventCalibrationChanged")
	}

	scale, err := item.Engine().ScaleFactor()
	if err != nil {
		t.Fatal(err)
	}
	if !geometry.AlmostEqual(scale, 0.25) {
		t.Errorf("scale = %v, want 0.25", scale)
	}
}

func TestSetPaperRefitsUncalibrated(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "scan.png", 600, 400)

	state := NewState()
	item, err := state.AddImage(path)
	if err != nil {
		t.Fatal(err)
	}
	a4Scale := item.Scale()

	a3, err := paper.Get("A3")
	if err != nil {
		t.Fatal(err)
	}
	state.SetPaper(paper.Spec{
		Size:        a3,
		Orientation: paper.Portrait,
		Margins:     paper.UniformMargins(10),
	})

	if item.Scale() <= a4Scale {
		t.Errorf("larger paper should enlarge the fit scale: %v -> %v", a4Scale, item.Scale())
	}
}

func TestSetPaperKeepsCalibratedScale(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "scan.png", 600, 400)

	state := NewState()
	item, _ := state.AddImage(path)
	id, _ := item.Engine().AddSingleLine(
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(200, 0))
	if err := state.Calibrate(item, id, 50, units.Millimeter); err != nil {
		t.Fatal(err)
	}

	a3, _ := paper.Get("A3")
	state.SetPaper(paper.Spec{
		Size:        a3,
		Orientation: paper.Landscape,
		Margins:     paper.UniformMargins(10),
	})

	// The physical truth does not change with the page.
	if !geometry.AlmostEqual(item.Scale(), 0.25) {
		t.Errorf("calibrated scale changed on paper switch: %v", item.Scale())
	}
}

func TestPlacement(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "scan.png", 600, 400)

	state := NewState()
	item, _ := state.AddImage(path)
	id, _ := item.Engine().AddSingleLine(
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(200, 0))
	if err := state.Calibrate(item, id, 50, units.Millimeter); err != nil {
		t.Fatal(err)
	}

	pl, err := state.Placement(item, layout.AnchorCenter)
	if err != nil {
		t.Fatalf("Placement: %v", err)
	}
	if !geometry.AlmostEqual(pl.Rect.X, 30) || !geometry.AlmostEqual(pl.Rect.Y, 98.5) {
		t.Errorf("placement origin = (%v, %v), want (30, 98.5)", pl.Rect.X, pl.Rect.Y)
	}
}

func TestProjectSaveLoad(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestPNG(t, dir, "scan.png", 600, 400)
	projPath := filepath.Join(dir, "sheet.osproj")

	state := NewState()
	item, _ := state.AddImage(imgPath)
	id, _ := item.Engine().AddSingleLine(
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(200, 0))
	if err := state.Calibrate(item, id, 50, units.Millimeter); err != nil {
		t.Fatal(err)
	}

	if err := state.SaveProject(projPath); err != nil {
		t.Fatalf("SaveProject: %v", err)
	}
	if state.Modified {
		t.Error("saving should clear the modified flag")
	}

	restored := NewState()
	if err := restored.LoadProject(projPath); err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	items := restored.Items()
	if len(items) != 1 {
		t.Fatalf("restored %d items, want 1", len(items))
	}
	scale, err := items[0].Engine().ScaleFactor()
	if err != nil {
		t.Fatal(err)
	}
	if !geometry.AlmostEqual(scale, 0.25) {
		t.Errorf("restored scale = %v, want 0.25", scale)
	}
}

func TestExportPDF(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestPNG(t, dir, "scan.png", 60, 40)
	pdfPath := filepath.Join(dir, "out.pdf")

	state := NewState()
	if err := state.ExportPDF(pdfPath); err == nil {
		t.Error("exporting an empty sheet should fail")
	}

	item, _ := state.AddImage(imgPath)
	id, _ := item.Engine().AddSingleLine(
		geometry.NewPoint2D(0, 0), geometry.NewPoint2D(50, 0))
	if err := state.Calibrate(item, id, 10, units.Millimeter); err != nil {
		t.Fatal(err)
	}

	if err := state.ExportPDF(pdfPath); err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	info, err := os.Stat(pdfPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("exported PDF is empty")
	}
}
