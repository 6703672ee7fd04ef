// Command scaleprint calibrates an image from the command line and writes a
// print-ready PDF, without the GUI. The reference line is given either as
// two pixel coordinates or as a raw pixel distance.
package main

import (
	"flag"
	"fmt"
	"os"

	"openscaler/internal/export"
	"openscaler/internal/imaging"
	"openscaler/internal/layout"
	"openscaler/internal/paper"
	"openscaler/internal/units"
	"openscaler/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to source image (PNG, JPEG, or BMP)")
	output := flag.String("o", "out.pdf", "Output PDF path")

	p1x := flag.Float64("p1x", 0, "Reference line start X (pixels)")
	p1y := flag.Float64("p1y", 0, "Reference line start Y (pixels)")
	p2x := flag.Float64("p2x", 0, "Reference line end X (pixels)")
	p2y := flag.Float64("p2y", 0, "Reference line end Y (pixels)")
	pixels := flag.Float64("pixels", 0, "Reference distance in pixels (alternative to -p1x/-p1y/-p2x/-p2y)")

	length := flag.Float64("length", 0, "Real length of the reference line")
	unitName := flag.String("unit", "mm", "Unit of -length: mm, cm, or inch")

	paperName := flag.String("paper", "A4", "Paper size name, or WxH in mm (e.g. 200x300)")
	landscape := flag.Bool("landscape", false, "Landscape orientation")
	margin := flag.Float64("margin", 10, "Uniform page margin in mm")

	anchorName := flag.String("anchor", "center", "Placement anchor: center, topleft, or grid")
	tile := flag.Bool("tile", false, "Split oversized images across pages instead of clipping")
	overlap := flag.Float64("overlap", 0, "Tile glue overlap in mm")

	flag.Parse()

	if *imagePath == "" || *length <= 0 {
		fmt.Println("Usage: scaleprint -image <path> -length <n> [-unit mm] (-pixels <n> | -p1x -p1y -p2x -p2y) [-o out.pdf]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*imagePath, *output, *p1x, *p1y, *p2x, *p2y, *pixels,
		*length, *unitName, *paperName, *landscape, *margin,
		*anchorName, *tile, *overlap); err != nil {
		fmt.Fprintf(os.Stderr, "scaleprint: %v\n", err)
		os.Exit(1)
	}
}

func run(imagePath, output string, p1x, p1y, p2x, p2y, pixels,
	length float64, unitName, paperName string, landscape bool, margin float64,
	anchorName string, tile bool, overlap float64) error {

	unit, err := units.Parse(unitName)
	if err != nil {
		return err
	}

	item, err := imaging.Load(imagePath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded image: %dx%d pixels\n", item.Width(), item.Height())

	start := geometry.NewPoint2D(p1x, p1y)
	end := geometry.NewPoint2D(p2x, p2y)
	if pixels > 0 {
		start = geometry.NewPoint2D(0, 0)
		end = geometry.NewPoint2D(pixels, 0)
	}

	eng := item.Engine()
	id, err := eng.AddSingleLine(start, end)
	if err != nil {
		return err
	}
	if err := eng.SetRealLength(id, length, unit); err != nil {
		return err
	}
	scale, err := eng.ScaleFactor()
	if err != nil {
		return err
	}
	fmt.Printf("Scale factor: %.6f mm/px\n", scale)

	spec, err := paperSpec(paperName, landscape, margin)
	if err != nil {
		return err
	}
	pageW, pageH := spec.PageSize()
	fmt.Printf("Paper: %s %.0fx%.0f mm, %.0f mm margin\n", spec.Size.Name, pageW, pageH, margin)

	img, err := item.CalibratedImage()
	if err != nil {
		return err
	}
	phys := img.PhysicalSize()
	fmt.Printf("Physical size: %.1fx%.1f mm\n", phys.Width, phys.Height)

	anchor, err := parseAnchor(anchorName)
	if err != nil {
		return err
	}

	planner := layout.NewPlanner()
	if tile {
		planner.Policy = layout.PolicyTile
		planner.TileOverlapMm = overlap
	}
	pl, err := planner.Placement(img, spec, anchor)
	if err != nil {
		return err
	}
	if pl.ExceedsPage {
		if len(pl.Tiles) > 0 {
			fmt.Printf("Image exceeds the printable area, split into %d pages\n", len(pl.Tiles))
		} else {
			fmt.Println("Image exceeds the printable area, clipping to fit")
		}
	}

	doc := export.NewDocument(spec)
	doc.AddPlacement(item.Image, pl)
	if err := doc.WriteFile(output); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d page(s))\n", output, len(doc.Pages))
	return nil
}

// paperSpec resolves a registered size name or a WxH custom dimension.
func paperSpec(name string, landscape bool, margin float64) (paper.Spec, error) {
	orientation := paper.Portrait
	if landscape {
		orientation = paper.Landscape
	}

	size, err := paper.Get(name)
	if err != nil {
		var w, h float64
		if _, scanErr := fmt.Sscanf(name, "%fx%f", &w, &h); scanErr != nil || w <= 0 || h <= 0 {
			return paper.Spec{}, err
		}
		size = paper.Custom(w, h)
	}

	spec := paper.Spec{
		Size:        size,
		Orientation: orientation,
		Margins:     paper.UniformMargins(margin),
	}
	if _, err := spec.PrintableArea(); err != nil {
		return paper.Spec{}, err
	}
	return spec, nil
}

func parseAnchor(name string) (layout.Anchor, error) {
	switch name {
	case "center":
		return layout.AnchorCenter, nil
	case "topleft":
		return layout.AnchorTopLeft, nil
	case "grid":
		return layout.AnchorGrid, nil
	}
	return 0, fmt.Errorf("unknown anchor %q (want center, topleft, or grid)", name)
}
