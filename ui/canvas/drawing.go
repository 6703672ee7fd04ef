package canvas

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"

	"openscaler/internal/imaging"
	"openscaler/internal/measure"
	"openscaler/pkg/geometry"
)

var (
	paperWhite    = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	marginGray    = color.RGBA{R: 0xB0, G: 0xB0, B: 0xB0, A: 0xFF}
	measureRed    = color.RGBA{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF}
	measureActive = color.RGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF}
	selectBlue    = color.RGBA{R: 0x1E, G: 0x88, B: 0xE5, A: 0xFF}
	labelBlack    = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF}
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
// Each digit is represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// letterPatterns contains 3x5 pixel patterns for the characters that appear
// in measurement labels.
var letterPatterns = map[rune][5]uint8{
	'C': {0b011, 0b100, 0b100, 0b100, 0b011},
	'H': {0b101, 0b101, 0b111, 0b101, 0b101},
	'I': {0b111, 0b010, 0b010, 0b010, 0b111},
	'M': {0b101, 0b111, 0b101, 0b101, 0b101},
	'N': {0b101, 0b111, 0b111, 0b101, 0b101},
	'.': {0b000, 0b000, 0b000, 0b000, 0b010},
	'-': {0b000, 0b000, 0b111, 0b000, 0b000},
	' ': {0b000, 0b000, 0b000, 0b000, 0b000},
}

// getCharPattern returns the 3x5 pixel pattern for a character.
// Returns a zero pattern for unsupported characters.
func getCharPattern(ch rune) [5]uint8 {
	if ch >= '0' && ch <= '9' {
		return digitPatterns[ch-'0']
	}
	if ch >= 'a' && ch <= 'z' {
		ch = ch - 'a' + 'A'
	}
	if pattern, ok := letterPatterns[ch]; ok {
		return pattern
	}
	return [5]uint8{}
}

// draw renders the sheet: white paper, margin guides, placed images, and the
// measurement overlays. Called by the Fyne raster on every refresh.
func (sc *SheetCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))

	pageW, pageH := sc.pageSizePx()
	if pageW > w {
		pageW = w
	}
	if pageH > h {
		pageH = h
	}
	for y := 0; y < pageH; y++ {
		for x := 0; x < pageW; x++ {
			output.Set(x, y, paperWhite)
		}
	}

	sc.drawMarginGuides(output)

	items := sc.state.Items()
	selected := sc.state.SelectedIndex()
	for i, item := range items {
		sc.drawItem(output, item)
		if i == selected && len(items) > 1 {
			rect := sc.itemDisplayRect(item)
			sc.drawDashedRect(output, rect, selectBlue)
		}
	}

	for _, item := range items {
		sc.drawMeasurements(output, item)
	}

	if sc.drawing {
		sc.drawTempLine(output)
	}

	return output
}

// drawMarginGuides outlines the printable area with a dashed rectangle.
func (sc *SheetCanvas) drawMarginGuides(output *image.RGBA) {
	area, err := sc.state.Paper().PrintableArea()
	if err != nil {
		return
	}
	k := sc.scale()
	rect := geometry.NewRect(area.X*k, area.Y*k, area.Width*k, area.Height*k)
	sc.drawDashedRect(output, rect, marginGray)
}

// drawItem composites one item onto the paper with nearest-neighbor
// sampling at the item's current physical scale.
func (sc *SheetCanvas) drawItem(output *image.RGBA, item *imaging.Item) {
	if item.Image == nil {
		return
	}
	rect := sc.itemDisplayRect(item)
	bounds := output.Bounds()
	src := item.Image
	srcBounds := src.Bounds()

	x0 := int(rect.X)
	y0 := int(rect.Y)
	x1 := int(rect.X + rect.Width)
	y1 := int(rect.Y + rect.Height)
	if rect.Width <= 0 || rect.Height <= 0 {
		return
	}

	for y := y0; y < y1; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		sy := srcBounds.Min.Y + int(float64(y-y0)/rect.Height*float64(srcBounds.Dy()))
		if sy >= srcBounds.Max.Y {
			sy = srcBounds.Max.Y - 1
		}
		for x := x0; x < x1; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			sx := srcBounds.Min.X + int(float64(x-x0)/rect.Width*float64(srcBounds.Dx()))
			if sx >= srcBounds.Max.X {
				sx = srcBounds.Max.X - 1
			}
			output.Set(x, y, src.At(sx, sy))
		}
	}
}

// drawMeasurements draws every measurement of an item: the line with end
// arrows, the perpendicular rails for parallel measurements, and the real
// length label next to the midpoint.
func (sc *SheetCanvas) drawMeasurements(output *image.RGBA, item *imaging.Item) {
	active, hasActive := item.Engine().Active()
	for _, m := range item.Engine().Measurements() {
		col := measureRed
		if hasActive && m.ID == active.ID {
			col = measureActive
		}

		switch m.Kind {
		case measure.ParallelLine:
			sc.drawParallel(output, item, m, col)
		default:
			a := sc.imageToCanvas(item, m.First.Start)
			b := sc.imageToCanvas(item, m.First.End)
			sc.drawMeasureLine(output, a, b, col)
		}

		if m.RealLength != nil {
			mid := sc.imageToCanvas(item, m.First.Midpoint())
			if m.Kind == measure.ParallelLine {
				mid = sc.imageToCanvas(item, geometry.NewSegment(m.First.Midpoint(), m.Second.Midpoint()).Midpoint())
			}
			label := formatLength(m.RealLength.Magnitude, string(m.RealLength.Unit))
			sc.drawLabel(output, label, int(mid.X), int(mid.Y)-10, labelBlack)
		}
	}
}

// drawParallel draws a parallel-line measurement: the two rails plus the
// crossing line between their midpoints.
func (sc *SheetCanvas) drawParallel(output *image.RGBA, item *imaging.Item, m *measure.Measurement, col color.RGBA) {
	r1a := sc.imageToCanvas(item, m.First.Start)
	r1b := sc.imageToCanvas(item, m.First.End)
	r2a := sc.imageToCanvas(item, m.Second.Start)
	r2b := sc.imageToCanvas(item, m.Second.End)
	sc.drawLine(output, int(r1a.X), int(r1a.Y), int(r1b.X), int(r1b.Y), col, 1)
	sc.drawLine(output, int(r2a.X), int(r2a.Y), int(r2b.X), int(r2b.Y), col, 1)

	mid1 := sc.imageToCanvas(item, m.First.Midpoint())
	mid2 := sc.imageToCanvas(item, m.Second.Midpoint())
	sc.drawMeasureLine(output, mid1, mid2, col)
}

// drawMeasureLine draws a measurement line with arrowheads at both ends.
func (sc *SheetCanvas) drawMeasureLine(output *image.RGBA, a, b geometry.Point2D, col color.RGBA) {
	sc.drawLine(output, int(a.X), int(a.Y), int(b.X), int(b.Y), col, 2)
	sc.drawArrowhead(output, b, a, col)
	sc.drawArrowhead(output, a, b, col)
}

// drawArrowhead draws an arrowhead at tip, pointing away from tail.
func (sc *SheetCanvas) drawArrowhead(output *image.RGBA, tip, tail geometry.Point2D, col color.RGBA) {
	dx := tip.X - tail.X
	dy := tip.Y - tail.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	ux, uy := dx/length, dy/length

	const arrowLen = 8.0
	const arrowAngle = math.Pi / 6

	cos, sin := math.Cos(arrowAngle), math.Sin(arrowAngle)
	lx := tip.X - arrowLen*(ux*cos-uy*sin)
	ly := tip.Y - arrowLen*(uy*cos+ux*sin)
	rx := tip.X - arrowLen*(ux*cos+uy*sin)
	ry := tip.Y - arrowLen*(uy*cos-ux*sin)

	sc.drawLine(output, int(tip.X), int(tip.Y), int(lx), int(ly), col, 2)
	sc.drawLine(output, int(tip.X), int(tip.Y), int(rx), int(ry), col, 2)
}

// drawTempLine draws the in-progress measurement drag.
func (sc *SheetCanvas) drawTempLine(output *image.RGBA) {
	a := geometry.NewPoint2D(float64(sc.tempStart.X), float64(sc.tempStart.Y))
	b := geometry.NewPoint2D(float64(sc.tempEnd.X), float64(sc.tempEnd.Y))
	sc.drawMeasureLine(output, a, b, measureActive)

	if sc.mode == ModeParallelLine {
		first, second := railsFor(a, b)
		sc.drawLine(output, int(first.Start.X), int(first.Start.Y), int(first.End.X), int(first.End.Y), measureActive, 1)
		sc.drawLine(output, int(second.Start.X), int(second.Start.Y), int(second.End.X), int(second.End.Y), measureActive, 1)
	}
}

// drawDashedRect draws a dashed rectangle outline.
func (sc *SheetCanvas) drawDashedRect(output *image.RGBA, rect geometry.Rect, col color.RGBA) {
	bounds := output.Bounds()
	x1 := int(rect.X)
	y1 := int(rect.Y)
	x2 := int(rect.X + rect.Width)
	y2 := int(rect.Y + rect.Height)

	for x := x1; x <= x2; x++ {
		if (x+y1)%6 < 3 && x >= bounds.Min.X && x < bounds.Max.X && y1 >= bounds.Min.Y && y1 < bounds.Max.Y {
			output.Set(x, y1, col)
		}
		if (x+y2)%6 < 3 && x >= bounds.Min.X && x < bounds.Max.X && y2 >= bounds.Min.Y && y2 < bounds.Max.Y {
			output.Set(x, y2, col)
		}
	}
	for y := y1; y <= y2; y++ {
		if (x1+y)%6 < 3 && x1 >= bounds.Min.X && x1 < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			output.Set(x1, y, col)
		}
		if (x2+y)%6 < 3 && x2 >= bounds.Min.X && x2 < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			output.Set(x2, y, col)
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func (sc *SheetCanvas) drawLine(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.Set(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawLabel draws a small bitmap-font label centered at the given point.
func (sc *SheetCanvas) drawLabel(output *image.RGBA, label string, centerX, centerY int, col color.RGBA) {
	scale := int(sc.zoom * 2)
	if scale < 1 {
		scale = 1
	}
	if scale > 6 {
		scale = 6
	}

	charWidth := 3 * scale
	charHeight := 5 * scale
	spacing := scale
	labelWidth := len(label)*charWidth + (len(label)-1)*spacing

	startX := centerX - labelWidth/2
	startY := centerY - charHeight/2

	bounds := output.Bounds()

	for i, ch := range label {
		pattern := getCharPattern(ch)
		charX := startX + i*(charWidth+spacing)

		for row := 0; row < 5; row++ {
			for c := 0; c < 3; c++ {
				if (pattern[row] & (1 << (2 - c))) != 0 {
					for dy := 0; dy < scale; dy++ {
						for dx := 0; dx < scale; dx++ {
							px := charX + c*scale + dx
							py := startY + row*scale + dy
							if px >= bounds.Min.X && px < bounds.Max.X &&
								py >= bounds.Min.Y && py < bounds.Max.Y {
								output.Set(px, py, col)
							}
						}
					}
				}
			}
		}
	}
}

// formatLength formats a real length for its overlay label, e.g. "50 MM".
func formatLength(magnitude float64, unit string) string {
	v := strconv.FormatFloat(magnitude, 'f', -1, 64)
	if i := strings.IndexByte(v, '.'); i >= 0 && len(v)-i > 3 {
		v = strconv.FormatFloat(magnitude, 'f', 2, 64)
	}
	return v + " " + strings.ToUpper(unit)
}
