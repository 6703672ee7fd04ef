// Package canvas provides the paper canvas: the sheet rendered at display
// scale with pan, zoom, image placement, and measurement drawing.
package canvas

import (
	"math"

	"openscaler/internal/app"
	"openscaler/internal/imaging"
	"openscaler/internal/measure"
	"openscaler/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 5.0
	zoomStep = 1.25

	// pixelsPerMm is the base display resolution of the sheet.
	pixelsPerMm = 8.0

	// snapThresholdDeg snaps nearly axis-aligned measurement lines.
	snapThresholdDeg = 1.0

	// hitTolerancePx is the double-click tolerance around a measurement.
	hitTolerancePx = 15.0
)

// Mode is the current interaction mode.
type Mode int

const (
	ModePan          Mode = iota
	ModeSingleLine        // drag draws a single-line measurement
	ModeParallelLine      // drag draws a parallel-line measurement
	ModeMoveImage         // drag moves the selected image on the paper
)

// SheetCanvas renders the paper with its placed images and measurements.
type SheetCanvas struct {
	widget.BaseWidget

	state *app.State

	raster *fynecanvas.Raster
	zoom   float64
	mode   Mode

	// In-progress measurement line, in canvas coordinates.
	drawing   bool
	tempStart fyne.Position
	tempEnd   fyne.Position

	// Image move state
	movingItem   *imaging.Item
	moveStart    fyne.Position
	moveOrigOffs geometry.Point2D

	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	fitToWindow    bool
	lastScrollSize fyne.Size

	onZoomChange        func(zoom float64)
	onMeasurementDrawn  func(item *imaging.Item, first, second geometry.Segment, kind measure.Kind)
	onMeasurementTapped func(item *imaging.Item, id measure.ID)
}

// NewSheetCanvas creates the canvas bound to the application state.
func NewSheetCanvas(state *app.State) *SheetCanvas {
	sc := &SheetCanvas{
		state:   state,
		zoom:    1.0,
		mode:    ModePan,
		imgSize: fyne.NewSize(400, 300),
	}

	sc.raster = fynecanvas.NewRaster(sc.draw)
	sc.raster.ScaleMode = fynecanvas.ImageScalePixels
	sc.raster.SetMinSize(sc.imgSize)

	sc.content = newDraggableContent(sc, sc.raster)
	sc.scroll = newZoomScroll(sc.content, sc)

	sc.ExtendBaseWidget(sc)
	sc.updateContentSize()
	return sc
}

// Container returns the canvas container for embedding in layouts.
func (sc *SheetCanvas) Container() fyne.CanvasObject {
	return sc.scroll
}

// SetMode changes the interaction mode.
func (sc *SheetCanvas) SetMode(mode Mode) {
	sc.mode = mode
	sc.drawing = false
}

// Mode returns the current interaction mode.
func (sc *SheetCanvas) Mode() Mode {
	return sc.mode
}

// OnZoomChange sets a callback for zoom changes.
func (sc *SheetCanvas) OnZoomChange(callback func(zoom float64)) {
	sc.onZoomChange = callback
}

// OnMeasurementDrawn sets the callback invoked when a measurement drag
// completes. Segments are in the item's image pixel coordinates.
func (sc *SheetCanvas) OnMeasurementDrawn(callback func(item *imaging.Item, first, second geometry.Segment, kind measure.Kind)) {
	sc.onMeasurementDrawn = callback
}

// OnMeasurementTapped sets the callback invoked when an existing measurement
// is double-clicked.
func (sc *SheetCanvas) OnMeasurementTapped(callback func(item *imaging.Item, id measure.ID)) {
	sc.onMeasurementTapped = callback
}

// SetZoom sets the zoom level.
func (sc *SheetCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	sc.zoom = zoom
	sc.updateContentSize()

	if sc.onZoomChange != nil {
		sc.onZoomChange(zoom)
	}
}

// Zoom returns the current zoom level.
func (sc *SheetCanvas) Zoom() float64 {
	return sc.zoom
}

// ZoomIn increases the zoom level.
func (sc *SheetCanvas) ZoomIn() {
	sc.SetZoom(sc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (sc *SheetCanvas) ZoomOut() {
	sc.SetZoom(sc.zoom / zoomStep)
}

// ResetZoom returns to 100%.
func (sc *SheetCanvas) ResetZoom() {
	sc.SetZoom(1.0)
}

// FitToWindow adjusts zoom so the whole page is visible.
func (sc *SheetCanvas) FitToWindow() {
	pageW, pageH := sc.state.Paper().PageSize()
	viewSize := sc.scroll.Size()
	if viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / (pageW * pixelsPerMm)
	zoomY := float64(viewSize.Height) / (pageH * pixelsPerMm)
	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}
	sc.SetZoom(zoom * 0.95) // Leave a small margin
}

// SetFitToWindow enables or disables auto-fit on resize.
func (sc *SheetCanvas) SetFitToWindow(fit bool) {
	sc.fitToWindow = fit
	if fit {
		sc.FitToWindow()
	}
}

// CheckResize auto-fits when the scroll container was resized.
func (sc *SheetCanvas) CheckResize(size fyne.Size) {
	if !sc.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != sc.lastScrollSize {
		sc.lastScrollSize = size
		sc.FitToWindow()
	}
}

// Refresh refreshes the canvas display.
func (sc *SheetCanvas) Refresh() {
	sc.raster.Refresh()
}

// scale returns canvas pixels per millimeter at the current zoom.
func (sc *SheetCanvas) scale() float64 {
	return pixelsPerMm * sc.zoom
}

// imageToCanvas converts an item's image pixel coordinates to canvas
// coordinates.
func (sc *SheetCanvas) imageToCanvas(item *imaging.Item, p geometry.Point2D) geometry.Point2D {
	off := item.PhysicalOffset(sc.state.Paper())
	s := item.Scale()
	k := sc.scale()
	return geometry.NewPoint2D((off.X+p.X*s)*k, (off.Y+p.Y*s)*k)
}

// canvasToImage converts canvas coordinates to an item's image pixel
// coordinates.
func (sc *SheetCanvas) canvasToImage(item *imaging.Item, p geometry.Point2D) geometry.Point2D {
	off := item.PhysicalOffset(sc.state.Paper())
	s := item.Scale()
	if s == 0 {
		return geometry.Point2D{}
	}
	k := sc.scale()
	return geometry.NewPoint2D((p.X/k-off.X)/s, (p.Y/k-off.Y)/s)
}

// itemDisplayRect returns the item's rectangle in canvas coordinates.
func (sc *SheetCanvas) itemDisplayRect(item *imaging.Item) geometry.Rect {
	off := item.PhysicalOffset(sc.state.Paper())
	s := item.Scale()
	k := sc.scale()
	return geometry.NewRect(
		off.X*k,
		off.Y*k,
		float64(item.Width())*s*k,
		float64(item.Height())*s*k,
	)
}

// itemAt returns the topmost item under a canvas position.
func (sc *SheetCanvas) itemAt(pos geometry.Point2D) (*imaging.Item, int) {
	items := sc.state.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if sc.itemDisplayRect(items[i]).Contains(pos) {
			return items[i], i
		}
	}
	return nil, -1
}

// updateContentSize resizes the raster to the zoomed page.
func (sc *SheetCanvas) updateContentSize() {
	pageW, pageH := sc.state.Paper().PageSize()
	k := sc.scale()
	sc.imgSize = fyne.NewSize(float32(pageW*k), float32(pageH*k))

	sc.raster.SetMinSize(sc.imgSize)
	sc.raster.Resize(sc.imgSize)
	if sc.content != nil {
		sc.content.Resize(sc.imgSize)
		sc.content.Refresh()
	}
	sc.raster.Refresh()
	if sc.scroll != nil {
		sc.scroll.Refresh()
	}
}

// finishMeasurement converts the completed temp line into measurement
// segments and fires the callback.
func (sc *SheetCanvas) finishMeasurement() {
	defer func() {
		sc.drawing = false
		sc.Refresh()
	}()

	if sc.onMeasurementDrawn == nil {
		return
	}
	item, ok := sc.state.SelectedItem()
	if !ok {
		return
	}

	start := geometry.NewPoint2D(float64(sc.tempStart.X), float64(sc.tempStart.Y))
	end := geometry.NewPoint2D(float64(sc.tempEnd.X), float64(sc.tempEnd.Y))

	p1 := sc.canvasToImage(item, start)
	p2 := sc.canvasToImage(item, end)

	switch sc.mode {
	case ModeSingleLine:
		sc.onMeasurementDrawn(item, geometry.NewSegment(p1, p2), geometry.Segment{}, measure.SingleLine)
	case ModeParallelLine:
		// The drawn line crosses between two parallel edges; the rails run
		// perpendicular to it through its endpoints, so the perpendicular
		// separation equals the drawn length.
		first, second := railsFor(p1, p2)
		sc.onMeasurementDrawn(item, first, second, measure.ParallelLine)
	}
}

// railsFor builds the two perpendicular rails for a parallel-line
// measurement drawn as a crossing line from p1 to p2.
func railsFor(p1, p2 geometry.Point2D) (first, second geometry.Segment) {
	d := p2.Sub(p1)
	length := math.Hypot(d.X, d.Y)
	if length == 0 {
		return geometry.NewSegment(p1, p1), geometry.NewSegment(p2, p2)
	}
	// Unit normal of the drawn line, used as rail direction.
	n := geometry.NewPoint2D(-d.Y/length, d.X/length)
	half := length / 2
	first = geometry.NewSegment(p1.Add(n.Scale(half)), p1.Sub(n.Scale(half)))
	second = geometry.NewSegment(p2.Add(n.Scale(half)), p2.Sub(n.Scale(half)))
	return first, second
}

// hitMeasurement finds a measurement near a canvas position.
func (sc *SheetCanvas) hitMeasurement(pos geometry.Point2D) (*imaging.Item, measure.ID, bool) {
	for _, item := range sc.state.Items() {
		for _, m := range item.Engine().Measurements() {
			seg := geometry.NewSegment(
				sc.imageToCanvas(item, m.First.Start),
				sc.imageToCanvas(item, m.First.End),
			)
			if m.Kind == measure.ParallelLine {
				// Hit test against the crossing line between rail midpoints.
				seg = geometry.NewSegment(
					sc.imageToCanvas(item, m.First.Midpoint()),
					sc.imageToCanvas(item, m.Second.Midpoint()),
				)
			}
			if seg.DistanceToSegment(pos) <= hitTolerancePx {
				return item, m.ID, true
			}
		}
	}
	return nil, 0, false
}

// CreateRenderer implements fyne.Widget.
func (sc *SheetCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &sheetCanvasRenderer{canvas: sc}
}

type sheetCanvasRenderer struct {
	canvas *SheetCanvas
}

func (r *sheetCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	}
	r.canvas.CheckResize(size)
}

func (r *sheetCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *sheetCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *sheetCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.scroll}
}

func (r *sheetCanvasRenderer) Destroy() {}

// zoomScroll wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *SheetCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *SheetCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to handle mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *SheetCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(sc *SheetCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{canvas: sc, raster: raster}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(dc.raster)
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

// contentPos converts an event position to canvas content coordinates.
func (dc *draggableContent) contentPos(pos fyne.Position) fyne.Position {
	offset := dc.canvas.scroll.Offset()
	return fyne.Position{X: pos.X + offset.X, Y: pos.Y + offset.Y}
}

func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	sc := dc.canvas
	pos := dc.contentPos(ev.Position)

	switch sc.mode {
	case ModeSingleLine, ModeParallelLine:
		if !sc.drawing {
			sc.drawing = true
			sc.tempStart = pos
		}
		dx := float64(pos.X - sc.tempStart.X)
		dy := float64(pos.Y - sc.tempStart.Y)
		dx, dy = geometry.SnapAngle(dx, dy, snapThresholdDeg)
		sc.tempEnd = fyne.Position{
			X: sc.tempStart.X + float32(dx),
			Y: sc.tempStart.Y + float32(dy),
		}
		sc.Refresh()

	case ModeMoveImage:
		if sc.movingItem == nil {
			item, idx := sc.itemAt(geometry.NewPoint2D(float64(pos.X), float64(pos.Y)))
			if item == nil {
				return
			}
			sc.state.SelectItem(idx)
			sc.movingItem = item
			sc.moveStart = pos
			sc.moveOrigOffs = item.OffsetRatios
		}
		sc.moveItemTo(pos)
	}
}

// moveItemTo updates the moving item's offset ratios from the drag delta.
func (sc *SheetCanvas) moveItemTo(pos fyne.Position) {
	item := sc.movingItem
	spec := sc.state.Paper()
	pageW, pageH := spec.PageSize()
	s := item.Scale()
	k := sc.scale()

	freeW := pageW - float64(item.Width())*s
	freeH := pageH - float64(item.Height())*s
	if freeW <= 0 || freeH <= 0 {
		return
	}

	deltaXmm := float64(pos.X-sc.moveStart.X) / k
	deltaYmm := float64(pos.Y-sc.moveStart.Y) / k

	item.OffsetRatios = geometry.NewPoint2D(
		clamp01(sc.moveOrigOffs.X+deltaXmm/freeW),
		clamp01(sc.moveOrigOffs.Y+deltaYmm/freeH),
	)
	sc.Refresh()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (dc *draggableContent) DragEnd() {
	sc := dc.canvas
	switch sc.mode {
	case ModeSingleLine, ModeParallelLine:
		if sc.drawing {
			sc.finishMeasurement()
		}
	case ModeMoveImage:
		if sc.movingItem != nil {
			sc.movingItem = nil
			sc.state.SetModified(true)
		}
	}
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		dc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.ZoomOut()
	}
}

// Tapped selects the item under the cursor.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	pos := dc.contentPos(ev.Position)
	_, idx := dc.canvas.itemAt(geometry.NewPoint2D(float64(pos.X), float64(pos.Y)))
	if idx >= 0 {
		dc.canvas.state.SelectItem(idx)
		dc.canvas.Refresh()
	}
}

// DoubleTapped re-opens the length dialog for a measurement near the cursor.
func (dc *draggableContent) DoubleTapped(ev *fyne.PointEvent) {
	sc := dc.canvas
	if sc.onMeasurementTapped == nil {
		return
	}
	pos := dc.contentPos(ev.Position)
	if item, id, ok := sc.hitMeasurement(geometry.NewPoint2D(float64(pos.X), float64(pos.Y))); ok {
		sc.onMeasurementTapped(item, id)
	}
}

var _ fyne.Draggable = (*draggableContent)(nil)
var _ fyne.Tappable = (*draggableContent)(nil)
var _ fyne.DoubleTappable = (*draggableContent)(nil)

// pageSizePx returns the full page size in canvas pixels.
func (sc *SheetCanvas) pageSizePx() (int, int) {
	pageW, pageH := sc.state.Paper().PageSize()
	k := sc.scale()
	return int(math.Ceil(pageW * k)), int(math.Ceil(pageH * k))
}
