// Package mainwindow provides the application main window.
package mainwindow

import (
	"fmt"
	"log"
	"path/filepath"

	"openscaler/internal/app"
	"openscaler/internal/imaging"
	"openscaler/internal/measure"
	"openscaler/internal/paper"
	"openscaler/internal/units"
	"openscaler/internal/version"
	"openscaler/pkg/geometry"
	"openscaler/ui/canvas"
	"openscaler/ui/dialogs"
	"openscaler/ui/panels"
	"openscaler/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// MainWindow is the application main window.
type MainWindow struct {
	app    fyne.App
	window fyne.Window
	state  *app.State
	prefs  *prefs.Prefs

	canvas *canvas.SheetCanvas
	panel  *panels.SidePanel

	statusLabel *widget.Label
	zoomLabel   *widget.Label
	scaleLabel  *widget.Label
}

// New creates the main window.
func New(fyneApp fyne.App, state *app.State, preferences *prefs.Prefs) *MainWindow {
	w := &MainWindow{
		app:    fyneApp,
		state:  state,
		prefs:  preferences,
		window: fyneApp.NewWindow("OpenScaler " + version.Version),
	}

	w.applyPaperPrefs()

	w.canvas = canvas.NewSheetCanvas(state)
	w.panel = panels.NewSidePanel(state)

	w.setupCallbacks()
	w.setupUI()
	w.setupMenus()

	width := float32(preferences.Float(prefs.KeyWindowWidth, 1200))
	height := float32(preferences.Float(prefs.KeyWindowHeight, 800))
	w.window.Resize(fyne.NewSize(width, height))
	w.window.SetMaster()

	w.window.SetCloseIntercept(func() {
		w.confirmDiscard(func() {
			size := w.window.Canvas().Size()
			preferences.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
			preferences.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
			if err := preferences.Save(); err != nil {
				log.Printf("saving preferences: %v", err)
			}
			w.window.Close()
		})
	})

	return w
}

// Show displays the window.
func (w *MainWindow) Show() {
	w.window.Show()
}

// Window returns the underlying fyne window.
func (w *MainWindow) Window() fyne.Window {
	return w.window
}

// OpenProject loads a project file, for startup arguments.
func (w *MainWindow) OpenProject(path string) {
	if err := w.state.LoadProject(path); err != nil {
		dialog.ShowError(err, w.window)
		return
	}
	w.canvas.Refresh()
}

func (w *MainWindow) setupUI() {
	w.statusLabel = widget.NewLabel("Ready")
	w.zoomLabel = widget.NewLabel("100%")
	w.scaleLabel = widget.NewLabel("Not calibrated")

	statusBar := container.NewHBox(
		w.statusLabel,
		widget.NewSeparator(),
		w.scaleLabel,
		widget.NewSeparator(),
		w.zoomLabel,
	)

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), func() { w.openImage() }),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() { w.saveProject(false) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { w.canvas.ZoomIn() }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { w.canvas.ZoomOut() }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), func() { w.canvas.FitToWindow() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentAddIcon(), func() { w.setMode(canvas.ModeSingleLine) }),
		widget.NewToolbarAction(theme.ContentCopyIcon(), func() { w.setMode(canvas.ModeParallelLine) }),
		widget.NewToolbarAction(theme.MoveUpIcon(), func() { w.setMode(canvas.ModeMoveImage) }),
	)

	split := container.NewHSplit(w.panel.Container(), w.canvas.Container())
	split.Offset = 0.22

	content := container.NewBorder(toolbar, statusBar, nil, nil, split)
	w.window.SetContent(content)
}

func (w *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", func() { w.openImage() }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Project...", func() { w.openProjectDialog() }),
		fyne.NewMenuItem("Save Project", func() { w.saveProject(false) }),
		fyne.NewMenuItem("Save Project As...", func() { w.saveProject(true) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PDF...", func() { w.exportPDF() }),
	)

	measureMenu := fyne.NewMenu("Measure",
		fyne.NewMenuItem("Single Line", func() { w.setMode(canvas.ModeSingleLine) }),
		fyne.NewMenuItem("Parallel Lines", func() { w.setMode(canvas.ModeParallelLine) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Move Image", func() { w.setMode(canvas.ModeMoveImage) }),
		fyne.NewMenuItem("Pan", func() { w.setMode(canvas.ModePan) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Clear Measurements", func() { w.clearMeasurements() }),
	)

	pageMenu := fyne.NewMenu("Page",
		fyne.NewMenuItem("Page Setup...", func() { w.pageSetup() }),
	)

	autoFit := fyne.NewMenuItem("Auto Fit on Resize", nil)
	autoFit.Checked = w.prefs.Bool(prefs.KeyFitToWindow, false)
	autoFit.Action = func() {
		autoFit.Checked = !autoFit.Checked
		w.canvas.SetFitToWindow(autoFit.Checked)
		w.prefs.SetBool(prefs.KeyFitToWindow, autoFit.Checked)
	}
	w.canvas.SetFitToWindow(autoFit.Checked)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { w.canvas.ZoomIn() }),
		fyne.NewMenuItem("Zoom Out", func() { w.canvas.ZoomOut() }),
		fyne.NewMenuItem("Reset Zoom", func() { w.canvas.ResetZoom() }),
		fyne.NewMenuItem("Fit to Window", func() { w.canvas.FitToWindow() }),
		fyne.NewMenuItemSeparator(),
		autoFit,
	)

	w.window.SetMainMenu(fyne.NewMainMenu(fileMenu, measureMenu, pageMenu, viewMenu))
}

func (w *MainWindow) setupCallbacks() {
	w.canvas.OnZoomChange(func(zoom float64) {
		w.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})

	w.canvas.OnMeasurementDrawn(func(item *imaging.Item, first, second geometry.Segment, kind measure.Kind) {
		var (
			id  measure.ID
			err error
		)
		switch kind {
		case measure.ParallelLine:
			id, err = item.Engine().AddParallelLine(first, second)
		default:
			id, err = item.Engine().AddSingleLine(first.Start, first.End)
		}
		if err != nil {
			w.setStatus(err.Error())
			return
		}
		w.askLength(item, id, nil)
	})

	w.canvas.OnMeasurementTapped(func(item *imaging.Item, id measure.ID) {
		m, ok := item.Engine().Measurement(id)
		if !ok {
			return
		}
		w.askLength(item, id, m.RealLength)
	})

	w.panel.OnRemoveMeasurement(func(id measure.ID) {
		item, ok := w.state.SelectedItem()
		if !ok {
			return
		}
		item.Engine().Remove(id)
		w.state.SetModified(true)
		w.panel.Reload()
		w.canvas.Refresh()
	})

	w.state.On(app.EventCalibrationChanged, func(interface{}) {
		w.updateScaleLabel()
		w.canvas.Refresh()
	})
	w.state.On(app.EventSelectionChanged, func(interface{}) {
		w.updateScaleLabel()
		w.canvas.Refresh()
	})
	w.state.On(app.EventPaperChanged, func(interface{}) {
		w.canvas.SetZoom(w.canvas.Zoom()) // Recompute content size for the new page
		w.canvas.Refresh()
	})
	w.state.On(app.EventProjectLoaded, func(interface{}) {
		w.updateScaleLabel()
		w.canvas.Refresh()
		w.setStatus("Project loaded")
	})
}

// askLength opens the length dialog for a measurement. On confirm the
// measurement becomes the one that supplies the scale factor.
func (w *MainWindow) askLength(item *imaging.Item, id measure.ID, existing *units.Length) {
	defaultUnit, _ := units.Parse(w.prefs.String(prefs.KeyLastUnit, string(units.Millimeter)))

	dlg := dialogs.NewLengthDialog(w.window,
		func(magnitude float64, unit units.Unit) {
			if err := w.state.Calibrate(item, id, magnitude, unit); err != nil {
				dialog.ShowError(err, w.window)
				return
			}
			w.prefs.SetString(prefs.KeyLastUnit, string(unit))
			w.panel.Reload()
			w.canvas.Refresh()
		},
		func() {
			// An abandoned new measurement without a length stays visible
			// but does not contribute a scale factor.
			w.panel.Reload()
			w.canvas.Refresh()
		},
	)
	dlg.Show(existing, defaultUnit)
}

func (w *MainWindow) setMode(mode canvas.Mode) {
	w.canvas.SetMode(mode)
	switch mode {
	case canvas.ModeSingleLine:
		w.setStatus("Drag along a feature of known length")
	case canvas.ModeParallelLine:
		w.setStatus("Drag across two parallel edges")
	case canvas.ModeMoveImage:
		w.setStatus("Drag an image to reposition it on the page")
	default:
		w.setStatus("Ready")
	}
}

func (w *MainWindow) setStatus(text string) {
	w.statusLabel.SetText(text)
}

func (w *MainWindow) updateScaleLabel() {
	item, ok := w.state.SelectedItem()
	if !ok {
		w.scaleLabel.SetText("Not calibrated")
		return
	}
	if s, err := item.Engine().ScaleFactor(); err == nil {
		w.scaleLabel.SetText(fmt.Sprintf("%.6f mm/px", s))
	} else {
		w.scaleLabel.SetText("Not calibrated")
	}
}

func (w *MainWindow) openImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		if _, err := w.state.AddImage(path); err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.prefs.SetString(prefs.KeyLastImageDir, filepath.Dir(path))
		w.panel.Reload()
		w.canvas.Refresh()
		w.setStatus("Image loaded; draw a line of known length to calibrate")
	}, w.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".bmp"}))
	w.setDialogLocation(fd, prefs.KeyLastImageDir)
	fd.Show()
}

func (w *MainWindow) openProjectDialog() {
	w.confirmDiscard(func() {
		fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
			if err != nil || reader == nil {
				return
			}
			path := reader.URI().Path()
			reader.Close()
			w.prefs.SetString(prefs.KeyLastProjectDir, filepath.Dir(path))
			w.OpenProject(path)
		}, w.window)
		fd.SetFilter(storage.NewExtensionFileFilter([]string{".osproj"}))
		w.setDialogLocation(fd, prefs.KeyLastProjectDir)
		fd.Show()
	})
}

func (w *MainWindow) saveProject(saveAs bool) {
	if !saveAs && w.state.ProjectPath != "" {
		if err := w.state.SaveProject(w.state.ProjectPath); err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.setStatus("Project saved")
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		if err := w.state.SaveProject(path); err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.setStatus("Project saved")
	}, w.window)
	fd.SetFileName("untitled.osproj")
	fd.Show()
}

func (w *MainWindow) exportPDF() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		path := writer.URI().Path()
		writer.Close()

		if err := w.state.ExportPDF(path); err != nil {
			dialog.ShowError(err, w.window)
			return
		}
		w.setStatus("PDF exported: " + path)
	}, w.window)
	fd.SetFileName("sheet.pdf")
	fd.Show()
}

func (w *MainWindow) pageSetup() {
	dlg := dialogs.NewPageSetupDialog(w.state.Paper(), w.window, func(spec paper.Spec) {
		w.state.SetPaper(spec)
		w.savePaperPrefs(spec)
	})
	dlg.Show()
}

// applyPaperPrefs restores the last-used paper settings before the canvas is
// built, without marking the fresh project as modified.
func (w *MainWindow) applyPaperPrefs() {
	spec := w.state.Paper()

	name := w.prefs.String(prefs.KeyPaperSize, spec.Size.Name)
	if size, err := paper.Get(name); err == nil {
		spec.Size = size
	}
	if w.prefs.Bool(prefs.KeyPaperLandscape, false) {
		spec.Orientation = paper.Landscape
	}
	margin := w.prefs.Float(prefs.KeyMarginMm, spec.Margins.Left)
	spec.Margins = paper.UniformMargins(margin)

	if _, err := spec.PrintableArea(); err != nil {
		return
	}
	w.state.SetPaper(spec)
	w.state.SetModified(false)
}

func (w *MainWindow) savePaperPrefs(spec paper.Spec) {
	w.prefs.SetString(prefs.KeyPaperSize, spec.Size.Name)
	w.prefs.SetBool(prefs.KeyPaperLandscape, spec.Orientation == paper.Landscape)
	w.prefs.SetFloat(prefs.KeyMarginMm, spec.Margins.Left)
}

// setDialogLocation points a file dialog at the last-used directory.
func (w *MainWindow) setDialogLocation(fd *dialog.FileDialog, key string) {
	dir := w.prefs.String(key, "")
	if dir == "" {
		return
	}
	if lister, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
		fd.SetLocation(lister)
	}
}

func (w *MainWindow) clearMeasurements() {
	item, ok := w.state.SelectedItem()
	if !ok {
		return
	}
	dialog.ShowConfirm("Clear Measurements",
		"Remove all measurements and the scale factor for this image?",
		func(confirm bool) {
			if !confirm {
				return
			}
			item.Engine().Clear()
			item.Engine().Reset()
			w.state.SetModified(true)
			w.updateScaleLabel()
			w.panel.Reload()
			w.canvas.Refresh()
		}, w.window)
}

// confirmDiscard runs next immediately when the project has no unsaved
// changes, otherwise asks first.
func (w *MainWindow) confirmDiscard(next func()) {
	if !w.state.Modified {
		next()
		return
	}
	dialog.ShowConfirm("Unsaved Changes",
		"Discard unsaved changes?",
		func(confirm bool) {
			if confirm {
				next()
			}
		}, w.window)
}
