// Package panels provides the side panel listing sheet images and their
// measurements.
package panels

import (
	"fmt"
	"path/filepath"

	"openscaler/internal/app"
	"openscaler/internal/measure"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SidePanel shows the placed images and the selected image's measurements.
type SidePanel struct {
	state *app.State

	itemList    *widget.List
	measureList *widget.List
	scaleLabel  *widget.Label

	// Measurement IDs backing measureList rows, refreshed together.
	measureIDs      []measure.ID
	selectedMeasure int

	onRemoveMeasurement func(id measure.ID)
}

// NewSidePanel creates the side panel bound to the application state.
func NewSidePanel(state *app.State) *SidePanel {
	p := &SidePanel{state: state, selectedMeasure: -1}

	p.itemList = widget.NewList(
		func() int {
			return len(state.Items())
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("image")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			items := state.Items()
			if id >= len(items) {
				return
			}
			name := filepath.Base(items[id].Path)
			if name == "" || name == "." {
				name = fmt.Sprintf("image %d", id+1)
			}
			obj.(*widget.Label).SetText(name)
		},
	)
	p.itemList.OnSelected = func(id widget.ListItemID) {
		state.SelectItem(id)
	}

	p.measureList = widget.NewList(
		func() int {
			return len(p.measureIDs)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("measurement")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			obj.(*widget.Label).SetText(p.measureText(id))
		},
	)
	p.measureList.OnSelected = func(id widget.ListItemID) {
		p.selectedMeasure = id
	}
	p.measureList.OnUnselected = func(widget.ListItemID) {
		p.selectedMeasure = -1
	}

	p.scaleLabel = widget.NewLabel("Not calibrated")

	state.On(app.EventSelectionChanged, func(interface{}) {
		p.Reload()
	})
	state.On(app.EventCalibrationChanged, func(interface{}) {
		p.Reload()
	})
	state.On(app.EventImageAdded, func(interface{}) {
		p.Reload()
	})
	state.On(app.EventProjectLoaded, func(interface{}) {
		p.Reload()
	})

	return p
}

// OnRemoveMeasurement sets the callback for the remove button.
func (p *SidePanel) OnRemoveMeasurement(callback func(id measure.ID)) {
	p.onRemoveMeasurement = callback
}

// Container assembles the panel layout.
func (p *SidePanel) Container() fyne.CanvasObject {
	removeBtn := widget.NewButton("Remove Measurement", func() {
		if p.onRemoveMeasurement == nil {
			return
		}
		if p.selectedMeasure >= 0 && p.selectedMeasure < len(p.measureIDs) {
			p.onRemoveMeasurement(p.measureIDs[p.selectedMeasure])
		}
	})

	images := container.NewBorder(
		widget.NewLabel("Images"), nil, nil, nil, p.itemList)
	measurements := container.NewBorder(
		widget.NewLabel("Measurements"), removeBtn, nil, nil, p.measureList)

	split := container.NewVSplit(images, measurements)
	split.Offset = 0.35

	return container.NewBorder(nil, p.scaleLabel, nil, nil, split)
}

// Reload refreshes both lists and the scale readout from the state.
func (p *SidePanel) Reload() {
	p.measureIDs = p.measureIDs[:0]
	if item, ok := p.state.SelectedItem(); ok {
		for _, m := range item.Engine().Measurements() {
			p.measureIDs = append(p.measureIDs, m.ID)
		}
		if s, err := item.Engine().ScaleFactor(); err == nil {
			p.scaleLabel.SetText(fmt.Sprintf("Scale: %.6f mm/px", s))
		} else {
			p.scaleLabel.SetText("Not calibrated")
		}
	} else {
		p.scaleLabel.SetText("Not calibrated")
	}
	if p.selectedMeasure >= len(p.measureIDs) {
		p.selectedMeasure = -1
	}

	p.itemList.Refresh()
	p.measureList.Refresh()
}

// measureText formats one measurement row.
func (p *SidePanel) measureText(row int) string {
	item, ok := p.state.SelectedItem()
	if !ok || row >= len(p.measureIDs) {
		return ""
	}
	m, ok := item.Engine().Measurement(p.measureIDs[row])
	if !ok {
		return ""
	}

	text := fmt.Sprintf("#%d %s", m.ID, m.Kind)
	if m.RealLength != nil {
		text += fmt.Sprintf(" = %s", m.RealLength)
	}
	if active, ok := item.Engine().Active(); ok && active.ID == m.ID {
		text += " *"
	}
	return text
}
