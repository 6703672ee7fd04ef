// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"strconv"

	"openscaler/internal/units"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// LengthDialog asks for the real-world length of a drawn measurement.
type LengthDialog struct {
	window fyne.Window

	valueEntry *widget.Entry
	unitSelect *widget.Select

	onConfirm func(magnitude float64, unit units.Unit)
	onCancel  func()
}

// NewLengthDialog creates a length input dialog. The confirm callback
// receives a positive magnitude and a valid unit.
func NewLengthDialog(window fyne.Window, onConfirm func(magnitude float64, unit units.Unit), onCancel func()) *LengthDialog {
	return &LengthDialog{
		window:    window,
		onConfirm: onConfirm,
		onCancel:  onCancel,
	}
}

// Show displays the dialog, prefilled with an existing length when the
// measurement already has one.
func (d *LengthDialog) Show(existing *units.Length, defaultUnit units.Unit) {
	d.valueEntry = widget.NewEntry()
	d.valueEntry.SetPlaceHolder("e.g. 50")

	unitNames := []string{
		string(units.Millimeter),
		string(units.Centimeter),
		string(units.Inch),
	}
	d.unitSelect = widget.NewSelect(unitNames, nil)

	if existing != nil {
		d.valueEntry.SetText(strconv.FormatFloat(existing.Magnitude, 'f', -1, 64))
		d.unitSelect.SetSelected(string(existing.Unit))
	} else if defaultUnit.Valid() {
		d.unitSelect.SetSelected(string(defaultUnit))
	} else {
		d.unitSelect.SetSelected(string(units.Millimeter))
	}

	form := widget.NewForm(
		widget.NewFormItem("Length", d.valueEntry),
		widget.NewFormItem("Unit", d.unitSelect),
	)

	dlg := dialog.NewCustomConfirm(
		"Real Length",
		"Apply",
		"Cancel",
		form,
		func(apply bool) {
			if !apply {
				if d.onCancel != nil {
					d.onCancel()
				}
				return
			}
			d.apply()
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(300, 180))
	dlg.Show()

	d.window.Canvas().Focus(d.valueEntry)
}

func (d *LengthDialog) apply() {
	magnitude, err := strconv.ParseFloat(d.valueEntry.Text, 64)
	if err != nil || magnitude <= 0 {
		dialog.ShowError(fmt.Errorf("length must be a positive number"), d.window)
		if d.onCancel != nil {
			d.onCancel()
		}
		return
	}

	unit, err := units.Parse(d.unitSelect.Selected)
	if err != nil {
		dialog.ShowError(err, d.window)
		if d.onCancel != nil {
			d.onCancel()
		}
		return
	}

	if d.onConfirm != nil {
		d.onConfirm(magnitude, unit)
	}
}
