package dialogs

import (
	"fmt"
	"strconv"

	"openscaler/internal/paper"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// PageSetupDialog edits the paper spec: size, orientation, and margins.
type PageSetupDialog struct {
	spec   paper.Spec
	window fyne.Window

	sizeSelect   *widget.Select
	orientSelect *widget.Select

	customWidth  *widget.Entry
	customHeight *widget.Entry

	marginLeft   *widget.Entry
	marginTop    *widget.Entry
	marginRight  *widget.Entry
	marginBottom *widget.Entry

	onApply func(paper.Spec)
}

const customSizeName = "Custom"

// NewPageSetupDialog creates a page setup dialog seeded with the current spec.
func NewPageSetupDialog(spec paper.Spec, window fyne.Window, onApply func(paper.Spec)) *PageSetupDialog {
	return &PageSetupDialog{
		spec:    spec,
		window:  window,
		onApply: onApply,
	}
}

// Show displays the dialog.
func (d *PageSetupDialog) Show() {
	sizes := append(paper.List(), customSizeName)
	d.sizeSelect = widget.NewSelect(sizes, func(name string) {
		d.updateCustomEntries(name)
	})

	d.customWidth = widget.NewEntry()
	d.customWidth.SetText(fmt.Sprintf("%g", d.spec.Size.WidthMm))
	d.customHeight = widget.NewEntry()
	d.customHeight.SetText(fmt.Sprintf("%g", d.spec.Size.HeightMm))

	d.orientSelect = widget.NewSelect(
		[]string{string(paper.Portrait), string(paper.Landscape)}, nil)
	d.orientSelect.SetSelected(string(d.spec.Orientation))

	d.marginLeft = widget.NewEntry()
	d.marginLeft.SetText(fmt.Sprintf("%g", d.spec.Margins.Left))
	d.marginTop = widget.NewEntry()
	d.marginTop.SetText(fmt.Sprintf("%g", d.spec.Margins.Top))
	d.marginRight = widget.NewEntry()
	d.marginRight.SetText(fmt.Sprintf("%g", d.spec.Margins.Right))
	d.marginBottom = widget.NewEntry()
	d.marginBottom.SetText(fmt.Sprintf("%g", d.spec.Margins.Bottom))

	// Select the current size last so the custom entries get their state.
	if _, err := paper.Get(d.spec.Size.Name); err == nil {
		d.sizeSelect.SetSelected(d.spec.Size.Name)
	} else {
		d.sizeSelect.SetSelected(customSizeName)
	}

	pageForm := widget.NewForm(
		widget.NewFormItem("Size", d.sizeSelect),
		widget.NewFormItem("Width (mm)", d.customWidth),
		widget.NewFormItem("Height (mm)", d.customHeight),
		widget.NewFormItem("Orientation", d.orientSelect),
	)
	marginForm := widget.NewForm(
		widget.NewFormItem("Left (mm)", d.marginLeft),
		widget.NewFormItem("Top (mm)", d.marginTop),
		widget.NewFormItem("Right (mm)", d.marginRight),
		widget.NewFormItem("Bottom (mm)", d.marginBottom),
	)

	content := container.NewVBox(
		widget.NewCard("Paper", "", pageForm),
		widget.NewCard("Margins", "", marginForm),
	)

	dlg := dialog.NewCustomConfirm(
		"Page Setup",
		"Apply",
		"Cancel",
		content,
		func(apply bool) {
			if apply {
				d.apply()
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(380, 420))
	dlg.Show()
}

// updateCustomEntries enables the dimension entries only for custom sizes,
// otherwise shows the registered dimensions read-only.
func (d *PageSetupDialog) updateCustomEntries(name string) {
	if name == customSizeName {
		d.customWidth.Enable()
		d.customHeight.Enable()
		return
	}
	size, err := paper.Get(name)
	if err != nil {
		return
	}
	d.customWidth.SetText(fmt.Sprintf("%g", size.WidthMm))
	d.customHeight.SetText(fmt.Sprintf("%g", size.HeightMm))
	d.customWidth.Disable()
	d.customHeight.Disable()
}

func (d *PageSetupDialog) apply() {
	spec := d.spec

	if d.sizeSelect.Selected == customSizeName {
		w, errW := strconv.ParseFloat(d.customWidth.Text, 64)
		h, errH := strconv.ParseFloat(d.customHeight.Text, 64)
		if errW != nil || errH != nil || w <= 0 || h <= 0 {
			dialog.ShowError(fmt.Errorf("custom size needs positive dimensions"), d.window)
			return
		}
		spec.Size = paper.Custom(w, h)
	} else {
		size, err := paper.Get(d.sizeSelect.Selected)
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		spec.Size = size
	}

	spec.Orientation = paper.Orientation(d.orientSelect.Selected)

	margins := [4]*widget.Entry{d.marginLeft, d.marginTop, d.marginRight, d.marginBottom}
	values := [4]float64{}
	for i, entry := range margins {
		v, err := strconv.ParseFloat(entry.Text, 64)
		if err != nil || v < 0 {
			dialog.ShowError(fmt.Errorf("margins must be non-negative numbers"), d.window)
			return
		}
		values[i] = v
	}
	spec.Margins = paper.Margins{
		Left: values[0], Top: values[1], Right: values[2], Bottom: values[3],
	}

	// Reject margins that consume the whole page before applying.
	if _, err := spec.PrintableArea(); err != nil {
		dialog.ShowError(err, d.window)
		return
	}

	if d.onApply != nil {
		d.onApply(spec)
	}
}
