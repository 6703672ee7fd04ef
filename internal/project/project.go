// Package project provides project file handling and persistence.
//
// A project file (.osproj) round-trips everything needed to reconstruct the
// calibration state exactly: image references, all measurements with their
// raw points, which measurement is active, its real length as originally
// entered, and the paper spec. Placement geometry is never persisted; it is
// recomputed from this state.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"openscaler/internal/imaging"
	"openscaler/internal/measure"
	"openscaler/internal/paper"
	"openscaler/pkg/geometry"
)

// FormatVersion is the current project file format version.
const FormatVersion = 1

// File represents an OpenScaler project file.
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name,omitempty"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	Paper paper.Spec  `json:"paper"`
	Items []ItemState `json:"items"`
}

// ItemState is the persisted state of one sheet item.
type ItemState struct {
	ImagePath    string           `json:"image"`
	WidthPx      int              `json:"width_px"`
	HeightPx     int              `json:"height_px"`
	OffsetRatios geometry.Point2D `json:"offset_ratios"`

	// Measurements in insertion order; Active indexes into this slice
	// (-1 when no measurement supplies the scale factor).
	Measurements []measure.Measurement `json:"measurements"`
	Active       int                   `json:"active"`
}

// New creates an empty project with the given paper spec.
func New(name string, spec paper.Spec) *File {
	now := time.Now()
	return &File{
		Version:  FormatVersion,
		Name:     name,
		Created:  now,
		Modified: now,
		Paper:    spec,
	}
}

// Snapshot captures the current state of the sheet items.
func (f *File) Snapshot(items []*imaging.Item) {
	f.Items = f.Items[:0]
	for _, it := range items {
		state := ItemState{
			ImagePath:    it.Path,
			WidthPx:      it.Width(),
			HeightPx:     it.Height(),
			OffsetRatios: it.OffsetRatios,
			Active:       -1,
		}
		active, hasActive := it.Engine().Active()
		for i, m := range it.Engine().Measurements() {
			state.Measurements = append(state.Measurements, *m)
			if hasActive && m.ID == active.ID {
				state.Active = i
			}
		}
		f.Items = append(f.Items, state)
	}
}

// Restore rebuilds the sheet items, decoding each referenced image and
// replaying the measurements so the active one supplies the scale factor
// again.
func (f *File) Restore(spec paper.Spec) ([]*imaging.Item, error) {
	items := make([]*imaging.Item, 0, len(f.Items))
	for _, state := range f.Items {
		it, err := imaging.Load(state.ImagePath)
		if err != nil {
			return nil, fmt.Errorf("project: restoring %q: %w", state.ImagePath, err)
		}
		it.OffsetRatios = state.OffsetRatios
		it.FitWithin(spec)
		if err := replayMeasurements(it.Engine(), state); err != nil {
			return nil, fmt.Errorf("project: restoring %q: %w", state.ImagePath, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// replayMeasurements re-adds the persisted measurements. Lengths are applied
// in order with the active measurement last, so last-write-wins leaves the
// same measurement supplying the scale factor.
func replayMeasurements(eng *measure.Engine, state ItemState) error {
	ids := make([]measure.ID, len(state.Measurements))
	for i, m := range state.Measurements {
		var (
			id  measure.ID
			err error
		)
		switch m.Kind {
		case measure.ParallelLine:
			id, err = eng.AddParallelLine(m.First, m.Second)
		default:
			id, err = eng.AddSingleLine(m.First.Start, m.First.End)
		}
		if err != nil {
			return err
		}
		ids[i] = id
	}

	for i, m := range state.Measurements {
		if i == state.Active || m.RealLength == nil {
			continue
		}
		if err := eng.SetRealLength(ids[i], m.RealLength.Magnitude, m.RealLength.Unit); err != nil {
			return err
		}
	}
	if state.Active >= 0 && state.Active < len(state.Measurements) {
		m := state.Measurements[state.Active]
		if m.RealLength != nil {
			if err := eng.SetRealLength(ids[state.Active], m.RealLength.Magnitude, m.RealLength.Unit); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load loads a project from an .osproj file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}
	if proj.Version > FormatVersion {
		return nil, fmt.Errorf("project: unsupported format version %d", proj.Version)
	}
	return &proj, nil
}

// Save saves the project to a file.
func (f *File) Save(path string) error {
	f.Modified = time.Now()

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
