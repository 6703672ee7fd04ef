// Package app provides application lifecycle management, state, and events.
package app

import (
	"fmt"
	"sync"

	"openscaler/internal/export"
	"openscaler/internal/imaging"
	"openscaler/internal/layout"
	"openscaler/internal/measure"
	"openscaler/internal/paper"
	"openscaler/internal/project"
	"openscaler/internal/units"
)

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventImageAdded
	EventCalibrationChanged
	EventPaperChanged
	EventSelectionChanged
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// State holds the application state: the sheet items, the paper spec, and
// the layout planner. All mutation goes through State so Fyne callbacks
// never race on the unsynchronized calibration engines.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool

	paper    paper.Spec
	items    []*imaging.Item
	selected int
	planner  *layout.Planner

	listeners map[EventType][]EventListener
}

// NewState creates a new application state with the default paper spec.
func NewState() *State {
	return &State{
		paper:     paper.Default(),
		selected:  -1,
		planner:   layout.NewPlanner(),
		listeners: make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// Paper returns the current paper spec.
func (s *State) Paper() paper.Spec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paper
}

// SetPaper changes the paper spec, refits every uncalibrated item to the new
// page, and emits EventPaperChanged.
func (s *State) SetPaper(spec paper.Spec) {
	s.mu.Lock()
	s.paper = spec
	for _, it := range s.items {
		if !it.Calibrated() {
			it.FitWithin(spec)
		}
	}
	s.mu.Unlock()

	s.Emit(EventPaperChanged, spec)
	s.SetModified(true)
}

// Planner returns the layout planner for configuration (clip/tile policy).
func (s *State) Planner() *layout.Planner {
	return s.planner
}

// AddImage imports an image file onto the sheet and selects it.
func (s *State) AddImage(path string) (*imaging.Item, error) {
	item, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	item.FitWithin(s.paper)
	s.items = append(s.items, item)
	s.selected = len(s.items) - 1
	s.mu.Unlock()

	s.Emit(EventImageAdded, item)
	s.SetModified(true)
	return item, nil
}

// Items returns the sheet items in placement order.
func (s *State) Items() []*imaging.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*imaging.Item, len(s.items))
	copy(out, s.items)
	return out
}

// SelectedItem returns the currently selected item.
func (s *State) SelectedItem() (*imaging.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected < 0 || s.selected >= len(s.items) {
		return nil, false
	}
	return s.items[s.selected], true
}

// SelectItem changes the selected item and emits EventSelectionChanged.
func (s *State) SelectItem(index int) {
	s.mu.Lock()
	if index < -1 || index >= len(s.items) {
		s.mu.Unlock()
		return
	}
	s.selected = index
	s.mu.Unlock()
	s.Emit(EventSelectionChanged, index)
}

// SelectedIndex returns the index of the selected item, -1 for none.
func (s *State) SelectedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Calibrate assigns a real length to one of an item's measurements,
// re-establishing the item's scale factor.
func (s *State) Calibrate(item *imaging.Item, id measure.ID, magnitude float64, unit units.Unit) error {
	s.mu.Lock()
	err := item.Engine().SetRealLength(id, magnitude, unit)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.Emit(EventCalibrationChanged, item)
	s.SetModified(true)
	return nil
}

// Placement computes the current placement of an item. Never cached; the
// result reflects the scale factor at the time of the call.
func (s *State) Placement(item *imaging.Item, anchor layout.Anchor) (layout.Placement, error) {
	s.mu.RLock()
	spec := s.paper
	s.mu.RUnlock()

	img, err := item.CalibratedImage()
	if err != nil {
		return layout.Placement{}, err
	}
	return s.planner.Placement(img, spec, anchor)
}

// LoadProject loads a project file and restores the sheet.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}
	items, err := proj.Restore(proj.Paper)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.paper = proj.Paper
	s.items = items
	s.selected = -1
	if len(items) > 0 {
		s.selected = 0
	}
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject snapshots the sheet into a project file.
func (s *State) SaveProject(path string) error {
	s.mu.RLock()
	proj := project.New("", s.paper)
	proj.Snapshot(s.items)
	s.mu.RUnlock()

	if err := proj.Save(path); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}

// ExportPDF writes the current sheet as a PDF at true physical size.
func (s *State) ExportPDF(path string) error {
	s.mu.RLock()
	spec := s.paper
	items := make([]*imaging.Item, len(s.items))
	copy(items, s.items)
	s.mu.RUnlock()

	if len(items) == 0 {
		return fmt.Errorf("app: nothing to export")
	}

	doc := export.NewDocument(spec)
	doc.AddSheet(items, spec)
	return doc.WriteFile(path)
}
