package editor

import (
	"errors"
	"image"
)

var (
	ErrNotCropping = errors.New("crop mode is not active")
	ErrNoSelection = errors.New("no area selected")
)

// cropState tracks interactive crop mode. The selection is kept in view
// coordinates and only mapped to pixels when applied.
type cropState struct {
	active    bool
	dragging  bool
	anchor    image.Point
	selection image.Rectangle
}

// Cropping reports whether crop mode is on.
func (s *Session) Cropping() bool { return s.crop.active }

// Dragging reports whether a selection drag is in progress.
func (s *Session) Dragging() bool { return s.crop.dragging }

// BeginCrop turns crop mode on with an empty selection.
func (s *Session) BeginCrop() error {
	if s.img == nil {
		return ErrNoImage
	}
	s.crop = cropState{active: true}
	return nil
}

// CancelCrop leaves crop mode without changing the image.
func (s *Session) CancelCrop() {
	s.crop = cropState{}
}

// PressAt starts dragging a new selection from p.
func (s *Session) PressAt(p image.Point) error {
	if !s.crop.active {
		return ErrNotCropping
	}
	s.crop.dragging = true
	s.crop.anchor = p
	s.crop.selection = image.Rectangle{Min: p, Max: p}
	return nil
}

// DragTo extends the selection to p. It is ignored unless a drag is in
// progress.
func (s *Session) DragTo(p image.Point) {
	if !s.crop.dragging {
		return
	}
	s.crop.selection = image.Rectangle{Min: s.crop.anchor, Max: p}.Canon()
}

// Release ends the current drag, keeping the selection.
func (s *Session) Release() {
	s.crop.dragging = false
}

// Selection returns the current selection in view coordinates.
func (s *Session) Selection() image.Rectangle {
	return s.crop.selection
}

// ApplyCrop crops the image to the current selection and leaves crop mode.
// A selection below the minimum size is cleared and crop mode stays on so
// another area can be picked.
func (s *Session) ApplyCrop() error {
	if !s.crop.active {
		return ErrNotCropping
	}
	if s.crop.selection.Empty() {
		return ErrNoSelection
	}

	r := s.viewToPixelRect(s.crop.selection)
	if err := s.Crop(r); err != nil {
		if errors.Is(err, ErrSelectionTooSmall) {
			s.crop.selection = image.Rectangle{}
			s.crop.dragging = false
			return err
		}
		s.CancelCrop()
		return err
	}
	s.CancelCrop()
	return nil
}
