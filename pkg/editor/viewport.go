package editor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
)

// ErrOutOfBounds is returned when a view point falls outside the image.
var ErrOutOfBounds = errors.New("point is outside the image")

// viewport maps view coordinates onto image pixels. With no size set, or in
// actual-size mode, one view unit is one pixel.
type viewport struct {
	width, height int
	actualSize    bool
}

// SetViewport sets the size the image is displayed at. The image is assumed
// to be stretched to fill it.
func (s *Session) SetViewport(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: viewport %dx%d", ErrInvalidDimensions, width, height)
	}
	s.view.width, s.view.height = width, height
	return nil
}

// SetActualSize toggles 1:1 display, which bypasses viewport scaling.
func (s *Session) SetActualSize(on bool) {
	s.view.actualSize = on
}

// ActualSize reports whether 1:1 display is on.
func (s *Session) ActualSize() bool { return s.view.actualSize }

func (s *Session) scale() (float64, float64) {
	if s.img == nil || s.view.actualSize || s.view.width == 0 || s.view.height == 0 {
		return 1, 1
	}
	b := s.img.Bounds()
	return float64(b.Dx()) / float64(s.view.width), float64(b.Dy()) / float64(s.view.height)
}

func (s *Session) viewToPixel(x, y float64) image.Point {
	sx, sy := s.scale()
	return image.Pt(int(math.Floor(x*sx)), int(math.Floor(y*sy)))
}

func (s *Session) viewToPixelRect(r image.Rectangle) image.Rectangle {
	return image.Rectangle{
		Min: s.viewToPixel(float64(r.Min.X), float64(r.Min.Y)),
		Max: s.viewToPixel(float64(r.Max.X), float64(r.Max.Y)),
	}
}

// Pixel is the color found under a view point.
type Pixel struct {
	X, Y  int
	Color color.NRGBA
}

// Hex returns the color as #RRGGBB.
func (p Pixel) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", p.Color.R, p.Color.G, p.Color.B)
}

func (p Pixel) String() string {
	return fmt.Sprintf("(%d, %d) RGB: (%d, %d, %d) %s", p.X, p.Y, p.Color.R, p.Color.G, p.Color.B, p.Hex())
}

// Inspect returns the pixel under the view point (x, y).
func (s *Session) Inspect(x, y float64) (Pixel, error) {
	if s.img == nil {
		return Pixel{}, ErrNoImage
	}
	p := s.viewToPixel(x, y)
	b := s.img.Bounds()
	if p.X < 0 || p.Y < 0 || p.X >= b.Dx() || p.Y >= b.Dy() {
		return Pixel{}, fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, p.X, p.Y)
	}
	c := color.NRGBAModel.Convert(s.img.At(b.Min.X+p.X, b.Min.Y+p.Y)).(color.NRGBA)
	return Pixel{X: p.X, Y: p.Y, Color: c}, nil
}
