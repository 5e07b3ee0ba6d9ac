package editor

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/imgedit/util/log"
	"github.com/muesli/smartcrop"
)

// ErrSelectionTooSmall is returned for crops narrower or shorter than the
// configured minimum.
var ErrSelectionTooSmall = errors.New("selection is too small")

// FlipHorizontal mirrors the image left to right.
func (s *Session) FlipHorizontal() error {
	return s.apply("flip horizontal", func(img image.Image) (image.Image, error) {
		return imaging.FlipH(img), nil
	})
}

// FlipVertical mirrors the image top to bottom.
func (s *Session) FlipVertical() error {
	return s.apply("flip vertical", func(img image.Image) (image.Image, error) {
		return imaging.FlipV(img), nil
	})
}

// RotateLeft rotates the image 90 degrees counter-clockwise.
func (s *Session) RotateLeft() error {
	return s.apply("rotate left", func(img image.Image) (image.Image, error) {
		return imaging.Rotate90(img), nil
	})
}

// RotateRight rotates the image 90 degrees clockwise.
func (s *Session) RotateRight() error {
	return s.apply("rotate right", func(img image.Image) (image.Image, error) {
		return imaging.Rotate270(img), nil
	})
}

// Resize scales the image to exactly width x height.
func (s *Session) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return s.apply("resize", func(img image.Image) (image.Image, error) {
		return s.opts.Resampler.Resample(img, width, height)
	})
}

// AspectHeight returns the height that keeps the current aspect ratio at the
// given width.
func (s *Session) AspectHeight(width int) (int, error) {
	w, h, err := s.Size()
	if err != nil {
		return 0, err
	}
	aspect := float64(w) / float64(h)
	return int(float64(width) / aspect), nil
}

// AspectWidth returns the width that keeps the current aspect ratio at the
// given height.
func (s *Session) AspectWidth(height int) (int, error) {
	w, h, err := s.Size()
	if err != nil {
		return 0, err
	}
	aspect := float64(w) / float64(h)
	return int(float64(height) * aspect), nil
}

// Crop keeps the part of the image inside r, given in pixel coordinates
// relative to the top-left corner. r is clipped to the image first.
func (s *Session) Crop(r image.Rectangle) error {
	if s.img == nil {
		return ErrNoImage
	}
	b := s.img.Bounds()
	r = r.Canon().Add(b.Min).Intersect(b)
	if r.Dx() < s.opts.MinCropSize || r.Dy() < s.opts.MinCropSize {
		return fmt.Errorf("%w: %dx%d, need at least %dx%d", ErrSelectionTooSmall,
			r.Dx(), r.Dy(), s.opts.MinCropSize, s.opts.MinCropSize)
	}
	return s.apply("crop", func(img image.Image) (image.Image, error) {
		return imaging.Crop(img, r), nil
	})
}

// SmartCrop crops to the most interesting region with the aspect ratio
// width:height, as found by content analysis. With a face detector configured
// the window is centred on the detected faces instead, if there are any.
// The image is not scaled.
func (s *Session) SmartCrop(width, height int) error {
	if s.img == nil {
		return ErrNoImage
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	if s.opts.Faces != nil {
		if faces := s.opts.Faces.Detect(s.img); len(faces) > 0 {
			log.Debugf("Smart crop around %d faces", len(faces))
			return s.Crop(faceWindow(s.img.Bounds(), faces, width, height).Sub(s.img.Bounds().Min))
		}
	}

	analyzer := smartcrop.NewAnalyzer(&resizer{resampler: imaging.CatmullRom})
	best, err := analyzer.FindBestCrop(s.img, width, height)
	if err != nil {
		return fmt.Errorf("finding best crop: %w", err)
	}
	return s.Crop(best.Sub(s.img.Bounds().Min))
}

// faceWindow returns the largest width:height rectangle inside bounds,
// centred on the union of faces and shifted back inside bounds.
func faceWindow(bounds image.Rectangle, faces []image.Rectangle, width, height int) image.Rectangle {
	scale := min(float64(bounds.Dx())/float64(width), float64(bounds.Dy())/float64(height))
	w := int(float64(width) * scale)
	h := int(float64(height) * scale)

	var union image.Rectangle
	for _, f := range faces {
		union = union.Union(f)
	}
	cx := (union.Min.X + union.Max.X) / 2
	cy := (union.Min.Y + union.Max.Y) / 2

	x := min(max(cx-w/2, bounds.Min.X), bounds.Max.X-w)
	y := min(max(cy-h/2, bounds.Min.Y), bounds.Max.Y-h)
	return image.Rect(x, y, x+w, y+h)
}

// resizer implements the smartcrop.Resizer interface.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}
