// Package editor holds the state of one image editing session and the
// operations that act on it.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/dixieflatline76/imgedit/config"
	"github.com/dixieflatline76/imgedit/pkg/face"
	"github.com/dixieflatline76/imgedit/pkg/history"
	"github.com/dixieflatline76/imgedit/pkg/ico"
	"github.com/dixieflatline76/imgedit/pkg/imageio"
	"github.com/dixieflatline76/imgedit/pkg/resample"
	"github.com/dixieflatline76/imgedit/util/log"
)

var (
	ErrNoImage           = errors.New("no image loaded")
	ErrNoPath            = errors.New("image has no file path")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrInvalidDimensions = errors.New("invalid dimensions")
)

// ClipboardReader supplies encoded image bytes from a clipboard.
type ClipboardReader interface {
	ReadImage() ([]byte, error)
}

// FaceDetector finds faces for SmartCrop.
type FaceDetector interface {
	Detect(img image.Image) []image.Rectangle
}

// Options configures a Session.
type Options struct {
	UndoDepth   int
	MinCropSize int
	Resampler   resample.Resampler
	Faces       FaceDetector // optional
	Save        imageio.Options
}

// OptionsFromConfig derives session options from the user configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	r, err := resample.ByName(cfg.Resampler)
	if err != nil {
		return Options{}, err
	}

	icoOpts := []ico.Option{ico.WithResampler(r)}
	if cfg.Workers > 0 {
		icoOpts = append(icoOpts, ico.WithConcurrency(cfg.Workers))
	}

	opts := Options{
		UndoDepth:   cfg.UndoDepth,
		MinCropSize: cfg.MinCropSize,
		Resampler:   r,
		Save: imageio.Options{
			JPEGQuality:  cfg.JPEGQuality,
			WebPQuality:  cfg.WebPQuality,
			WebPLossless: cfg.WebPLossless,
			IconSizes:    cfg.IconSizes,
			Icon:         ico.NewBuilder(icoOpts...),
		},
	}
	if cfg.FaceModel != "" {
		detector, err := face.Load(cfg.FaceModel)
		if err != nil {
			return Options{}, err
		}
		opts.Faces = detector
	}
	return opts, nil
}

// snapshot is one undo step. The source file is kept with the pixels so
// undoing a paste restores the path it cleared.
type snapshot struct {
	img    image.Image
	path   string
	format imageio.Format
}

// Session is the editing state: the current image, where it came from, the
// undo history, crop mode and the view used to map pointer coordinates.
// A Session is not safe for concurrent use.
type Session struct {
	img     image.Image
	path    string
	format  imageio.Format
	history *history.Stack[snapshot]
	crop    cropState
	view    viewport
	opts    Options
}

// NewSession creates an empty session.
func NewSession(opts Options) *Session {
	if opts.UndoDepth < 1 {
		opts.UndoDepth = config.DefaultUndoDepth
	}
	if opts.MinCropSize < 1 {
		opts.MinCropSize = config.DefaultMinCropSize
	}
	if opts.Resampler == nil {
		opts.Resampler = resample.CatmullRom
	}
	if opts.Save.JPEGQuality == 0 {
		opts.Save = imageio.DefaultOptions()
	}
	return &Session{
		history: history.New[snapshot](opts.UndoDepth),
		opts:    opts,
	}
}

// Image returns the current image, nil if none is loaded.
func (s *Session) Image() image.Image { return s.img }

// Path returns the file the current image was loaded from, if any.
func (s *Session) Path() string { return s.path }

// Format returns the format the current image was decoded from.
func (s *Session) Format() imageio.Format { return s.format }

// CanUndo reports whether Undo has a snapshot to restore.
func (s *Session) CanUndo() bool { return s.history.Len() > 0 }

// UndoDepth returns the number of stored snapshots.
func (s *Session) UndoDepth() int { return s.history.Len() }

// Size returns the dimensions of the current image.
func (s *Session) Size() (int, int, error) {
	if s.img == nil {
		return 0, 0, ErrNoImage
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Open loads path as the current image, discarding history and crop mode.
func (s *Session) Open(path string) error {
	img, format, err := imageio.Load(path)
	if err != nil {
		return err
	}
	s.replace(img, path, format)
	log.Printf("Opened %s (%dx%d)", path, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

// Reload reopens the file the current image came from.
func (s *Session) Reload() error {
	if s.path == "" {
		return ErrNoPath
	}
	return s.Open(s.path)
}

// Paste replaces the current image with the clipboard image. The previous
// image, if any, can be restored with Undo.
func (s *Session) Paste(cb ClipboardReader) error {
	data, err := cb.ReadImage()
	if err != nil {
		return fmt.Errorf("reading clipboard: %w", err)
	}
	img, format, err := imageio.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("pasting image: %w", err)
	}

	if s.img != nil {
		s.history.Push(s.snapshot())
	}
	s.img = img
	s.path = ""
	s.format = format
	s.CancelCrop()
	log.Printf("Pasted %dx%d image from clipboard", img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

// Save writes the current image to path; the extension picks the format.
// An empty path saves over the file the image was opened from.
func (s *Session) Save(ctx context.Context, path string) error {
	if s.img == nil {
		return ErrNoImage
	}
	if path == "" {
		if s.path == "" {
			return ErrNoPath
		}
		path = s.path
	}
	return imageio.Save(ctx, path, s.img, s.opts.Save)
}

// ExportIcon writes the current image as an icon with the given frame sizes,
// falling back to the configured sizes when sizes is empty.
func (s *Session) ExportIcon(ctx context.Context, path string, sizes []int) error {
	if s.img == nil {
		return ErrNoImage
	}
	opts := s.opts.Save
	if len(sizes) > 0 {
		opts.IconSizes = sizes
	}
	if format, err := imageio.FormatFromPath(path); err != nil || format != imageio.FormatICO {
		path += ".ico"
	}
	return imageio.Save(ctx, path, s.img, opts)
}

// Undo restores the most recent snapshot.
func (s *Session) Undo() error {
	prev, ok := s.history.Pop()
	if !ok {
		return ErrNothingToUndo
	}
	s.img = prev.img
	s.path = prev.path
	s.format = prev.format
	s.CancelCrop()
	log.Debugf("Undo, %d snapshots left", s.history.Len())
	return nil
}

func (s *Session) snapshot() snapshot {
	return snapshot{img: s.img, path: s.path, format: s.format}
}

func (s *Session) replace(img image.Image, path string, format imageio.Format) {
	s.img = img
	s.path = path
	s.format = format
	s.history.Clear()
	s.CancelCrop()
}

// apply runs an image transform and records the previous image for Undo.
// Transforms never modify their input, so snapshots are shared, not copied.
func (s *Session) apply(name string, fn func(image.Image) (image.Image, error)) error {
	if s.img == nil {
		return ErrNoImage
	}
	out, err := fn(s.img)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if s.history.Push(s.snapshot()) {
		log.Debugf("Undo history full, dropped oldest snapshot")
	}
	s.img = out
	log.Debugf("%s -> %dx%d", name, out.Bounds().Dx(), out.Bounds().Dy())
	return nil
}
