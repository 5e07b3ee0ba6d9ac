// Package resample provides named high quality scaling filters backed by the
// imaging, x/image/draw and nfnt/resize libraries.
package resample

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// Resampler scales an image to exactly width x height pixels.
type Resampler interface {
	Resample(src image.Image, width, height int) (image.Image, error)
}

// Filters available by name.
var (
	CatmullRom Resampler = imagingFilter{filter: imaging.CatmullRom}
	Lanczos    Resampler = imagingFilter{filter: imaging.Lanczos}
	XDraw      Resampler = xdrawFilter{kernel: draw.CatmullRom}
	Bicubic    Resampler = nfntFilter{interp: resize.Bicubic}
)

// DefaultName is the filter used when none is configured.
const DefaultName = "catmullrom"

var byName = map[string]Resampler{
	"catmullrom": CatmullRom,
	"lanczos":    Lanczos,
	"xdraw":      XDraw,
	"bicubic":    Bicubic,
}

// ByName looks up a filter. An empty name selects the default.
func ByName(name string) (Resampler, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}
	r, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown resampler %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return r, nil
}

// Names lists the registered filter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkTarget(src image.Image, width, height int) error {
	if src == nil {
		return fmt.Errorf("nil source image")
	}
	if b := src.Bounds(); b.Empty() {
		return fmt.Errorf("empty source image")
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}
	return nil
}

// imagingFilter resamples with disintegration/imaging.
type imagingFilter struct {
	filter imaging.ResampleFilter
}

func (f imagingFilter) Resample(src image.Image, width, height int) (image.Image, error) {
	if err := checkTarget(src, width, height); err != nil {
		return nil, err
	}
	return imaging.Resize(src, width, height, f.filter), nil
}

// xdrawFilter resamples with a golang.org/x/image/draw kernel.
type xdrawFilter struct {
	kernel *draw.Kernel
}

func (f xdrawFilter) Resample(src image.Image, width, height int) (image.Image, error) {
	if err := checkTarget(src, width, height); err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	f.kernel.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// nfntFilter resamples with nfnt/resize.
type nfntFilter struct {
	interp resize.InterpolationFunction
}

func (f nfntFilter) Resample(src image.Image, width, height int) (image.Image, error) {
	if err := checkTarget(src, width, height); err != nil {
		return nil, err
	}
	return resize.Resize(uint(width), uint(height), src, f.interp), nil
}
