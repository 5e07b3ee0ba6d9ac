// Package imageio loads and saves images, choosing the codec from the file
// extension on save and from the content on load.
package imageio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/imgedit/pkg/ico"
	"github.com/dixieflatline76/imgedit/util/log"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Format names an image file format.
type Format string

// Supported formats. The values match the names image.Decode reports.
const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatGIF  Format = "gif"
	FormatTIFF Format = "tiff"
	FormatBMP  Format = "bmp"
	FormatWebP Format = "webp"
	FormatICO  Format = "ico"
)

// ErrUnsupportedFormat is returned for file extensions with no encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var extensions = map[string]Format{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".webp": FormatWebP,
	".ico":  FormatICO,
}

var imagingFormats = map[Format]imaging.Format{
	FormatPNG:  imaging.PNG,
	FormatJPEG: imaging.JPEG,
	FormatGIF:  imaging.GIF,
	FormatTIFF: imaging.TIFF,
	FormatBMP:  imaging.BMP,
}

// FormatFromPath picks the format for path by its extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Options controls encoding.
type Options struct {
	JPEGQuality  int
	WebPQuality  float32
	WebPLossless bool
	IconSizes    []int
	Icon         *ico.Builder // nil uses ico.NewBuilder()
}

// DefaultOptions returns the encoder settings used when none are configured.
func DefaultOptions() Options {
	return Options{
		JPEGQuality: 95,
		WebPQuality: 90,
		IconSizes:   slices.Clone(ico.DefaultSizes),
	}
}

// Load opens and decodes the image at path.
func Load(path string) (image.Image, Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}
	img, format, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	log.Debugf("Loaded %s (%s, %dx%d)", path, format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, format, nil
}

// Decode decodes any registered format, applying EXIF orientation.
func Decode(r io.Reader) (image.Image, Format, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("reading image: %w", err)
	}

	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("decoding image: empty %dx%d image", b.Dx(), b.Dy())
	}
	return img, Format(name), nil
}

// Encode writes img to w in the given format.
func Encode(ctx context.Context, w io.Writer, img image.Image, format Format, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var err error
	switch format {
	case FormatPNG, FormatJPEG, FormatGIF, FormatTIFF, FormatBMP:
		err = imaging.Encode(w, img, imagingFormats[format],
			imaging.JPEGQuality(opts.JPEGQuality),
			imaging.PNGCompressionLevel(png.BestCompression))
	case FormatWebP:
		err = webp.Encode(w, img, &webp.Options{Lossless: opts.WebPLossless, Quality: opts.WebPQuality})
	case FormatICO:
		builder := opts.Icon
		if builder == nil {
			builder = ico.NewBuilder()
		}
		sizes := opts.IconSizes
		if len(sizes) == 0 {
			sizes = ico.DefaultSizes
		}
		err = builder.Build(ctx, img, sizes, w)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return nil
}

const defaultFileMode = 0644

// Save encodes img into path using the format implied by its extension.
// The image is written to a temporary file in the same directory which is
// renamed over path only once encoding succeeded, so path never holds a
// partial file.
func Save(ctx context.Context, path string, img image.Image, opts Options) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := Encode(ctx, tmp, img, format, opts); err != nil {
		return err
	}
	// CreateTemp uses 0600; keep the mode of a replaced file instead.
	mode := os.FileMode(defaultFileMode)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		return fmt.Errorf("setting mode of temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	committed = true

	log.Printf("Saved %s (%s)", path, format)
	return nil
}
