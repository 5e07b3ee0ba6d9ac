package ico

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"runtime"

	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/imgedit/pkg/resample"
	"golang.org/x/sync/errgroup"
)

// Resampler scales an image to exactly width x height pixels.
type Resampler interface {
	Resample(src image.Image, width, height int) (image.Image, error)
}

// Encoder compresses a single frame.
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(w io.Writer, img image.Image) error

// Encode calls f(w, img).
func (f EncoderFunc) Encode(w io.Writer, img image.Image) error {
	return f(w, img)
}

var pngCodec = &png.Encoder{CompressionLevel: png.BestCompression}

// pngEncoder is the default frame encoder. Frames are always written as
// 8-bit RGBA (PNG color type 6), even when the image is fully opaque.
var pngEncoder = EncoderFunc(func(w io.Writer, img image.Image) error {
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = imaging.Clone(img)
	}
	return pngCodec.Encode(w, rgbaFrame{nrgba})
})

// rgbaFrame stops image/png from dropping the alpha channel of opaque frames.
type rgbaFrame struct {
	*image.NRGBA
}

func (rgbaFrame) Opaque() bool { return false }

// Option configures a Builder.
type Option func(*Builder)

// WithResampler sets the filter used to scale the source to each frame size.
func WithResampler(r Resampler) Option {
	return func(b *Builder) {
		if r != nil {
			b.resampler = r
		}
	}
}

// WithEncoder replaces the PNG frame encoder.
func WithEncoder(e Encoder) Option {
	return func(b *Builder) {
		if e != nil {
			b.encoder = e
		}
	}
}

// WithConcurrency limits how many frames are rendered at once. Values below 1
// render frames one at a time.
func WithConcurrency(n int) Option {
	return func(b *Builder) {
		if n < 1 {
			n = 1
		}
		b.limit = n
	}
}

// Builder assembles icon containers from a single source image.
// A Builder holds no per-build state and may be shared between goroutines.
type Builder struct {
	resampler Resampler
	encoder   Encoder
	limit     int
}

// NewBuilder creates a Builder using Catmull-Rom resampling and PNG frames.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		resampler: resample.CatmullRom,
		encoder:   pngEncoder,
		limit:     runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Encode writes src to w as an icon holding the DefaultSizes frames.
func Encode(w io.Writer, src image.Image) error {
	return NewBuilder().Build(context.Background(), src, DefaultSizes, w)
}

// Build renders src at every size in sizes and writes one container to w.
// Each frame is stretched to a square; the source aspect ratio is not kept.
// Directory entries follow the order of sizes.
//
// The whole container is assembled in memory and handed to w in a single
// Write, so nothing reaches w unless every frame was rendered. If that final
// Write fails, w may hold a truncated container which must be discarded.
func (b *Builder) Build(ctx context.Context, src image.Image, sizes []int, w io.Writer) error {
	if err := validateSource(src); err != nil {
		return err
	}
	if err := validateSizes(sizes); err != nil {
		return err
	}

	frames, err := b.renderFrames(ctx, src, sizes)
	if err != nil {
		return err
	}

	data, err := assemble(sizes, frames)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return &BuildError{Kind: ErrSinkWrite, Err: err}
	}
	return nil
}

func validateSource(src image.Image) error {
	if src == nil {
		return &BuildError{Kind: ErrInvalidSource, Err: fmt.Errorf("nil image")}
	}
	if r := src.Bounds(); r.Dx() <= 0 || r.Dy() <= 0 {
		return &BuildError{Kind: ErrInvalidSource, Err: fmt.Errorf("dimensions %dx%d", r.Dx(), r.Dy())}
	}
	return nil
}

func validateSizes(sizes []int) error {
	if len(sizes) == 0 {
		return &BuildError{Kind: ErrInvalidSizeList, Err: fmt.Errorf("no sizes given")}
	}
	if len(sizes) > math.MaxUint16 {
		return &BuildError{Kind: ErrInvalidSizeList, Err: fmt.Errorf("%d sizes exceed the directory limit", len(sizes))}
	}
	for _, size := range sizes {
		if size < 1 || size > MaxSize {
			return &BuildError{Kind: ErrInvalidSizeList, Err: fmt.Errorf("size %d out of range 1..%d", size, MaxSize)}
		}
	}
	return nil
}

// renderFrames resamples and encodes each size concurrently. Results are
// indexed by position so they come back in input order.
func (b *Builder) renderFrames(ctx context.Context, src image.Image, sizes []int) ([][]byte, error) {
	frames := make([][]byte, len(sizes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.limit)
	for i, size := range sizes {
		i, size := i, size
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			frame, err := b.renderFrame(src, size)
			if err != nil {
				return err
			}
			frames[i] = frame
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func (b *Builder) renderFrame(src image.Image, size int) ([]byte, error) {
	img, err := b.resampler.Resample(src, size, size)
	if err != nil {
		return nil, &BuildError{Kind: ErrResample, Size: size, Err: err}
	}
	if r := img.Bounds(); r.Dx() != size || r.Dy() != size {
		return nil, &BuildError{Kind: ErrResample, Size: size, Err: fmt.Errorf("resampler returned %dx%d", r.Dx(), r.Dy())}
	}

	var buf bytes.Buffer
	if err := b.encoder.Encode(&buf, img); err != nil {
		return nil, &BuildError{Kind: ErrEncode, Size: size, Err: err}
	}
	if buf.Len() == 0 {
		return nil, &BuildError{Kind: ErrEncode, Size: size, Err: fmt.Errorf("empty payload")}
	}
	return buf.Bytes(), nil
}

// assemble serializes header, directory and payloads into one buffer.
func assemble(sizes []int, frames [][]byte) ([]byte, error) {
	lengths := make([]int, len(frames))
	total := uint64(DataOffset(len(sizes)))
	for i, frame := range frames {
		lengths[i] = len(frame)
		total += uint64(len(frame))
	}
	if total > math.MaxUint32 {
		return nil, &BuildError{Kind: ErrEncode, Err: fmt.Errorf("container of %d bytes exceeds 32-bit offsets", total)}
	}

	var buf bytes.Buffer
	buf.Grow(int(total))

	header := Header{Type: typeIcon, Count: uint16(len(sizes))}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return nil, &BuildError{Kind: ErrEncode, Err: err}
	}
	if err := binary.Write(&buf, binary.LittleEndian, layout(sizes, lengths)); err != nil {
		return nil, &BuildError{Kind: ErrEncode, Err: err}
	}
	for _, frame := range frames {
		buf.Write(frame)
	}
	return buf.Bytes(), nil
}
