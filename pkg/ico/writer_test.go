package ico

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// createTestImage returns a gradient with partial transparency so frames are
// not trivially compressible.
func createTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / width),
				G: uint8(y * 255 / height),
				B: 128,
				A: uint8(128 + (x+y)%128),
			})
		}
	}
	return img
}

func build(t *testing.T, src image.Image, sizes []int, opts ...Option) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewBuilder(opts...).Build(context.Background(), src, sizes, &buf))
	return buf.Bytes()
}

func TestBuild_Header(t *testing.T) {
	data := build(t, createTestImage(64, 32), DefaultSizes)

	require.GreaterOrEqual(t, len(data), DataOffset(len(DefaultSizes)))
	assert.Equal(t, []byte{0x00, 0x00, 0x01, 0x00}, data[:4])
	assert.Equal(t, uint16(len(DefaultSizes)), binary.LittleEndian.Uint16(data[4:6]))
}

func TestBuild_Directory(t *testing.T) {
	sizes := []int{16, 32, 48, 64, 128, 256}
	data := build(t, createTestImage(800, 600), sizes)

	hdr, entries, err := ReadDirectory(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Header{Reserved: 0, Type: 1, Count: uint16(len(sizes))}, hdr)
	require.Len(t, entries, len(sizes))

	offset := uint32(6 + 16*len(sizes))
	for i, e := range entries {
		assert.Equal(t, offset, e.Offset, "entry %d offset", i)
		assert.Equal(t, uint8(0), e.PaletteCount)
		assert.Equal(t, uint8(0), e.Reserved)
		assert.Equal(t, uint16(1), e.Planes)
		assert.Equal(t, uint16(32), e.BitsPerPixel)
		offset += e.Length
	}
	// Payloads run exactly to the end of the stream.
	assert.Equal(t, uint32(len(data)), offset)

	// 256 is stored as zero.
	assert.Equal(t, uint8(0), entries[5].Width)
	assert.Equal(t, uint8(0), entries[5].Height)
	assert.Equal(t, uint8(16), entries[0].Width)
}

func TestBuild_RoundTrip(t *testing.T) {
	sizes := []int{16, 32, 48, 64, 128, 256}
	data := build(t, createTestImage(800, 600), sizes)

	_, entries, err := ReadDirectory(bytes.NewReader(data))
	require.NoError(t, err)

	for i, e := range entries {
		payload, err := Payload(data, e)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(payload, pngSignature), "entry %d has PNG signature", i)

		img, err := png.Decode(bytes.NewReader(payload))
		require.NoError(t, err)
		assert.Equal(t, sizes[i], img.Bounds().Dx())
		assert.Equal(t, sizes[i], img.Bounds().Dy())
		assert.Equal(t, e.Bounds(), img.Bounds())
	}

	frames, err := DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, frames, len(sizes))
	for i, frame := range frames {
		assert.Equal(t, sizes[i], frame.Bounds().Dx())
	}
}

func TestBuild_PreservesOrder(t *testing.T) {
	sizes := []int{256, 16, 48, 16}
	data := build(t, createTestImage(40, 90), sizes)

	_, entries, err := ReadDirectory(bytes.NewReader(data))
	require.NoError(t, err)
	for i, e := range entries {
		assert.Equal(t, sizes[i], e.Bounds().Dx())
	}
}

func TestBuild_PreservesAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	data := build(t, src, []int{32})

	frames, err := DecodeAll(bytes.NewReader(data))
	require.NoError(t, err)
	_, _, _, a := frames[0].At(16, 16).RGBA()
	assert.Equal(t, uint32(0), a)
}

func TestBuild_OpaqueSourceWritesRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 800, 600))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	gray := image.NewGray(image.Rect(0, 0, 40, 40))

	for name, img := range map[string]image.Image{"nrgba": src, "gray": gray} {
		t.Run(name, func(t *testing.T) {
			data := build(t, img, DefaultSizes)
			_, entries, err := ReadDirectory(bytes.NewReader(data))
			require.NoError(t, err)

			for _, e := range entries {
				payload, err := Payload(data, e)
				require.NoError(t, err)
				require.Greater(t, len(payload), 25)
				// IHDR: bit depth at byte 24, color type at byte 25.
				assert.Equal(t, byte(8), payload[24], "%v bit depth", e.Bounds())
				assert.Equal(t, byte(6), payload[25], "%v color type", e.Bounds())
			}
		})
	}
}

func TestBuild_Idempotent(t *testing.T) {
	src := createTestImage(300, 200)
	first := build(t, src, DefaultSizes)
	second := build(t, src, DefaultSizes)

	n := DataOffset(len(DefaultSizes))
	assert.Equal(t, first[:n], second[:n])
	assert.Equal(t, first, second)
}

func TestBuild_SingleTinyFrame(t *testing.T) {
	data := build(t, createTestImage(5, 3), []int{1})

	_, entries, err := ReadDirectory(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(22), entries[0].Offset)

	img, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
}

func TestBuild_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		src   image.Image
		sizes []int
		kind  error
	}{
		{"EmptySizes", createTestImage(10, 10), []int{}, ErrInvalidSizeList},
		{"NilSizes", createTestImage(10, 10), nil, ErrInvalidSizeList},
		{"ZeroSize", createTestImage(10, 10), []int{16, 0}, ErrInvalidSizeList},
		{"TooLarge", createTestImage(10, 10), []int{257}, ErrInvalidSizeList},
		{"NilSource", nil, []int{16}, ErrInvalidSource},
		{"EmptySource", image.NewNRGBA(image.Rect(0, 0, 0, 5)), []int{16}, ErrInvalidSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := NewBuilder().Build(context.Background(), tt.src, tt.sizes, &buf)
			assert.ErrorIs(t, err, tt.kind)
			assert.Zero(t, buf.Len())

			var be *BuildError
			assert.ErrorAs(t, err, &be)
		})
	}
}

// MockEncoder is a testify mock of the frame encoder.
type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Encode(w io.Writer, img image.Image) error {
	args := m.Called(w, img)
	return args.Error(0)
}

func frameOfSize(size int) interface{} {
	return mock.MatchedBy(func(img image.Image) bool {
		return img.Bounds().Dx() == size
	})
}

func TestBuild_EncodeFailureWritesNothing(t *testing.T) {
	sizes := []int{16, 32, 48, 64}
	boom := errors.New("boom")

	enc := new(MockEncoder)
	enc.On("Encode", mock.Anything, frameOfSize(48)).Return(boom)
	enc.On("Encode", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		_ = png.Encode(args.Get(0).(io.Writer), args.Get(1).(image.Image))
	}).Return(nil)

	var buf bytes.Buffer
	err := NewBuilder(WithEncoder(enc)).Build(context.Background(), createTestImage(100, 80), sizes, &buf)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncode)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, buf.Len())

	var be *BuildError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 48, be.Size)
	assert.Contains(t, err.Error(), "48x48")
}

type resamplerFunc func(src image.Image, width, height int) (image.Image, error)

func (f resamplerFunc) Resample(src image.Image, width, height int) (image.Image, error) {
	return f(src, width, height)
}

func TestBuild_ResampleFailure(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		r := resamplerFunc(func(image.Image, int, int) (image.Image, error) {
			return nil, errors.New("no memory")
		})
		var buf bytes.Buffer
		err := NewBuilder(WithResampler(r)).Build(context.Background(), createTestImage(10, 10), []int{16}, &buf)
		assert.ErrorIs(t, err, ErrResample)
		assert.Zero(t, buf.Len())
	})

	t.Run("WrongSize", func(t *testing.T) {
		r := resamplerFunc(func(src image.Image, width, height int) (image.Image, error) {
			return image.NewNRGBA(image.Rect(0, 0, width, height+1)), nil
		})
		var buf bytes.Buffer
		err := NewBuilder(WithResampler(r)).Build(context.Background(), createTestImage(10, 10), []int{16}, &buf)
		assert.ErrorIs(t, err, ErrResample)
		assert.Contains(t, err.Error(), "16x17")
	})
}

type failingWriter struct {
	calls atomic.Int32
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls.Add(1)
	return 0, errors.New("disk full")
}

func TestBuild_SinkFailure(t *testing.T) {
	w := &failingWriter{}
	err := NewBuilder().Build(context.Background(), createTestImage(10, 10), []int{16, 32}, w)
	assert.ErrorIs(t, err, ErrSinkWrite)
	assert.Equal(t, int32(1), w.calls.Load())
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewBuilder().Build(ctx, createTestImage(10, 10), DefaultSizes, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestBuild_Sequential(t *testing.T) {
	var inFlight, peak atomic.Int32
	r := resamplerFunc(func(src image.Image, width, height int) (image.Image, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		if n > peak.Load() {
			peak.Store(n)
		}
		return image.NewNRGBA(image.Rect(0, 0, width, height)), nil
	})

	build(t, createTestImage(10, 10), DefaultSizes, WithResampler(r), WithConcurrency(0))
	assert.Equal(t, int32(1), peak.Load())
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, createTestImage(20, 20)))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "ico", format)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 256, cfg.Height)
}
