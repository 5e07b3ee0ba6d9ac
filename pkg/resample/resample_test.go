package resample

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{255, 0, 0, 255}}, image.Point{}, draw.Src)
	return img
}

func TestResamplers(t *testing.T) {
	src := createTestImage(800, 600)

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			r, err := ByName(name)
			require.NoError(t, err)

			out, err := r.Resample(src, 48, 48)
			require.NoError(t, err)
			assert.Equal(t, 48, out.Bounds().Dx())
			assert.Equal(t, 48, out.Bounds().Dy())

			// A uniform source stays uniform after stretching.
			cr, cg, cb, ca := out.At(24, 24).RGBA()
			assert.InDelta(t, 0xffff, cr, 0x200)
			assert.InDelta(t, 0, cg, 0x200)
			assert.InDelta(t, 0, cb, 0x200)
			assert.InDelta(t, 0xffff, ca, 0x200)
		})
	}
}

func TestResampleInvalid(t *testing.T) {
	src := createTestImage(10, 10)

	tests := []struct {
		name          string
		src           image.Image
		width, height int
	}{
		{"ZeroWidth", src, 0, 10},
		{"NegativeHeight", src, 10, -1},
		{"NilSource", nil, 10, 10},
		{"EmptySource", image.NewRGBA(image.Rectangle{}), 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CatmullRom.Resample(tt.src, tt.width, tt.height)
			assert.Error(t, err)
		})
	}
}

func TestByName(t *testing.T) {
	r, err := ByName("")
	require.NoError(t, err)
	require.IsType(t, imagingFilter{}, r)
	assert.Equal(t, imaging.CatmullRom.Support, r.(imagingFilter).filter.Support)

	r, err = ByName(" Lanczos ")
	require.NoError(t, err)
	require.IsType(t, imagingFilter{}, r)
	assert.Equal(t, imaging.Lanczos.Support, r.(imagingFilter).filter.Support)

	r, err = ByName("bicubic")
	require.NoError(t, err)
	assert.IsType(t, nfntFilter{}, r)

	_, err = ByName("nearest")
	assert.ErrorContains(t, err, "unknown resampler")
}
