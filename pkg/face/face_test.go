package face

import (
	"image"
	"image/color"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadFacefinder loads the cascade shipped in the pigo module.
func loadFacefinder(t *testing.T) *Detector {
	t.Helper()
	out, err := exec.Command("go", "list", "-m", "-f", "{{.Dir}}", "github.com/esimov/pigo").Output()
	dir := strings.TrimSpace(string(out))
	if err != nil || dir == "" {
		t.Skipf("pigo module source not available: %v", err)
	}
	d, err := Load(filepath.Join(dir, "cascade", "facefinder"))
	require.NoError(t, err)
	return d
}

// createPattern draws light and dark blobs on a mid-gray background.
func createPattern(r image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := uint8(128 + 100*((x/17+y/23)%2) - 60*((x*y/97)%2))
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "facefinder"))
	assert.ErrorContains(t, err, "reading face model")
}

func TestDetect(t *testing.T) {
	d := loadFacefinder(t)

	t.Run("blank", func(t *testing.T) {
		img := image.NewNRGBA(image.Rect(0, 0, 240, 180))
		for i := range img.Pix {
			img.Pix[i] = 200
		}
		assert.Empty(t, d.Detect(img))
	})

	tests := []struct {
		name   string
		bounds image.Rectangle
	}{
		{"origin", image.Rect(0, 0, 320, 240)},
		{"offset", image.Rect(50, 30, 370, 270)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := createPattern(tt.bounds)
			for _, r := range d.Detect(img) {
				assert.True(t, r.In(img.Bounds()), "%v outside %v", r, img.Bounds())
				assert.False(t, r.Empty())
			}
		})
	}
}
