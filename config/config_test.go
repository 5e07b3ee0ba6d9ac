package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, []int{16, 32, 48, 64, 128, 256}, c.IconSizes)
	assert.Equal(t, 10, c.UndoDepth)
	assert.Equal(t, 95, c.JPEGQuality)
	assert.Equal(t, "catmullrom", c.Resampler)
	assert.Equal(t, 10, c.MinCropSize)
	assert.NoError(t, c.Validate())

	// Defaults must not alias the package level slice.
	c.IconSizes[0] = 24
	assert.Equal(t, 16, DefaultIconSizes[0])
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `
icon_sizes = [16, 256]
undo_depth = 3
resampler = "lanczos"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 256}, c.IconSizes)
	assert.Equal(t, 3, c.UndoDepth)
	assert.Equal(t, "lanczos", c.Resampler)
	assert.Equal(t, DefaultJPEGQuality, c.JPEGQuality)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"IconSize", "icon_sizes = [0]", "icon_sizes"},
		{"TooLarge", "icon_sizes = [512]", "icon_sizes"},
		{"JPEGQuality", "jpeg_quality = 101", "jpeg_quality"},
		{"Resampler", `resampler = "box"`, "unknown resampler"},
		{"UndoDepth", "undo_depth = -2", "undo_depth"},
		{"Syntax", "icon_sizes = [", "reading"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := Load(path)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	c := Default()
	c.IconSizes = []int{32, 64}
	c.WebPLossless = true
	require.NoError(t, c.SaveTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}
