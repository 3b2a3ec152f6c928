package certmark

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSaveLoadFormats(t *testing.T) {
	dir := t.TempDir()
	src := host(64, 48)
	for _, name := range []string{"a.png", "a.bmp", "a.tiff", "a.JPG"} {
		path := filepath.Join(dir, name)
		require.NoError(t, SaveImage(path, src), name)

		got, err := LoadGray(path)
		require.NoError(t, err, name)
		assert.Equal(t, src.Rect, got.Rect, name)
		if filepath.Ext(name) != ".JPG" {
			assert.Equal(t, src.Pix, got.Pix, "%s is lossless", name)
		}
	}
}

func TestSaveUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.xyz")
	err := SaveImage(path, host(8, 8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadGray(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err = LoadGray(junk)
	require.Error(t, err)
	assert.Contains(t, err.Error(), junk)
}

func TestConvertToGray(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	got := ConvertToGray(src)
	assert.Equal(t, image.Rect(0, 0, 4, 2), got.Rect)
	assert.Equal(t, uint8(255), got.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), got.GrayAt(1, 0).Y)
}

func TestResize(t *testing.T) {
	src := host(32, 32)
	assert.Same(t, src, resize(src, 32, 32))

	got := resize(src, 64, 16)
	assert.Equal(t, image.Rect(0, 0, 64, 16), got.Rect)
}

func TestDenseConversions(t *testing.T) {
	src := host(16, 8)
	m := toDense(src)
	r, c := m.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 16, c)
	assert.Equal(t, src.Pix, fromDense(m).Pix)

	clamped := fromDense(mat.NewDense(1, 3, []float64{-4, 127.6, 300}))
	assert.Equal(t, []uint8{0, 128, 255}, clamped.Pix)
}

func TestNormalize(t *testing.T) {
	got := normalize(mat.NewDense(1, 3, []float64{-10, 0, 10}))
	assert.Equal(t, []uint8{0, 128, 255}, got.Pix)

	flat := normalize(mat.NewDense(2, 2, []float64{7, 7, 7, 7}))
	assert.Equal(t, []uint8{0, 0, 0, 0}, flat.Pix)
}
