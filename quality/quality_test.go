package quality

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[img.PixOffset(x, y)] = uint8((x*7 + y*3) % 256)
		}
	}
	return img
}

func TestPSNRIdentical(t *testing.T) {
	img := gradient(32, 32)
	p, err := PSNR(img, img)
	require.NoError(t, err)
	assert.True(t, math.IsInf(p, 1))
	assert.False(t, math.IsNaN(p))
}

func TestPSNRKnownError(t *testing.T) {
	a := gradient(16, 16)
	b := image.NewGray(a.Rect)
	copy(b.Pix, a.Pix)
	for i := range b.Pix {
		if b.Pix[i] < 250 {
			b.Pix[i] += 5
		} else {
			b.Pix[i] -= 5
		}
	}
	mse, err := MSE(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 25, mse, 1e-9)

	p, err := PSNR(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 20*math.Log10(255/5.0), p, 1e-9)
}

func TestDimensionMismatch(t *testing.T) {
	_, err := PSNR(gradient(16, 16), gradient(16, 8))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	assert.Contains(t, err.Error(), "16x16 vs 16x8")

	_, err = SSIM(gradient(16, 16), gradient(8, 16))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSSIM(t *testing.T) {
	a := gradient(64, 64)
	s, err := SSIM(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1, s, 1e-9)

	inv := image.NewGray(a.Rect)
	for i, v := range a.Pix {
		inv.Pix[i] = 255 - v
	}
	s, err = SSIM(a, inv)
	require.NoError(t, err)
	assert.Less(t, s, 0.5)
	assert.GreaterOrEqual(t, s, -1.0)

	_, err = SSIM(gradient(4, 4), gradient(4, 4))
	assert.Error(t, err)
}
