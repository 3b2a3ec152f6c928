// Package quality scores a watermarked image against its host.
package quality

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

var ErrDimensionMismatch = errors.New("quality: image dimensions differ")

const (
	peak = 255.0
	win  = 7
	k1   = 0.01
	k2   = 0.03
)

func check(a, b *image.Gray) error {
	if a.Rect.Dx() != b.Rect.Dx() || a.Rect.Dy() != b.Rect.Dy() {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, a.Rect.Dx(), a.Rect.Dy(), b.Rect.Dx(), b.Rect.Dy())
	}
	return nil
}

// MSE is the mean squared error between two equal-sized images.
func MSE(a, b *image.Gray) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	w, h := a.Rect.Dx(), a.Rect.Dy()
	sq := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := float64(a.GrayAt(a.Rect.Min.X+x, a.Rect.Min.Y+y).Y) - float64(b.GrayAt(b.Rect.Min.X+x, b.Rect.Min.Y+y).Y)
			sq = append(sq, d*d)
		}
	}
	if len(sq) == 0 {
		return 0, nil
	}
	return stat.Mean(sq, nil), nil
}

// PSNR is the peak signal-to-noise ratio in dB. Identical images give +Inf.
func PSNR(a, b *image.Gray) (float64, error) {
	mse, err := MSE(a, b)
	if err != nil {
		return 0, err
	}
	if mse == 0 {
		return math.Inf(1), nil
	}
	return 20 * math.Log10(peak/math.Sqrt(mse)), nil
}

// SSIM is the mean structural similarity over every 7×7 window lying fully
// inside the images, using sample statistics.
func SSIM(a, b *image.Gray) (float64, error) {
	if err := check(a, b); err != nil {
		return 0, err
	}
	w, h := a.Rect.Dx(), a.Rect.Dy()
	if w < win || h < win {
		return 0, fmt.Errorf("quality: images must be at least %dx%d, got %dx%d", win, win, w, h)
	}
	c1 := (k1 * peak) * (k1 * peak)
	c2 := (k2 * peak) * (k2 * peak)

	xs := make([]float64, win*win)
	ys := make([]float64, win*win)
	total, n := 0.0, 0
	for y0 := 0; y0+win <= h; y0++ {
		for x0 := 0; x0+win <= w; x0++ {
			for dy := 0; dy < win; dy++ {
				for dx := 0; dx < win; dx++ {
					i := dy*win + dx
					xs[i] = float64(a.GrayAt(a.Rect.Min.X+x0+dx, a.Rect.Min.Y+y0+dy).Y)
					ys[i] = float64(b.GrayAt(b.Rect.Min.X+x0+dx, b.Rect.Min.Y+y0+dy).Y)
				}
			}
			mx, vx := stat.MeanVariance(xs, nil)
			my, vy := stat.MeanVariance(ys, nil)
			cov := stat.Covariance(xs, ys, nil)

			total += ((2*mx*my + c1) * (2*cov + c2)) / ((mx*mx + my*my + c1) * (vx + vy + c2))
			n++
		}
	}
	return total / float64(n), nil
}
