// Package noise produces degraded copies of an image for robustness checks.
// Every function returns a new image and leaves its input alone.
package noise

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/stat/distuv"
)

const ksize = 5

// GaussianBlur convolves img with a 5×5 Gaussian kernel, reflecting at the
// borders without repeating the edge pixel. A non-positive sigma is derived
// from the kernel size.
func GaussianBlur(img *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		sigma = 0.3*((ksize-1)*0.5-1) + 0.8
	}
	k := kernel(sigma)
	b := img.Rect
	w, h := b.Dx(), b.Dy()

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for i, kv := range k {
				xx := reflect101(x+i-ksize/2, w)
				s += kv * float64(img.GrayAt(b.Min.X+xx, b.Min.Y+y).Y)
			}
			tmp[y*w+x] = s
		}
	}

	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for i, kv := range k {
				yy := reflect101(y+i-ksize/2, h)
				s += kv * tmp[yy*w+x]
			}
			out.Pix[out.PixOffset(b.Min.X+x, b.Min.Y+y)] = clamp(s)
		}
	}
	return out
}

func kernel(sigma float64) []float64 {
	k := make([]float64, ksize)
	sum := 0.0
	for i := range k {
		d := float64(i - ksize/2)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// reflect101 maps i into [0, n) as gfedcb|abcdefgh|gfedcba.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*(n-1) - i
		}
	}
	return i
}

// Poisson adds 255 × Poisson(v/255) sensor noise to every pixel v,
// saturating at 255.
func Poisson(img *image.Gray, src rand.Source) *image.Gray {
	out := clone(img)
	for i, v := range out.Pix {
		if v == 0 {
			continue
		}
		p := distuv.Poisson{Lambda: float64(v) / 255, Src: src}
		out.Pix[i] = clamp(float64(v) + 255*p.Rand())
	}
	return out
}

// SaltPepper sets n random pixels to white and then n random pixels to
// black.
func SaltPepper(img *image.Gray, n int, src rand.Source) *image.Gray {
	out := clone(img)
	b := out.Rect
	if b.Empty() {
		return out
	}
	rng := rand.New(src)
	for _, v := range []uint8{255, 0} {
		for i := 0; i < n; i++ {
			x := b.Min.X + rng.Intn(b.Dx())
			y := b.Min.Y + rng.Intn(b.Dy())
			out.Pix[out.PixOffset(x, y)] = v
		}
	}
	return out
}

// clone copies img into a fresh image with a compact Pix. img may be a
// sub-image with a wider stride.
func clone(img *image.Gray) *image.Gray {
	out := image.NewGray(img.Rect)
	draw.Draw(out, out.Rect, img, img.Rect.Min, draw.Src)
	return out
}

// Options selects the variants Variants produces.
type Options struct {
	Sigmas     []float64
	SaltPepper int
	Poisson    bool
	Seed       uint64
}

// DefaultOptions are the sigmas 0.5, 1.0 and 1.5, Poisson noise and 6000
// salt and 6000 pepper pixels.
func DefaultOptions() Options {
	return Options{Sigmas: []float64{0.5, 1.0, 1.5}, SaltPepper: 6000, Poisson: true, Seed: 1}
}

// Variant is one named degraded copy.
type Variant struct {
	Name  string
	Image *image.Gray
}

// Variants applies every degradation in opts to img.
func Variants(img *image.Gray, opts Options) []Variant {
	var out []Variant
	for _, s := range opts.Sigmas {
		out = append(out, Variant{Name: fmt.Sprintf("filtered_image_sigma_%g", s), Image: GaussianBlur(img, s)})
	}
	src := rand.NewSource(opts.Seed)
	if opts.Poisson {
		out = append(out, Variant{Name: "poisson", Image: Poisson(img, src)})
	}
	if opts.SaltPepper > 0 {
		out = append(out, Variant{Name: "salt_pepper", Image: SaltPepper(img, opts.SaltPepper, src)})
	}
	return out
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
