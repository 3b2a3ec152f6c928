package certmark

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/mat"
)

// LoadGray decodes any registered raster format into 8-bit gray.
func LoadGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ConvertToGray(img), nil
}

// SaveImage encodes img in the format named by the extension of path. JPEG
// is written at quality 100 to keep as much of the watermark as possible.
func SaveImage(path string, img image.Image) (err error) {
	var encode func(*os.File) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".jpg", ".jpeg":
		encode = func(f *os.File) error { return jpeg.Encode(f, img, &jpeg.Options{Quality: 100}) }
	case ".bmp":
		encode = func(f *os.File) error { return bmp.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File) error { return tiff.Encode(f, img, nil) }
	default:
		return fmt.Errorf("save %s: unsupported image format", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("save %s: %w", path, cerr)
		}
	}()
	if err := encode(f); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// ConvertToGray converts any image to 8-bit gray.
func ConvertToGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	bounds := src.Bounds()
	grayImg := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	// draw converts the color model (RGB -> Gray) on the fly.
	draw.Draw(grayImg, grayImg.Rect, src, bounds.Min, draw.Src)
	return grayImg
}

// resize scales img with Catmull-Rom (bicubic) resampling. Nothing is
// resampled when the size already matches.
func resize(img *image.Gray, w, h int) *image.Gray {
	if img.Rect.Dx() == w && img.Rect.Dy() == h {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Rect, img, img.Rect, draw.Src, nil)
	return dst
}

func toDense(img *image.Gray) *mat.Dense {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	m := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		row := m.RawRowView(y)
		off := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		for x := range row {
			row[x] = float64(img.Pix[off+x])
		}
	}
	return m
}

// fromDense rounds and clamps m into [0, 255].
func fromDense(m mat.Matrix) *image.Gray {
	h, w := m.Dims()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[img.PixOffset(x, y)] = clamp(m.At(y, x))
		}
	}
	return img
}

// normalize stretches m linearly onto [0, 255]. A flat grid maps to black.
func normalize(m mat.Matrix) *image.Gray {
	lo, hi := mat.Min(m), mat.Max(m)
	h, w := m.Dims()
	img := image.NewGray(image.Rect(0, 0, w, h))
	if hi == lo {
		return img
	}
	scale := 255 / (hi - lo)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[img.PixOffset(x, y)] = clamp((m.At(y, x) - lo) * scale)
		}
	}
	return img
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
