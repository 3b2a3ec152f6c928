package core

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Sqrt2 is the orthonormal Haar normalization.
const Sqrt2 = 1.41421356237309504880168872420969808

var (
	ErrOddDimensions = errors.New("core: dimensions must be even")
	ErrShapeMismatch = errors.New("core: shape mismatch")
)

// Subbands holds one Haar decomposition level. Each band is half the size
// of its source in both dimensions.
//
//	LL LH
//	HL HH
//
// LH carries high horizontal frequencies, HL high vertical ones.
type Subbands struct {
	LL, LH, HL, HH *mat.Dense
}

// Decompose applies a single-level 2D Haar DWT: rows first, then columns.
func Decompose(x mat.Matrix) (Subbands, error) {
	h, w := x.Dims()
	if h == 0 || w == 0 || h%2 != 0 || w%2 != 0 {
		return Subbands{}, fmt.Errorf("%w: got %dx%d", ErrOddDimensions, w, h)
	}
	halfH, halfW := h/2, w/2

	// Row transform: L in the left half, H in the right half.
	rows := mat.NewDense(h, w, nil)
	src := make([]float64, w)
	for i := 0; i < h; i++ {
		mat.Row(src, i, x)
		dwt1D(rows.RawRowView(i), src)
	}

	s := Subbands{
		LL: mat.NewDense(halfH, halfW, nil),
		LH: mat.NewDense(halfH, halfW, nil),
		HL: mat.NewDense(halfH, halfW, nil),
		HH: mat.NewDense(halfH, halfW, nil),
	}

	// Column transform, split straight into the quadrants.
	col := make([]float64, h)
	out := make([]float64, h)
	for j := 0; j < w; j++ {
		mat.Col(col, j, rows)
		dwt1D(out, col)
		lo, hi := s.LL, s.HL
		jj := j
		if j >= halfW {
			lo, hi = s.LH, s.HH
			jj = j - halfW
		}
		for i := 0; i < halfH; i++ {
			lo.Set(i, jj, out[i])
			hi.Set(i, jj, out[halfH+i])
		}
	}
	return s, nil
}

// Reconstruct inverts Decompose. All four bands must share one shape.
func Reconstruct(s Subbands) (*mat.Dense, error) {
	if s.LL == nil || s.LH == nil || s.HL == nil || s.HH == nil {
		return nil, fmt.Errorf("%w: missing subband", ErrShapeMismatch)
	}
	halfH, halfW := s.LL.Dims()
	for _, b := range []*mat.Dense{s.LH, s.HL, s.HH} {
		if r, c := b.Dims(); r != halfH || c != halfW {
			return nil, fmt.Errorf("%w: subband %dx%d, want %dx%d", ErrShapeMismatch, c, r, halfW, halfH)
		}
	}
	h, w := halfH*2, halfW*2

	// Column inverse into a row-transformed intermediate.
	rows := mat.NewDense(h, w, nil)
	col := make([]float64, h)
	out := make([]float64, h)
	for j := 0; j < w; j++ {
		lo, hi := s.LL, s.HL
		jj := j
		if j >= halfW {
			lo, hi = s.LH, s.HH
			jj = j - halfW
		}
		for i := 0; i < halfH; i++ {
			col[i] = lo.At(i, jj)
			col[halfH+i] = hi.At(i, jj)
		}
		idwt1D(out, col)
		rows.SetCol(j, out)
	}

	// Row inverse.
	dst := mat.NewDense(h, w, nil)
	for i := 0; i < h; i++ {
		idwt1D(dst.RawRowView(i), rows.RawRowView(i))
	}
	return dst, nil
}

// dwt1D writes [L..., H...] for an even-length signal.
//
//	L = (a + b) / sqrt(2)
//	H = (a - b) / sqrt(2)
func dwt1D(dst, src []float64) {
	half := len(src) / 2
	for i := 0; i < half; i++ {
		a, b := src[2*i], src[2*i+1]
		dst[i] = (a + b) / Sqrt2
		dst[half+i] = (a - b) / Sqrt2
	}
}

// idwt1D inverts dwt1D. The orthonormal basis makes the inverse symmetric.
func idwt1D(dst, src []float64) {
	half := len(src) / 2
	for i := 0; i < half; i++ {
		l, h := src[i], src[half+i]
		dst[2*i] = (l + h) / Sqrt2
		dst[2*i+1] = (l - h) / Sqrt2
	}
}
