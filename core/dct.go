package core

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// N is the block size used for header bits.
const N = 8

// Forward applies the 2D orthonormal DCT-II,
//
//	Y[k] = s(k) * sum_i X[i] * cos(pi * k * (2i+1) / 2n),  s(0) = sqrt(1/n), s(k) = sqrt(2/n)
//
// along rows and then columns. The block may be rectangular.
func Forward(x mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(x)
	separable(out, dct2)
	return out
}

// Inverse applies the 2D orthonormal DCT-III, undoing Forward.
func Inverse(y mat.Matrix) *mat.Dense {
	out := mat.DenseCopyOf(y)
	separable(out, dct3)
	return out
}

// dct2 replaces v with its orthonormal DCT-II. CosSequence is the
// quarter-wave synthesis, which is the DCT-II scaled by 4.
func dct2(t *fourier.QuarterWaveFFT, v []float64) {
	t.CosSequence(v, v)
	n := float64(len(v))
	v[0] *= math.Sqrt(1/n) / 4
	sk := math.Sqrt(2/n) / 4
	for k := 1; k < len(v); k++ {
		v[k] *= sk
	}
}

// dct3 inverts dct2. CosCoefficients weights the DC term by 1 and every
// other term by 2.
func dct3(t *fourier.QuarterWaveFFT, v []float64) {
	n := float64(len(v))
	v[0] *= math.Sqrt(1 / n)
	sk := math.Sqrt(2/n) / 2
	for k := 1; k < len(v); k++ {
		v[k] *= sk
	}
	t.CosCoefficients(v, v)
}

func separable(m *mat.Dense, fn func(*fourier.QuarterWaveFFT, []float64)) {
	r, c := m.Dims()
	t := fourier.NewQuarterWaveFFT(c)
	buf := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(buf, i, m)
		fn(t, buf)
		m.SetRow(i, buf)
	}
	if r != c {
		t = fourier.NewQuarterWaveFFT(r)
		buf = make([]float64, r)
	}
	for j := 0; j < c; j++ {
		mat.Col(buf, j, m)
		fn(t, buf)
		m.SetCol(j, buf)
	}
}
