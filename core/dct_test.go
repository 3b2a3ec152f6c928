package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestForwardInverseRoundTrip(t *testing.T) {
	for _, dims := range [][2]int{{4, 4}, {8, 8}, {16, 24}, {64, 64}, {256, 256}} {
		x := randomGrid(dims[0], dims[1], int64(dims[0]+dims[1]))
		y := Inverse(Forward(x))
		assert.Less(t, maxAbsDiff(x, y), 1e-8, "dims %v", dims)
	}
}

func TestForwardConstantBlock(t *testing.T) {
	const c = 10.0
	x := mat.NewDense(N, N, nil)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			x.Set(i, j, c)
		}
	}
	y := Forward(x)

	// Orthonormal DC: c * sqrt(N) per axis.
	assert.InDelta(t, c*N, y.At(0, 0), 1e-9)
	for i := 0; i < N; i++ {
		for j := 0; j < N; j++ {
			if i == 0 && j == 0 {
				continue
			}
			assert.InDelta(t, 0, y.At(i, j), 1e-9, "coefficient [%d][%d]", i, j)
		}
	}
}

func TestForwardPreservesEnergy(t *testing.T) {
	x := randomGrid(32, 32, 3)
	y := Forward(x)
	ex := mat.Norm(x, 2)
	ey := mat.Norm(y, 2)
	assert.InDelta(t, 1, ey/ex, 1e-9)
	assert.False(t, math.IsNaN(ey))
}

func TestForwardDoesNotTouchInput(t *testing.T) {
	x := randomGrid(8, 8, 4)
	before := mat.DenseCopyOf(x)
	Forward(x)
	assert.True(t, mat.Equal(before, x))
}

func TestForwardIsolatesCosine(t *testing.T) {
	const r, c, kr, kc = 16, 24, 3, 5
	x := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			x.Set(i, j, math.Cos(math.Pi*kr*float64(2*i+1)/(2*r))*math.Cos(math.Pi*kc*float64(2*j+1)/(2*c)))
		}
	}
	y := Forward(x)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			want := 0.0
			if i == kr && j == kc {
				want = math.Sqrt(r * c / 4)
			}
			assert.InDelta(t, want, y.At(i, j), 1e-9, "coefficient [%d][%d]", i, j)
		}
	}
}
