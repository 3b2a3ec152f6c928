package core

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestScrambleRoundTrip(t *testing.T) {
	for _, n := range []int{8, 16, 256} {
		for _, k := range []int{0, 1, 5} {
			x := randomGrid(n, n, int64(n*10+k))
			s, err := Scramble(x, k)
			require.NoError(t, err)
			y, err := Unscramble(s, k)
			require.NoError(t, err)
			assert.True(t, mat.Equal(x, y), "n=%d k=%d", n, k)
		}
	}
}

func TestScrambleZeroIterationsIsIdentity(t *testing.T) {
	x := randomGrid(16, 16, 11)
	s, err := Scramble(x, 0)
	require.NoError(t, err)
	assert.True(t, mat.Equal(x, s))
}

func TestScrambleMovesPixel(t *testing.T) {
	x := mat.NewDense(8, 8, nil)
	x.Set(1, 2, 1) // row y=1, column x=2

	s, err := Scramble(x, 1)
	require.NoError(t, err)
	// (x, y) -> (x+y, x+2y) = (3, 4)
	assert.Equal(t, 1.0, s.At(4, 3))
	assert.Equal(t, 1.0, mat.Sum(s))

	u, err := Unscramble(s, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, u.At(1, 2))
}

func TestScrambleIsPermutation(t *testing.T) {
	x := randomGrid(16, 16, 12)
	s, err := Scramble(x, 3)
	require.NoError(t, err)
	assert.False(t, mat.Equal(x, s))

	a, b := mat.DenseCopyOf(x).RawMatrix().Data, mat.DenseCopyOf(s).RawMatrix().Data
	sort.Float64s(a)
	sort.Float64s(b)
	assert.Equal(t, a, b)
}

func TestScrambleLeavesInputIntact(t *testing.T) {
	x := randomGrid(16, 16, 13)
	before := mat.DenseCopyOf(x)
	_, err := Scramble(x, 2)
	require.NoError(t, err)
	assert.True(t, mat.Equal(before, x))
}

func TestScrambleMismatchedIterations(t *testing.T) {
	x := randomGrid(16, 16, 14)
	s, err := Scramble(x, 1)
	require.NoError(t, err)
	y, err := Unscramble(s, 2)
	require.NoError(t, err)
	assert.False(t, mat.Equal(x, y))
}

func TestScramblePreconditions(t *testing.T) {
	_, err := Scramble(mat.NewDense(4, 8, nil), 1)
	assert.ErrorIs(t, err, ErrNotSquare)
	_, err = Unscramble(mat.NewDense(8, 8, nil), -1)
	assert.ErrorIs(t, err, ErrNegativeIterations)
}
