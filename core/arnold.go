package core

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotSquare          = errors.New("core: grid must be square")
	ErrNegativeIterations = errors.New("core: iteration count must be >= 0")
)

// Scramble applies the generalized Arnold cat map k times. Each iteration
// moves the sample at (x, y) to ((x+y) mod n, (x+2y) mod n), with x the
// column and y the row. The input is never modified.
func Scramble(src mat.Matrix, k int) (*mat.Dense, error) {
	return arnold(src, k, func(x, y, n int) (int, int) {
		return (x + y) % n, (x + 2*y) % n
	})
}

// Unscramble inverts Scramble for the same k, moving (x, y) to
// ((2x-y) mod n, (y-x) mod n) per iteration.
func Unscramble(src mat.Matrix, k int) (*mat.Dense, error) {
	return arnold(src, k, func(x, y, n int) (int, int) {
		return mod(2*x-y, n), mod(y-x, n)
	})
}

func arnold(src mat.Matrix, k int, step func(x, y, n int) (int, int)) (*mat.Dense, error) {
	r, c := src.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: got %dx%d", ErrNotSquare, c, r)
	}
	if k < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeIterations, k)
	}
	n := r
	cur := mat.DenseCopyOf(src)
	if k == 0 || n == 0 {
		return cur, nil
	}

	// Every iteration reads a stable snapshot and writes a second buffer.
	next := mat.NewDense(n, n, nil)
	for ; k > 0; k-- {
		for y := 0; y < n; y++ {
			row := cur.RawRowView(y)
			for x := 0; x < n; x++ {
				nx, ny := step(x, y, n)
				next.Set(ny, nx, row[x])
			}
		}
		cur, next = next, cur
	}
	return cur, nil
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}
