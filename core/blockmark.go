package core

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrCapacity = errors.New("core: not enough capacity")

// BlockCapacity is the number of bits a band can carry, one per 8x8 block.
func BlockCapacity(band mat.Matrix) int {
	r, c := band.Dims()
	return (r / N) * (c / N)
}

// EmbedBits writes one bit per 8x8 block of band, row-major. A block
// carries 1 when DCT coefficient [4][3] exceeds [3][4] by at least margin,
// 0 for the opposite. Blocks past len(bits) are left untouched.
func EmbedBits(band *mat.Dense, bits []bool, margin float64) error {
	if capacity := BlockCapacity(band); len(bits) > capacity {
		return fmt.Errorf("%w: capacity %d bits, need %d bits", ErrCapacity, capacity, len(bits))
	}
	_, w := band.Dims()
	perRow := w / N
	for idx, bit := range bits {
		y, x := (idx/perRow)*N, (idx%perRow)*N
		block := band.Slice(y, y+N, x, x+N).(*mat.Dense)
		coeffs := Forward(block)

		v1, v2 := coeffs.At(4, 3), coeffs.At(3, 4)
		// 拉开系数差，差值已够则不动
		if bit {
			if v1-v2 < margin {
				diff := (margin - (v1 - v2)) / 2
				v1 += diff
				v2 -= diff
			}
		} else {
			if v2-v1 < margin {
				diff := (margin - (v2 - v1)) / 2
				v2 += diff
				v1 -= diff
			}
		}
		coeffs.Set(4, 3, v1)
		coeffs.Set(3, 4, v2)

		block.Copy(Inverse(coeffs))
	}
	return nil
}

// ExtractBits reads n bits written by EmbedBits.
func ExtractBits(band mat.Matrix, n int) ([]bool, error) {
	if capacity := BlockCapacity(band); n > capacity {
		return nil, fmt.Errorf("%w: capacity %d bits, need %d bits", ErrCapacity, capacity, n)
	}
	_, w := band.Dims()
	perRow := w / N
	src := mat.DenseCopyOf(band)
	bits := make([]bool, n)
	for idx := range bits {
		y, x := (idx/perRow)*N, (idx%perRow)*N
		coeffs := Forward(src.Slice(y, y+N, x, x+N))
		bits[idx] = coeffs.At(4, 3) >= coeffs.At(3, 4)
	}
	return bits, nil
}
