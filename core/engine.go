package core

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Capacity selects which payload coefficients survive truncation and where
// they land inside HH2.
type Capacity uint8

const (
	// CapacityTriangle keeps coefficient (i, j) when j < n-i, the
	// low-frequency triangle, and zeroes the rest.
	CapacityTriangle Capacity = iota
	// CapacityFull keeps every coefficient.
	CapacityFull
)

func (c Capacity) String() string {
	switch c {
	case CapacityTriangle:
		return "triangle"
	case CapacityFull:
		return "full"
	}
	return fmt.Sprintf("Capacity(%d)", uint8(c))
}

// ParseCapacity is the inverse of Capacity.String.
func ParseCapacity(s string) (Capacity, error) {
	switch s {
	case "triangle", "":
		return CapacityTriangle, nil
	case "full":
		return CapacityFull, nil
	}
	return 0, fmt.Errorf("core: unknown capacity %q", s)
}

// Keeps reports whether coefficient (i, j) of an n×n block is carried.
func (c Capacity) Keeps(i, j, n int) bool {
	if c == CapacityFull {
		return true
	}
	return j < n-i
}

// Truncate zeroes, in place, every coefficient c does not carry.
func Truncate(coeffs *mat.Dense, c Capacity) error {
	r, cols := coeffs.Dims()
	if r != cols {
		return fmt.Errorf("%w: coefficient grid %dx%d", ErrNotSquare, cols, r)
	}
	for i := 0; i < r; i++ {
		row := coeffs.RawRowView(i)
		for j := range row {
			if !c.Keeps(i, j, r) {
				row[j] = 0
			}
		}
	}
	return nil
}

// Engine places payload coefficients in the HH sub-band of the HH sub-band
// (HH2) and header bits in the level-1 HL sub-band.
type Engine struct {
	Strength     float64 // payload coefficient scale
	Capacity     Capacity
	HeaderMargin float64 // coefficient-pair gap per header bit

	// When Hi > Lo, Embed alternates between clipping to [Lo, Hi] and
	// re-placing the payload, at most Refine times, so that the later
	// 8-bit quantization does not undo marks in saturated regions.
	Lo, Hi float64
	Refine int
}

// clipTolerance is the largest excursion outside [Lo, Hi] left to rounding.
const clipTolerance = 0.5

// Embed returns a copy of host carrying coeffs and header. host must have
// sides divisible by 4 and coeffs must be square and fit inside HH2.
func (e *Engine) Embed(host mat.Matrix, coeffs mat.Matrix, header []bool) (*mat.Dense, error) {
	n, c := coeffs.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: payload %dx%d", ErrNotSquare, c, n)
	}
	out, err := e.place(host, coeffs, header)
	if err != nil {
		return nil, err
	}
	if e.Hi <= e.Lo {
		return out, nil
	}
	for pass := 0; pass < e.Refine; pass++ {
		if clip(out, e.Lo, e.Hi) <= clipTolerance {
			break
		}
		if out, err = e.place(out, coeffs, header); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// place overwrites the carried HH2 coefficients and header blocks of img.
func (e *Engine) place(img mat.Matrix, coeffs mat.Matrix, header []bool) (*mat.Dense, error) {
	outer, err := Decompose(img)
	if err != nil {
		return nil, fmt.Errorf("outer level: %w", err)
	}
	inner, err := Decompose(outer.HH)
	if err != nil {
		return nil, fmt.Errorf("inner level: %w", err)
	}

	n, _ := coeffs.Dims()
	if err := fits(inner.HH, n); err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if e.Capacity.Keeps(i, j, n) {
				inner.HH.Set(i, j, e.strength()*coeffs.At(i, j))
			}
		}
	}

	if len(header) > 0 {
		if err := EmbedBits(outer.HL, header, e.HeaderMargin); err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
	}

	// Inner level first, then outer.
	hh, err := Reconstruct(inner)
	if err != nil {
		return nil, fmt.Errorf("inner level: %w", err)
	}
	outer.HH = hh
	return Reconstruct(outer)
}

// clip limits m to [lo, hi] in place and returns the largest excursion it
// removed.
func clip(m *mat.Dense, lo, hi float64) float64 {
	var worst float64
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		for j, v := range row {
			switch {
			case v < lo:
				worst = max(worst, lo-v)
				row[j] = lo
			case v > hi:
				worst = max(worst, v-hi)
				row[j] = hi
			}
		}
	}
	return worst
}

// Extract reads the n×n payload coefficient grid back out of img, zero
// wherever the capacity carries nothing.
func (e *Engine) Extract(img mat.Matrix, n int) (*mat.Dense, error) {
	outer, err := Decompose(img)
	if err != nil {
		return nil, fmt.Errorf("outer level: %w", err)
	}
	inner, err := Decompose(outer.HH)
	if err != nil {
		return nil, fmt.Errorf("inner level: %w", err)
	}
	if err := fits(inner.HH, n); err != nil {
		return nil, err
	}

	out := mat.NewDense(n, n, nil)
	scale := 1 / e.strength()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if e.Capacity.Keeps(i, j, n) {
				out.Set(i, j, inner.HH.At(i, j)*scale)
			}
		}
	}
	return out, nil
}

// ExtractHeader reads n header bits from the level-1 HL sub-band.
func (e *Engine) ExtractHeader(img mat.Matrix, n int) ([]bool, error) {
	outer, err := Decompose(img)
	if err != nil {
		return nil, fmt.Errorf("outer level: %w", err)
	}
	return ExtractBits(outer.HL, n)
}

// fits checks that an n×n payload block sits inside HH2.
func fits(hh2 mat.Matrix, n int) error {
	hr, hc := hh2.Dims()
	if n <= 0 || n > hr || n > hc {
		return fmt.Errorf("%w: payload %dx%d does not fit HH2 %dx%d", ErrShapeMismatch, n, n, hc, hr)
	}
	return nil
}

func (e *Engine) strength() float64 {
	if e.Strength == 0 {
		return 1
	}
	return e.Strength
}
