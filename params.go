package certmark

import (
	"errors"
	"fmt"

	"certmark/converter"
	"certmark/core"
)

var (
	ErrInvalidParams     = errors.New("certmark: invalid parameters")
	ErrParameterMismatch = errors.New("certmark: embedding parameters do not match")
	ErrRecognize         = errors.New("certmark: recognition failed")
)

// HeaderMargin is the coefficient-pair gap used for every header bit.
const HeaderMargin = 20.0

// Params must be identical on both sides of an embed/extract pair unless the
// header is adopted.
type Params struct {
	Iterations  int           // Arnold scramble iterations
	WorkingSize int           // side of the square working resolution
	PayloadSize int           // side of the payload bitmap
	FontSize    float64       // points at 72 DPI
	FontPath    string        // optional font file
	Strength    float64       // payload coefficient scale
	Capacity    core.Capacity // truncation geometry
	RestoreSize bool          // resize back to the host's dimensions
	Header      bool          // embed a parameter header
}

// DefaultParams returns the 1024/256 layout with one scramble iteration.
func DefaultParams() Params {
	return Params{
		Iterations:  1,
		WorkingSize: 1024,
		PayloadSize: 256,
		FontSize:    20,
		Strength:    0.5,
		Capacity:    core.CapacityTriangle,
		RestoreSize: true,
		Header:      true,
	}
}

// Validate checks p and names the first offending field.
func (p Params) Validate() error {
	switch {
	case p.Iterations < 0 || p.Iterations > 0xffff:
		return fmt.Errorf("%w: iterations %d out of range [0, 65535]", ErrInvalidParams, p.Iterations)
	case p.WorkingSize <= 0 || p.WorkingSize%4 != 0 || p.WorkingSize > 0xffff:
		return fmt.Errorf("%w: working size %d must be a positive multiple of 4", ErrInvalidParams, p.WorkingSize)
	case p.PayloadSize <= 0 || p.PayloadSize > p.WorkingSize/4:
		return fmt.Errorf("%w: payload size %d must be in [1, %d]", ErrInvalidParams, p.PayloadSize, p.WorkingSize/4)
	case p.FontSize <= 0:
		return fmt.Errorf("%w: font size %g must be positive", ErrInvalidParams, p.FontSize)
	case p.Strength <= 0:
		return fmt.Errorf("%w: strength %g must be positive", ErrInvalidParams, p.Strength)
	case p.Capacity != core.CapacityTriangle && p.Capacity != core.CapacityFull:
		return fmt.Errorf("%w: capacity %s", ErrInvalidParams, p.Capacity)
	}
	if p.Header {
		if blocks := (p.WorkingSize / 2 / core.N) * (p.WorkingSize / 2 / core.N); blocks < converter.Bits {
			return fmt.Errorf("%w: working size %d holds %d header bits, need %d", ErrInvalidParams, p.WorkingSize, blocks, converter.Bits)
		}
	}
	return nil
}

func (p Params) header(text string) converter.Header {
	return converter.Header{
		Version:      converter.Version,
		Capacity:     byte(p.Capacity),
		Iterations:   uint16(p.Iterations),
		WorkingSize:  uint16(p.WorkingSize),
		PayloadSize:  uint16(p.PayloadSize),
		Strength:     float32(p.Strength),
		TextChecksum: converter.Checksum(text),
	}
}

// adopt overrides p with what h records.
func (p Params) adopt(h converter.Header) Params {
	p.Iterations = int(h.Iterations)
	p.WorkingSize = int(h.WorkingSize)
	p.PayloadSize = int(h.PayloadSize)
	p.Capacity = core.Capacity(h.Capacity)
	if h.Strength > 0 {
		p.Strength = float64(h.Strength)
	}
	return p
}

// mismatch reports the first field where h disagrees with p.
func (p Params) mismatch(h converter.Header) error {
	check := []struct {
		name         string
		header, mine int
	}{
		{"iterations", int(h.Iterations), p.Iterations},
		{"working size", int(h.WorkingSize), p.WorkingSize},
		{"payload size", int(h.PayloadSize), p.PayloadSize},
		{"capacity", int(h.Capacity), int(p.Capacity)},
	}
	for _, c := range check {
		if c.header != c.mine {
			return fmt.Errorf("%w: %s is %d in the header, %d requested", ErrParameterMismatch, c.name, c.header, c.mine)
		}
	}
	return nil
}

// HeaderPolicy decides what Extract does with an embedded header.
type HeaderPolicy int

const (
	// HeaderVerify fails on a header that disagrees with the caller.
	HeaderVerify HeaderPolicy = iota
	// HeaderAdopt uses the header's parameters.
	HeaderAdopt
	// HeaderIgnore never reads the header.
	HeaderIgnore
)

func (h HeaderPolicy) String() string {
	switch h {
	case HeaderVerify:
		return "verify"
	case HeaderAdopt:
		return "adopt"
	case HeaderIgnore:
		return "ignore"
	}
	return fmt.Sprintf("HeaderPolicy(%d)", int(h))
}

func ParseHeaderPolicy(s string) (HeaderPolicy, error) {
	for _, h := range []HeaderPolicy{HeaderVerify, HeaderAdopt, HeaderIgnore} {
		if h.String() == s {
			return h, nil
		}
	}
	if s == "" {
		return HeaderVerify, nil
	}
	return 0, fmt.Errorf("certmark: unknown header policy %q", s)
}
