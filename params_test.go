package certmark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certmark/converter"
	"certmark/core"
)

func TestDefaultParamsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Params)
		field string
	}{
		{"negative iterations", func(p *Params) { p.Iterations = -1 }, "iterations"},
		{"odd working size", func(p *Params) { p.WorkingSize = 1026 }, "working size"},
		{"payload larger than HH2", func(p *Params) { p.PayloadSize = 257 }, "payload size"},
		{"zero font", func(p *Params) { p.FontSize = 0 }, "font size"},
		{"zero strength", func(p *Params) { p.Strength = 0 }, "strength"},
		{"unknown capacity", func(p *Params) { p.Capacity = 9 }, "capacity"},
		{"header does not fit", func(p *Params) { p.WorkingSize, p.PayloadSize = 64, 16 }, "header bits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.edit(&p)
			err := p.Validate()
			require.ErrorIs(t, err, ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	p := DefaultParams()
	p.WorkingSize, p.PayloadSize, p.Header = 64, 16, false
	assert.NoError(t, p.Validate(), "small layouts are fine without a header")
}

func TestHeaderFromParams(t *testing.T) {
	p := DefaultParams()
	p.Iterations = 4
	p.Capacity = core.CapacityFull
	h := p.header("HELLO")

	assert.Equal(t, converter.Header{
		Version:      converter.Version,
		Capacity:     byte(core.CapacityFull),
		Iterations:   4,
		WorkingSize:  1024,
		PayloadSize:  256,
		Strength:     0.5,
		TextChecksum: converter.Checksum("HELLO"),
	}, h)

	assert.NoError(t, p.mismatch(h))
	assert.Equal(t, p, DefaultParams().adopt(h))
}

func TestMismatchNamesField(t *testing.T) {
	h := DefaultParams().header("A")
	h.PayloadSize = 128
	err := DefaultParams().mismatch(h)
	require.ErrorIs(t, err, ErrParameterMismatch)
	assert.Contains(t, err.Error(), "payload size is 128")
}

func TestParseHeaderPolicy(t *testing.T) {
	for _, h := range []HeaderPolicy{HeaderVerify, HeaderAdopt, HeaderIgnore} {
		got, err := ParseHeaderPolicy(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, got)
	}
	got, err := ParseHeaderPolicy("")
	require.NoError(t, err)
	assert.Equal(t, HeaderVerify, got)

	_, err = ParseHeaderPolicy("trust")
	assert.Error(t, err)
}
