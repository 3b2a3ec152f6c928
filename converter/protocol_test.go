package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHeader() Header {
	return Header{
		Version:      Version,
		Capacity:     1,
		Iterations:   5,
		WorkingSize:  1024,
		PayloadSize:  256,
		Strength:     0.5,
		TextChecksum: Checksum("HELLO"),
	}
}

func TestPackUnpack(t *testing.T) {
	bits := Pack(sampleHeader())
	require.Len(t, bits, Bits)

	got, err := Unpack(bits)
	require.NoError(t, err)
	assert.Equal(t, sampleHeader(), got)
}

func TestUnpackSurvivesOneDamagedCopy(t *testing.T) {
	bits := Pack(sampleHeader())
	n := Bits / Repeat
	for i := 0; i < n; i += 3 {
		bits[n+i] = !bits[n+i]
	}
	got, err := Unpack(bits)
	require.NoError(t, err)
	assert.Equal(t, sampleHeader(), got)
}

func TestUnpackRejectsGarbage(t *testing.T) {
	_, err := Unpack(make([]bool, Bits))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Unpack(make([]bool, 10))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestUnpackDetectsCorruption(t *testing.T) {
	bits := Pack(sampleHeader())
	n := Bits / Repeat
	// Flip the same iterations bit in two of three copies.
	pos := 5*8 + 7
	bits[pos] = !bits[pos]
	bits[n+pos] = !bits[n+pos]

	_, err := Unpack(bits)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, Checksum("HELLO"), Checksum("HELLO"))
	assert.NotEqual(t, Checksum("HELLO"), Checksum("HELL0"))
}

func TestSpreadVote(t *testing.T) {
	data := []byte{0x00, 0xff, 0xa5, 0x3c}
	bits := spread(data)
	require.Len(t, bits, len(data)*8*Repeat)
	assert.Equal(t, []bool{true, false, true, false, false, true, false, true}, bits[16:24])
	assert.Equal(t, bits[:32], bits[32:64])
	assert.Equal(t, data, vote(bits, len(data)))

	// One bad copy per bit is outvoted.
	for i := 0; i < 32; i++ {
		bits[i] = !bits[i]
	}
	assert.Equal(t, data, vote(bits, len(data)))
}
