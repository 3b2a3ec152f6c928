package converter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
)

const (
	// Version is the layout written by Pack.
	Version byte = 1
	// Repeat is the number of copies of every header bit.
	Repeat = 3

	magic0, magic1 = 'C', 'M'
	headerLen      = 22
)

// Bits is the number of embedded bits a packed header occupies.
const Bits = headerLen * 8 * Repeat

var (
	ErrNoHeader = errors.New("converter: no header")
	ErrChecksum = errors.New("converter: header checksum mismatch")
	ErrVersion  = errors.New("converter: unsupported header version")
)

// Header describes how a payload was embedded, so that an extractor can read
// parameters instead of assuming them.
type Header struct {
	Version      byte
	Capacity     byte
	Iterations   uint16
	WorkingSize  uint16
	PayloadSize  uint16
	Strength     float32
	TextChecksum uint32
}

// Checksum is the CRC-32 (IEEE) of the embedded text.
func Checksum(text string) uint32 {
	return crc32.ChecksumIEEE([]byte(text))
}

// Pack serializes h and spreads Repeat copies of it across the bit stream.
// Layout: [magic 2][version 1][capacity 1][iterations 2][working 2]
// [payload 2][strength 4][text crc 4][header crc 4], big endian.
func Pack(h Header) []bool {
	// 1. 构建定长头部
	buf := make([]byte, headerLen)
	buf[0], buf[1] = magic0, magic1
	buf[2] = Version
	buf[3] = h.Capacity
	binary.BigEndian.PutUint16(buf[4:6], h.Iterations)
	binary.BigEndian.PutUint16(buf[6:8], h.WorkingSize)
	binary.BigEndian.PutUint16(buf[8:10], h.PayloadSize)
	binary.BigEndian.PutUint32(buf[10:14], math.Float32bits(h.Strength))
	binary.BigEndian.PutUint32(buf[14:18], h.TextChecksum)
	binary.BigEndian.PutUint32(buf[18:22], crc32.ChecksumIEEE(buf[:18]))

	// 2. 转为 bit 并重复 Repeat 份
	return spread(buf)
}

// Unpack majority-decodes the copies written by Pack and validates them.
func Unpack(bits []bool) (Header, error) {
	if len(bits) < Bits {
		return Header{}, fmt.Errorf("%w: %d bits, need %d", ErrNoHeader, len(bits), Bits)
	}
	// 1. 多数表决还原字节
	buf := vote(bits, headerLen)

	// 2. 校验 magic、CRC 和版本

	if buf[0] != magic0 || buf[1] != magic1 {
		return Header{}, ErrNoHeader
	}
	if want, got := binary.BigEndian.Uint32(buf[18:22]), crc32.ChecksumIEEE(buf[:18]); want != got {
		return Header{}, fmt.Errorf("%w: stored %08x, computed %08x", ErrChecksum, want, got)
	}
	if buf[2] != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, buf[2])
	}

	return Header{
		Version:      buf[2],
		Capacity:     buf[3],
		Iterations:   binary.BigEndian.Uint16(buf[4:6]),
		WorkingSize:  binary.BigEndian.Uint16(buf[6:8]),
		PayloadSize:  binary.BigEndian.Uint16(buf[8:10]),
		Strength:     math.Float32frombits(binary.BigEndian.Uint32(buf[10:14])),
		TextChecksum: binary.BigEndian.Uint32(buf[14:18]),
	}, nil
}

// spread lays buf out MSB first, Repeat times in a row.
func spread(buf []byte) []bool {
	n := len(buf) * 8
	bits := make([]bool, n*Repeat)
	for i := 0; i < n; i++ {
		bit := buf[i/8]&(0x80>>(i%8)) != 0
		for k := 0; k < Repeat; k++ {
			bits[k*n+i] = bit
		}
	}
	return bits
}

// vote reads size bytes back from the copies laid out by spread, taking
// each bit by majority.
func vote(bits []bool, size int) []byte {
	n := size * 8
	buf := make([]byte, size)
	for i := 0; i < n; i++ {
		ones := 0
		for k := 0; k < Repeat; k++ {
			if bits[k*n+i] {
				ones++
			}
		}
		if ones*2 > Repeat {
			buf[i/8] |= 0x80 >> (i % 8)
		}
	}
	return buf
}
