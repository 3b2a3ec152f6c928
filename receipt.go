package certmark

import (
	"fmt"
	"os"
	"strconv"

	"github.com/skip2/go-qrcode"
	"gopkg.in/yaml.v3"

	"certmark/converter"
	"certmark/core"
)

// Receipt is the human-readable record of one embedding. It carries the
// same fields as the embedded header, so extraction can be parameterized
// from it when the header itself did not survive.
type Receipt struct {
	Version     int     `yaml:"version"`
	Capacity    string  `yaml:"capacity"`
	Iterations  int     `yaml:"iterations"`
	WorkingSize int     `yaml:"working_size"`
	PayloadSize int     `yaml:"payload_size"`
	Strength    float64 `yaml:"strength"`
	TextCRC32   string  `yaml:"text_crc32"`
}

func NewReceipt(h converter.Header) Receipt {
	return Receipt{
		Version:     int(h.Version),
		Capacity:    core.Capacity(h.Capacity).String(),
		Iterations:  int(h.Iterations),
		WorkingSize: int(h.WorkingSize),
		PayloadSize: int(h.PayloadSize),
		Strength:    float64(h.Strength),
		TextCRC32:   fmt.Sprintf("%08x", h.TextChecksum),
	}
}

// Apply returns p with the receipt's embedding parameters.
func (r Receipt) Apply(p Params) (Params, error) {
	c, err := core.ParseCapacity(r.Capacity)
	if err != nil {
		return p, fmt.Errorf("receipt: %w", err)
	}
	p.Capacity = c
	p.Iterations = r.Iterations
	p.WorkingSize = r.WorkingSize
	p.PayloadSize = r.PayloadSize
	if r.Strength > 0 {
		p.Strength = r.Strength
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("receipt: %w", err)
	}
	return p, nil
}

// Checksum is the CRC-32 of the embedded text.
func (r Receipt) Checksum() (uint32, error) {
	v, err := strconv.ParseUint(r.TextCRC32, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("receipt: text_crc32 %q: %w", r.TextCRC32, err)
	}
	return uint32(v), nil
}

// String is the compact form encoded into receipt QR codes.
func (r Receipt) String() string {
	return fmt.Sprintf("certmark:v%d;cap=%s;k=%d;ws=%d;ps=%d;s=%g;crc=%s",
		r.Version, r.Capacity, r.Iterations, r.WorkingSize, r.PayloadSize, r.Strength, r.TextCRC32)
}

func WriteReceipt(path string, h converter.Header) error {
	data, err := yaml.Marshal(NewReceipt(h))
	if err != nil {
		return fmt.Errorf("receipt %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("receipt %s: %w", path, err)
	}
	return nil
}

func LoadReceipt(path string) (Receipt, error) {
	var r Receipt
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("receipt %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("receipt %s: %w", path, err)
	}
	return r, nil
}

// WriteReceiptQR renders the receipt's compact form as a size×size QR PNG.
func WriteReceiptQR(path string, h converter.Header, size int) error {
	if err := qrcode.WriteFile(NewReceipt(h).String(), qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("receipt qr %s: %w", path, err)
	}
	return nil
}
