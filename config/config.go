// Package config loads certmark settings from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"certmark"
	"certmark/core"
	"certmark/noise"
	"certmark/payload"
)

type Config struct {
	LogLevel string  `yaml:"log_level"`
	Human    bool    `yaml:"human"`
	Embed    Embed   `yaml:"embed"`
	Extract  Extract `yaml:"extract"`
	Noise    Noise   `yaml:"noise"`
	Files    Files   `yaml:"files"`
}

type Embed struct {
	Iterations  int     `yaml:"iterations"`
	WorkingSize int     `yaml:"working_size"`
	PayloadSize int     `yaml:"payload_size"`
	FontSize    float64 `yaml:"font_size"`
	FontPath    string  `yaml:"font_path"`
	Strength    float64 `yaml:"strength"`
	Capacity    string  `yaml:"capacity"`
	RestoreSize bool    `yaml:"restore_size"`
	Header      bool    `yaml:"header"`
}

type Extract struct {
	Recognizer    string `yaml:"recognizer"` // "glyph" or "tesseract"
	TesseractPath string `yaml:"tesseract_path"`
	PSM           int    `yaml:"psm"`
	Language      string `yaml:"language"`
	HeaderPolicy  string `yaml:"header_policy"`
}

type Noise struct {
	Sigmas     []float64 `yaml:"sigmas"`
	SaltPepper int       `yaml:"salt_pepper"`
	Poisson    bool      `yaml:"poisson"`
	Seed       uint64    `yaml:"seed"`
}

type Files struct {
	Cover       string `yaml:"cover"`
	Payload     string `yaml:"payload"`
	Watermarked string `yaml:"watermarked"`
	Extracted   string `yaml:"extracted"`
	Receipt     string `yaml:"receipt"`
}

func Default() Config {
	p := certmark.DefaultParams()
	n := noise.DefaultOptions()
	return Config{
		LogLevel: "info",
		Embed: Embed{
			Iterations:  p.Iterations,
			WorkingSize: p.WorkingSize,
			PayloadSize: p.PayloadSize,
			FontSize:    p.FontSize,
			Strength:    p.Strength,
			Capacity:    p.Capacity.String(),
			RestoreSize: p.RestoreSize,
			Header:      p.Header,
		},
		Extract: Extract{
			Recognizer:   "glyph",
			PSM:          7,
			Language:     "eng",
			HeaderPolicy: certmark.HeaderVerify.String(),
		},
		Noise: Noise{
			Sigmas:     n.Sigmas,
			SaltPepper: n.SaltPepper,
			Poisson:    n.Poisson,
			Seed:       n.Seed,
		},
		Files: Files{
			Cover:       "certificate.png",
			Payload:     "watermark_image.png",
			Watermarked: "watermarked_certificate.png",
			Extracted:   "extracted_watermark.png",
		},
	}
}

// Load reads path over Default. An empty path yields Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Params returns validated embedding parameters.
func (c Config) Params() (certmark.Params, error) {
	capacity, err := core.ParseCapacity(c.Embed.Capacity)
	if err != nil {
		return certmark.Params{}, err
	}
	p := certmark.Params{
		Iterations:  c.Embed.Iterations,
		WorkingSize: c.Embed.WorkingSize,
		PayloadSize: c.Embed.PayloadSize,
		FontSize:    c.Embed.FontSize,
		FontPath:    c.Embed.FontPath,
		Strength:    c.Embed.Strength,
		Capacity:    capacity,
		RestoreSize: c.Embed.RestoreSize,
		Header:      c.Embed.Header,
	}
	return p, p.Validate()
}

// Level parses LogLevel, defaulting to info.
func (c Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(c.LogLevel)
}

func (c Config) NoiseOptions() noise.Options {
	return noise.Options{
		Sigmas:     c.Noise.Sigmas,
		SaltPepper: c.Noise.SaltPepper,
		Poisson:    c.Noise.Poisson,
		Seed:       c.Noise.Seed,
	}
}

// Recognizer returns nil for the built-in glyph recognizer.
func (c Config) Recognizer() (payload.Recognizer, error) {
	switch c.Extract.Recognizer {
	case "", "glyph":
		return nil, nil
	case "tesseract":
		return &payload.Tesseract{
			Path:     c.Extract.TesseractPath,
			Language: c.Extract.Language,
			PSM:      c.Extract.PSM,
		}, nil
	}
	return nil, fmt.Errorf("config: unknown recognizer %q", c.Extract.Recognizer)
}

func (c Config) HeaderPolicy() (certmark.HeaderPolicy, error) {
	return certmark.ParseHeaderPolicy(c.Extract.HeaderPolicy)
}
