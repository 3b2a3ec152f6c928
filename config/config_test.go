package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certmark"
	"certmark/core"
	"certmark/payload"
)

func TestDefaultMatchesParams(t *testing.T) {
	p, err := Default().Params()
	require.NoError(t, err)
	assert.Equal(t, certmark.DefaultParams(), p)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "certmark.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
embed:
  iterations: 3
  capacity: full
extract:
  recognizer: tesseract
  psm: 6
  header_policy: adopt
noise:
  sigmas: [2]
files:
  watermarked: out.png
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, 3, p.Iterations)
	assert.Equal(t, core.CapacityFull, p.Capacity)
	assert.Equal(t, 1024, p.WorkingSize, "unset keys keep their defaults")
	assert.True(t, p.RestoreSize)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	rec, err := cfg.Recognizer()
	require.NoError(t, err)
	assert.Equal(t, &payload.Tesseract{Language: "eng", PSM: 6}, rec)

	policy, err := cfg.HeaderPolicy()
	require.NoError(t, err)
	assert.Equal(t, certmark.HeaderAdopt, policy)

	assert.Equal(t, []float64{2}, cfg.NoiseOptions().Sigmas)
	assert.Equal(t, 6000, cfg.NoiseOptions().SaltPepper)
	assert.Equal(t, "out.png", cfg.Files.Watermarked)
	assert.Equal(t, "extracted_watermark.png", cfg.Files.Extracted)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("embed: [1"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	cfg := Default()
	cfg.Embed.Capacity = "diagonal"
	_, err := cfg.Params()
	assert.Error(t, err)

	cfg = Default()
	cfg.Embed.PayloadSize = 0
	_, err = cfg.Params()
	assert.ErrorIs(t, err, certmark.ErrInvalidParams)

	cfg = Default()
	cfg.Extract.Recognizer = "eyeball"
	_, err = cfg.Recognizer()
	assert.Error(t, err)

	rec, err := Default().Recognizer()
	require.NoError(t, err)
	assert.Nil(t, rec)

	cfg = Default()
	cfg.LogLevel = "loud"
	_, err = cfg.Level()
	assert.Error(t, err)
}
