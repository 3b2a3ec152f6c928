package main

import (
	"bytes"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certmark"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func writeCover(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 1024, 1024))
	for y := 0; y < 1024; y++ {
		for x := 0; x < 1024; x++ {
			img.Pix[img.PixOffset(x, y)] = uint8(128 + 40*math.Sin(float64(x)/9) + 30*math.Cos(float64(y)/14))
		}
	}
	require.NoError(t, certmark.SaveImage(path, img))
}

func TestEmbedExtractCommands(t *testing.T) {
	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.png")
	marked := filepath.Join(dir, "marked.png")
	receipt := filepath.Join(dir, "receipt.yaml")
	bitmap := filepath.Join(dir, "bitmap.png")
	writeCover(t, cover)

	out := execute(t, "embed", "-c", cover, "-t", "HELLO", "-o", marked,
		"--payload", filepath.Join(dir, "payload.png"), "--receipt", receipt, "-k", "2")
	assert.True(t, strings.HasPrefix(out, "certmark:v1;cap=triangle;k=2;"), out)
	for _, p := range []string{marked, receipt, filepath.Join(dir, "payload.png")} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	out = execute(t, "extract", "-i", marked, "-o", bitmap, "--receipt", receipt)
	assert.Equal(t, "HELLO\n", out)
	_, err := os.Stat(bitmap)
	assert.NoError(t, err)

	out = execute(t, "quality", "-o", cover, "-w", marked)
	assert.Contains(t, out, "PSNR:")
	assert.Contains(t, out, "SSIM:")
}

func TestNoiseCommand(t *testing.T) {
	dir := t.TempDir()
	cover := filepath.Join(dir, "cover.png")
	writeCover(t, cover)

	out := execute(t, "noise", "-i", cover, "-d", dir)
	for _, name := range []string{"filtered_image_sigma_0.5", "poisson", "salt_pepper"} {
		path := filepath.Join(dir, name+".png")
		assert.Contains(t, out, path)
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}
}
