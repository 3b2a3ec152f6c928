package payload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Tesseract shells out to the tesseract OCR binary.
type Tesseract struct {
	Path     string // binary, "tesseract" when empty
	Language string // "eng" when empty
	PSM      int    // page segmentation mode, 7 (single line) when zero
}

// Recognize implements Recognizer.
func (t *Tesseract) Recognize(ctx context.Context, img *image.Gray) (string, error) {
	f, err := os.CreateTemp("", "certmark-*.png")
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	defer os.Remove(f.Name())

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("tesseract: encode %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.binary(), t.args(f.Name())...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

func (t *Tesseract) binary() string {
	if t.Path == "" {
		return "tesseract"
	}
	return t.Path
}

func (t *Tesseract) args(input string) []string {
	lang, psm := t.Language, t.PSM
	if lang == "" {
		lang = "eng"
	}
	if psm == 0 {
		psm = 7
	}
	return []string{input, "stdout", "--psm", strconv.Itoa(psm), "-l", lang}
}
