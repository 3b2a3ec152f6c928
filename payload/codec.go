// Package payload turns short text into a fixed-size grayscale bitmap and
// back.
package payload

import (
	"fmt"
	"image"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// MaxLegibleChars is the longest text that stays recognizable on a 256×256
// canvas at 20pt.
const MaxLegibleChars = 5

// Codec renders text white on black, centered on a square canvas.
type Codec struct {
	size int
	face font.Face
}

// NewCodec builds a codec for a size×size canvas. fontPath names a TrueType
// or OpenType file; when it is empty or unusable the Go Regular face is used,
// and basicfont as a last resort.
func NewCodec(size int, fontSize float64, fontPath string, logger zerolog.Logger) (*Codec, error) {
	if size <= 0 {
		return nil, fmt.Errorf("payload: canvas size must be positive, got %d", size)
	}
	if fontSize <= 0 {
		return nil, fmt.Errorf("payload: font size must be positive, got %g", fontSize)
	}
	return &Codec{size: size, face: loadFace(fontSize, fontPath, logger)}, nil
}

func loadFace(size float64, path string, logger zerolog.Logger) font.Face {
	src := goregular.TTF
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("font", path).Msg("font unavailable, using default")
		} else {
			src = data
		}
	}

	f, err := opentype.Parse(src)
	if err != nil && path != "" {
		logger.Warn().Err(err).Str("font", path).Msg("font unreadable, using default")
		f, err = opentype.Parse(goregular.TTF)
	}
	if err == nil {
		face, ferr := opentype.NewFace(f, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if ferr == nil {
			return face
		}
		err = ferr
	}
	logger.Warn().Err(err).Msg("falling back to basicfont")
	return basicfont.Face7x13
}

// Size is the canvas side in pixels.
func (c *Codec) Size() int { return c.size }

// Rasterize renders text onto a fresh canvas. Over-long text is clipped, not
// rejected; see Fits.
func (c *Codec) Rasterize(text string) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, c.size, c.size))
	c.draw(img, text, (c.size-c.measure(text))/2, c.baseline())
	return img
}

// draw renders text with its pen at (x, y), snapping the pen to whole pixels
// after every glyph. It returns the final pen column.
func (c *Codec) draw(dst draw.Image, text string, x, y int) int {
	prev := rune(-1)
	for _, r := range text {
		if prev >= 0 {
			x += c.face.Kern(prev, r).Round()
		}
		dr, mask, maskp, adv, ok := c.face.Glyph(fixed.P(x, y), r)
		if ok {
			draw.DrawMask(dst, dr, image.White, image.Point{}, mask, maskp, draw.Over)
		}
		x += adv.Round()
		prev = r
	}
	return x
}

// measure is the pen travel of text under draw.
func (c *Codec) measure(text string) int {
	w := 0
	prev := rune(-1)
	for _, r := range text {
		if prev >= 0 {
			w += c.face.Kern(prev, r).Round()
		}
		adv, _ := c.face.GlyphAdvance(r)
		w += adv.Round()
		prev = r
	}
	return w
}

// Fits reports whether text renders inside the canvas with legible size.
func (c *Codec) Fits(text string) bool {
	top, bottom := c.band()
	return c.measure(text) <= c.size && top >= 0 && bottom <= c.size
}

// baseline centers the face's line box vertically. It depends only on the
// canvas and the face, never on the text.
func (c *Codec) baseline() int {
	m := c.face.Metrics()
	return ((fixed.I(c.size)-m.Ascent-m.Descent)/2 + m.Ascent).Round()
}

// band is the row range [top, bottom) a line of text can touch.
func (c *Codec) band() (int, int) {
	m := c.face.Metrics()
	b := c.baseline()
	return b - m.Ascent.Ceil(), b + m.Descent.Ceil()
}
