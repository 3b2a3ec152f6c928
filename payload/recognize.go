package payload

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"slices"
	"sync"
)

// Recognizer maps a payload bitmap back to text. Empty text is a valid,
// unsuccessful result.
type Recognizer interface {
	Recognize(ctx context.Context, img *image.Gray) (string, error)
}

var ErrCanvasSize = errors.New("payload: bitmap size does not match canvas")

// Alphabet is the rune set GlyphRecognizer tries, in tie-break order.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789abcdefghijklmnopqrstuvwxyz"

const (
	// matchBias is the correlation a glyph must beat to lengthen a line.
	matchBias = 0.5
	maxSpaces = 3
)

// GlyphRecognizer reads bitmaps produced by its own Codec's face. Every
// rune of Alphabet is scored at every pen column by normalized
// cross-correlation against a clean rendering, and the line is the chain of
// glyphs, spaced by the face's own advances and kerning, with the highest
// total score. Correlation ignores gain and offset, so the washed out,
// ringing bitmaps that come back from extraction read like clean ones.
// It is not a general OCR engine.
type GlyphRecognizer struct {
	codec *Codec

	once   sync.Once
	glyphs []*glyph
	kern   [][]int // kern[i][j] between glyphs[i] and glyphs[j]
	space  spacing
}

// spacing is the pen travel of runs of spaces.
type spacing struct {
	advance   int
	after     []int // kern from glyphs[i] to a space
	before    []int // kern from a space to glyphs[i]
	repeating int   // kern between two spaces
}

func NewGlyphRecognizer(c *Codec) *GlyphRecognizer {
	return &GlyphRecognizer{codec: c}
}

type glyph struct {
	r       rune
	pix     [][]float64 // band rows × columns, coverage in [0, 1]
	origin  int         // column of the pen position
	advance int
	// Ink extent relative to the pen, inclusive.
	inkLeft, inkRight int
}

func (t *glyph) at(y, dx int) float64 {
	x := t.origin + dx
	if x < 0 || x >= len(t.pix[y]) {
		return 0
	}
	return t.pix[y][x]
}

// link is a DP back pointer; g < 0 starts a line.
type link struct {
	x, g, spaces int
}

// Recognize implements Recognizer.
func (g *GlyphRecognizer) Recognize(ctx context.Context, img *image.Gray) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b := img.Bounds()
	if b.Dx() != g.codec.size || b.Dy() != g.codec.size {
		return "", fmt.Errorf("%w: got %dx%d, want %dx%d", ErrCanvasSize, b.Dx(), b.Dy(), g.codec.size, g.codec.size)
	}
	g.once.Do(g.build)
	if len(g.glyphs) == 0 {
		return "", nil
	}

	top, bottom := g.codec.band()
	top, bottom = max(top, 0), min(bottom, b.Dy())
	band := make([][]float64, bottom-top)
	for y := range band {
		band[y] = make([]float64, b.Dx())
		for x := range band[y] {
			band[y][x] = float64(img.GrayAt(b.Min.X+x, b.Min.Y+top+y).Y) / 255
		}
	}
	// Glyphs are cut to the full band; clip them the same way.
	offset := top - (g.codec.baseline() - g.codec.face.Metrics().Ascent.Ceil())

	width := b.Dx()
	scores := make([][]float64, width)
	for x := range scores {
		if x%32 == 0 {
			if err := ctx.Err(); err != nil {
				return "", err
			}
		}
		scores[x] = make([]float64, len(g.glyphs))
		for i, t := range g.glyphs {
			scores[x][i] = ncc(band, t, x, offset)
		}
	}

	cum := make([][]float64, width)
	back := make([][]link, width)
	end := link{g: -1}
	best := 0.0
	for x := 0; x < width; x++ {
		cum[x] = make([]float64, len(g.glyphs))
		back[x] = make([]link, len(g.glyphs))
		for i := range g.glyphs {
			from, prev := link{g: -1}, 0.0
			for p, pt := range g.glyphs {
				for n := 0; n <= maxSpaces; n++ {
					if n > 0 && g.space.advance == 0 {
						break
					}
					px := x - pt.advance - g.gap(p, i, n)
					if px < 0 || px >= x {
						continue
					}
					if c := cum[px][p]; c > prev {
						from, prev = link{x: px, g: p, spaces: n}, c
					}
				}
			}
			c := scores[x][i] - matchBias + prev
			cum[x][i], back[x][i] = c, from
			if c > best {
				best, end = c, link{x: x, g: i}
			}
		}
	}

	var out []rune
	for at := end; at.g >= 0; {
		out = append(out, g.glyphs[at.g].r)
		from := back[at.x][at.g]
		for s := 0; s < from.spaces; s++ {
			out = append(out, ' ')
		}
		at = from
	}
	slices.Reverse(out)
	return string(out), nil
}

// gap is the pen travel between the end of glyphs[p]'s advance and the pen
// of glyphs[i] with n spaces between them.
func (g *GlyphRecognizer) gap(p, i, n int) int {
	if n == 0 {
		return g.kern[p][i]
	}
	s := g.space
	return s.after[p] + n*s.advance + (n-1)*s.repeating + s.before[i]
}

// build renders one glyph per rune of Alphabet and tabulates the pen
// travel between every pair.
func (g *GlyphRecognizer) build() {
	c := g.codec
	m := c.face.Metrics()
	height := m.Ascent.Ceil() + m.Descent.Ceil()
	pad := m.Height.Ceil()

	for _, r := range Alphabet {
		adv, ok := c.face.GlyphAdvance(r)
		if !ok {
			continue
		}
		t := &glyph{r: r, origin: pad, advance: adv.Round()}
		canvas := image.NewGray(image.Rect(0, 0, t.advance+2*pad, height))
		c.draw(canvas, string(r), pad, m.Ascent.Ceil())

		left, right := math.MaxInt, math.MinInt
		t.pix = make([][]float64, height)
		for y := range t.pix {
			t.pix[y] = make([]float64, canvas.Rect.Dx())
			for x := range t.pix[y] {
				if v := canvas.GrayAt(x, y).Y; v > 0 {
					t.pix[y][x] = float64(v) / 255
					left, right = min(left, x-pad), max(right, x-pad)
				}
			}
		}
		if left > right || t.advance <= 0 {
			continue
		}
		t.inkLeft, t.inkRight = left, right
		g.glyphs = append(g.glyphs, t)
	}

	kern := func(a, b rune) int { return c.face.Kern(a, b).Round() }
	g.kern = make([][]int, len(g.glyphs))
	g.space.after = make([]int, len(g.glyphs))
	g.space.before = make([]int, len(g.glyphs))
	for i, a := range g.glyphs {
		g.kern[i] = make([]int, len(g.glyphs))
		for j, b := range g.glyphs {
			g.kern[i][j] = kern(a.r, b.r)
		}
		g.space.after[i] = kern(a.r, ' ')
		g.space.before[i] = kern(' ', a.r)
	}
	if adv, ok := c.face.GlyphAdvance(' '); ok {
		g.space.advance = adv.Round()
	}
	g.space.repeating = kern(' ', ' ')
}

// ncc is the Pearson correlation between glyph t, with its pen at column
// at, and the band, over the wider of t's advance box and ink box. Pixels
// outside the canvas count as black. A flat window scores 0.
func ncc(band [][]float64, t *glyph, at, offset int) float64 {
	lo := at + min(0, t.inkLeft)
	hi := at + max(t.advance, t.inkRight+1)
	var n, st, si, stt, sii, sti float64
	for y, row := range band {
		ty := y + offset
		if ty < 0 || ty >= len(t.pix) {
			continue
		}
		for x := lo; x < hi; x++ {
			tv := t.at(ty, x-at)
			var iv float64
			if x >= 0 && x < len(row) {
				iv = row[x]
			}
			n++
			st += tv
			si += iv
			stt += tv * tv
			sii += iv * iv
			sti += tv * iv
		}
	}
	if n == 0 {
		return 0
	}
	vt := stt - st*st/n
	vi := sii - si*si/n
	if vt <= 1e-12 || vi <= 1e-12 {
		return 0
	}
	return (sti - st*si/n) / math.Sqrt(vt*vi)
}
