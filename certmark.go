// Package certmark hides short text in a host image and reads it back.
//
// The payload text is rasterized, scrambled with an Arnold cat map and
// moved into the DCT domain; its low-frequency coefficients then replace
// part of the HH sub-band of the HH sub-band of a two-level Haar
// decomposition of the host. A small parameter header travels in the
// level-1 HL sub-band.
package certmark

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"certmark/converter"
	"certmark/core"
	"certmark/payload"
)

// refinePasses bounds the clip-and-replace passes that keep the payload
// intact where the host is near black or white.
const refinePasses = 8

// Watermarker embeds and extracts text payloads with one set of Params.
// It is not safe for concurrent use.
type Watermarker struct {
	params     Params
	policy     HeaderPolicy
	recognizer payload.Recognizer
	logger     zerolog.Logger
	codec      *payload.Codec
}

type Option func(*Watermarker)

// WithRecognizer replaces the built-in glyph recognizer, e.g. with
// payload.Tesseract.
func WithRecognizer(r payload.Recognizer) Option {
	return func(w *Watermarker) { w.recognizer = r }
}

// WithHeaderPolicy sets how Extract treats an embedded header. The default
// is HeaderVerify.
func WithHeaderPolicy(p HeaderPolicy) Option {
	return func(w *Watermarker) { w.policy = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(w *Watermarker) { w.logger = l }
}

func New(p Params, opts ...Option) (*Watermarker, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w := &Watermarker{params: p, logger: log.Logger}
	for _, opt := range opts {
		opt(w)
	}
	codec, err := payload.NewCodec(p.PayloadSize, p.FontSize, p.FontPath, w.logger)
	if err != nil {
		return nil, err
	}
	w.codec = codec
	return w, nil
}

// Params returns the parameters w was built with.
func (w *Watermarker) Params() Params { return w.params }

// EmbedResult holds the artifacts of one embedding.
type EmbedResult struct {
	Watermarked *image.Gray
	Payload     *image.Gray // rasterized text before scrambling
	Header      converter.Header
}

// EmbedText hides text in src. src itself is never modified.
func (w *Watermarker) EmbedText(src image.Image, text string) (*EmbedResult, error) {
	p := w.params
	host := ConvertToGray(src)
	ow, oh := host.Rect.Dx(), host.Rect.Dy()
	if ow == 0 || oh == 0 {
		return nil, fmt.Errorf("%w: empty host image", core.ErrShapeMismatch)
	}
	if p.RestoreSize && min(ow, oh) < p.WorkingSize {
		w.logger.Warn().Int("width", ow).Int("height", oh).Int("working_size", p.WorkingSize).
			Msg("host is smaller than the working size; restoring it will destroy the watermark, disable restore_size to keep it")
	}
	work := resize(host, p.WorkingSize, p.WorkingSize)

	if n := utf8.RuneCountInString(text); n > MaxLegibleChars(p) || !w.codec.Fits(text) {
		w.logger.Warn().Str("text", text).Int("chars", n).Int("canvas", p.PayloadSize).
			Msg("text is unlikely to survive extraction legibly")
	}
	mark := w.codec.Rasterize(text)

	scrambled, err := core.Scramble(toDense(mark), p.Iterations)
	if err != nil {
		return nil, fmt.Errorf("scramble: %w", err)
	}
	coeffs := core.Forward(scrambled)
	if err := core.Truncate(coeffs, p.Capacity); err != nil {
		return nil, fmt.Errorf("truncate: %w", err)
	}

	hdr := p.header(text)
	var bits []bool
	if p.Header {
		bits = converter.Pack(hdr)
	}
	engine := &core.Engine{
		Strength:     p.Strength,
		Capacity:     p.Capacity,
		HeaderMargin: HeaderMargin,
		Lo:           0,
		Hi:           255,
		Refine:       refinePasses,
	}
	marked, err := engine.Embed(toDense(work), coeffs, bits)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	out := fromDense(marked)
	if p.RestoreSize {
		out = resize(out, ow, oh)
	}
	w.logger.Debug().
		Int("width", ow).Int("height", oh).
		Int("working_size", p.WorkingSize).Int("payload_size", p.PayloadSize).
		Int("iterations", p.Iterations).Str("capacity", p.Capacity.String()).
		Bool("header", p.Header).
		Msg("embedded watermark")

	return &EmbedResult{Watermarked: out, Payload: mark, Header: hdr}, nil
}

// ExtractResult holds what Extract recovered.
type ExtractResult struct {
	Text     string
	Bitmap   *image.Gray       // unscrambled, normalized payload
	Header   *converter.Header // nil when none was found or read
	Params   Params            // parameters the payload was read with
	Verified bool              // Text matches the header's checksum
}

// Extract recovers the payload from a possibly degraded watermarked image.
// Wrong parameters yield garbage text, not an error, unless a header says
// otherwise. When only recognition fails, the result still carries Bitmap
// and the error wraps ErrRecognize.
func (w *Watermarker) Extract(ctx context.Context, src image.Image) (*ExtractResult, error) {
	p := w.params
	gray := ConvertToGray(src)
	if gray.Rect.Empty() {
		return nil, fmt.Errorf("%w: empty image", core.ErrShapeMismatch)
	}
	m := toDense(resize(gray, p.WorkingSize, p.WorkingSize))

	var hdr *converter.Header
	if w.policy != HeaderIgnore {
		h, err := readHeader(m)
		switch {
		case err != nil:
			w.logger.Warn().Err(err).Msg("no usable header, using caller parameters")
		case w.policy == HeaderVerify:
			if err := p.mismatch(h); err != nil {
				return nil, err
			}
			hdr = &h
		case w.policy == HeaderAdopt:
			p = p.adopt(h)
			if err := p.Validate(); err != nil {
				return nil, fmt.Errorf("header: %w", err)
			}
			hdr = &h
		}
	}

	engine := &core.Engine{Strength: p.Strength, Capacity: p.Capacity}
	coeffs, err := engine.Extract(m, p.PayloadSize)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	plain, err := core.Unscramble(core.Inverse(coeffs), p.Iterations)
	if err != nil {
		return nil, fmt.Errorf("unscramble: %w", err)
	}

	res := &ExtractResult{Bitmap: normalize(plain), Header: hdr, Params: p}
	rec, err := w.recognizerFor(p)
	if err != nil {
		return res, err
	}
	text, err := rec.Recognize(ctx, res.Bitmap)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrRecognize, err)
	}
	res.Text = strings.TrimSpace(text)
	res.Verified = hdr != nil && converter.Checksum(res.Text) == hdr.TextChecksum

	w.logger.Debug().Str("text", res.Text).Bool("verified", res.Verified).
		Int("iterations", p.Iterations).Msg("extracted watermark")
	return res, nil
}

func readHeader(m mat.Matrix) (converter.Header, error) {
	bits, err := (&core.Engine{}).ExtractHeader(m, converter.Bits)
	if err != nil {
		return converter.Header{}, err
	}
	return converter.Unpack(bits)
}

// recognizerFor returns the configured recognizer, or a glyph recognizer
// for a canvas of p.PayloadSize.
func (w *Watermarker) recognizerFor(p Params) (payload.Recognizer, error) {
	if w.recognizer != nil {
		return w.recognizer, nil
	}
	codec := w.codec
	if codec.Size() != p.PayloadSize {
		var err error
		if codec, err = payload.NewCodec(p.PayloadSize, p.FontSize, p.FontPath, w.logger); err != nil {
			return nil, err
		}
	}
	return payload.NewGlyphRecognizer(codec), nil
}

// MaxLegibleChars scales payload.MaxLegibleChars to p's canvas and font.
func MaxLegibleChars(p Params) int {
	return max(1, int(float64(payload.MaxLegibleChars)*float64(p.PayloadSize)/256*20/p.FontSize))
}

// IsParameterMismatch reports whether err came from a header disagreeing
// with the caller's parameters.
func IsParameterMismatch(err error) bool {
	return errors.Is(err, ErrParameterMismatch)
}
