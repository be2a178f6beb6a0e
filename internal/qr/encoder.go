package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
)

// Margin is the quiet zone, in pixels, around every rendered code.
const Margin = 10

// EncodeOptions controls the geometry and colours of a rendered code.
type EncodeOptions struct {
	Size   int
	Margin int
	Fg     color.RGBA
	Bg     color.RGBA
}

// DefaultEncodeOptions returns black on white with the standard margin.
func DefaultEncodeOptions(size int) EncodeOptions {
	return EncodeOptions{
		Size:   size,
		Margin: Margin,
		Fg:     color.RGBA{0, 0, 0, 255},
		Bg:     color.RGBA{255, 255, 255, 255},
	}
}

// Encoder turns a payload into a code image.
type Encoder interface {
	// SVG returns standalone vector markup.
	SVG(payload string, opts EncodeOptions) ([]byte, error)
	// PNG returns a raster image of Size+2*Margin pixels square.
	PNG(payload string, opts EncodeOptions) (image.Image, error)
}

// QREncoder encodes payloads as byte-mode QR codes at the highest
// error-correction level.
type QREncoder struct{}

func (QREncoder) code(payload string) (*qrcode.QRCode, error) {
	qrc, err := qrcode.NewWith(payload,
		qrcode.WithEncodingMode(qrcode.EncModeByte),
		qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", ErrRender, err)
	}
	return qrc, nil
}

// SVG renders vector markup with one rect per dark module.
func (e QREncoder) SVG(payload string, opts EncodeOptions) ([]byte, error) {
	qrc, err := e.code(payload)
	if err != nil {
		return nil, err
	}
	w := &svgWriter{opts: opts}
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("%w: write svg: %v", ErrRender, err)
	}
	return w.buf.Bytes(), nil
}

// PNG renders through the standard image writer with no border, scales the
// symbol to exactly Size pixels and pads it with Margin on every side.
func (e QREncoder) PNG(payload string, opts EncodeOptions) (image.Image, error) {
	qrc, err := e.code(payload)
	if err != nil {
		return nil, err
	}

	dim := qrc.Dimension()
	if dim <= 0 {
		return nil, fmt.Errorf("%w: invalid QR matrix dimension", ErrRender)
	}
	module := opts.Size / dim
	if module < 1 {
		module = 1
	}
	if module > 255 {
		module = 255
	}

	var buf bytes.Buffer
	writer := standard.NewWithWriter(nopCloser{&buf},
		standard.WithQRWidth(uint8(module)),
		standard.WithBorderWidth(0),
		standard.WithBgColor(opts.Bg),
		standard.WithFgColor(opts.Fg),
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
	)
	if err := qrc.Save(writer); err != nil {
		return nil, fmt.Errorf("%w: write png: %v", ErrRender, err)
	}

	symbol, _, err := image.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("%w: decode png: %v", ErrRender, err)
	}

	// Nearest neighbour keeps module edges sharp.
	if b := symbol.Bounds(); b.Dx() != opts.Size || b.Dy() != opts.Size {
		symbol = imaging.Resize(symbol, opts.Size, opts.Size, imaging.NearestNeighbor)
	}

	outer := opts.Size + 2*opts.Margin
	canvas := imaging.New(outer, outer, opts.Bg)
	return imaging.Paste(canvas, symbol, image.Pt(opts.Margin, opts.Margin)), nil
}

// svgWriter implements qrcode.Writer, producing SVG markup from the matrix.
type svgWriter struct {
	opts EncodeOptions
	buf  bytes.Buffer
}

func (w *svgWriter) Write(mat qrcode.Matrix) error {
	dim := mat.Width()
	if dim <= 0 {
		return fmt.Errorf("invalid QR matrix dimension")
	}

	module := w.opts.Size / dim
	if module < 1 {
		module = 1
	}
	inner := module * dim
	canvas := w.opts.Size
	if inner > canvas {
		canvas = inner
	}
	outer := canvas + 2*w.opts.Margin
	offset := w.opts.Margin + (canvas-inner)/2

	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" version="1.1" width="%d" height="%d" viewBox="0 0 %d %d">`,
		outer, outer, outer, outer))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`, outer, outer, hexColor(w.opts.Bg)))
	sb.WriteString(fmt.Sprintf(`<g fill="%s">`, hexColor(w.opts.Fg)))
	mat.Iterate(qrcode.IterDirection_ROW, func(x, y int, v qrcode.QRValue) {
		if !v.IsSet() {
			return
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d"/>`,
			offset+x*module, offset+y*module, module, module))
	})
	sb.WriteString(`</g></svg>`)
	sb.WriteString("\n")

	w.buf.WriteString(sb.String())
	return nil
}

func (w *svgWriter) Close() error { return nil }

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

var (
	_ Encoder        = QREncoder{}
	_ qrcode.Writer  = (*svgWriter)(nil)
	_ io.WriteCloser = nopCloser{}
)
