package qr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// LogoScale is the fraction of the code's height a merged logo occupies.
// At the highest error-correction level a fifth stays well inside the
// damage the code can absorb.
const LogoScale = 5

// ViewBox is a parsed viewBox attribute.
type ViewBox struct {
	MinX, MinY, Width, Height float64
}

// ParseViewBox parses "min-x min-y width height"; separators may be
// whitespace or commas. Width and height must be positive.
func ParseViewBox(s string) (ViewBox, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) != 4 {
		return ViewBox{}, fmt.Errorf("%w: viewBox %q must have 4 components", ErrRender, s)
	}
	var v [4]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return ViewBox{}, fmt.Errorf("%w: viewBox component %q is not a number", ErrRender, f)
		}
		v[i] = n
	}
	vb := ViewBox{MinX: v[0], MinY: v[1], Width: v[2], Height: v[3]}
	if vb.Width <= 0 || vb.Height <= 0 {
		return ViewBox{}, fmt.Errorf("%w: viewBox %q has a non-positive size", ErrRender, s)
	}
	return vb, nil
}

// Placement is where a logo lands inside the code canvas.
type Placement struct {
	X, Y, Width, Height float64
}

// LogoPlacement centres a logo of logoWidth x logoHeight on a code whose
// height is codeHeight, scaled to a fifth of that height with its aspect
// ratio kept. The canvas is taken to be square, so both offsets use codeHeight.
func LogoPlacement(codeHeight, logoWidth, logoHeight float64) (Placement, error) {
	if codeHeight <= 0 || logoWidth <= 0 || logoHeight <= 0 {
		return Placement{}, fmt.Errorf("%w: degenerate geometry code=%v logo=%vx%v", ErrRender, codeHeight, logoWidth, logoHeight)
	}
	h := codeHeight / LogoScale
	w := h * (logoWidth / logoHeight)
	return Placement{
		X:      (codeHeight - w) / 2,
		Y:      (codeHeight - h) / 2,
		Width:  w,
		Height: h,
	}, nil
}

// MergeLogo embeds the logo document as the last child of the code document's
// root element, sized and centred by LogoPlacement, and returns the
// serialized result.
func MergeLogo(code, logo []byte) ([]byte, error) {
	codeDoc, codeRoot, err := readSVG(code, "code")
	if err != nil {
		return nil, err
	}
	codeBox, err := ParseViewBox(codeRoot.SelectAttrValue("viewBox", ""))
	if err != nil {
		return nil, fmt.Errorf("code: %w", err)
	}

	_, logoRoot, err := readSVG(logo, "logo")
	if err != nil {
		return nil, err
	}
	logoBox, err := ParseViewBox(logoRoot.SelectAttrValue("viewBox", ""))
	if err != nil {
		return nil, fmt.Errorf("logo: %w", err)
	}

	p, err := LogoPlacement(codeBox.Height, logoBox.Width, logoBox.Height)
	if err != nil {
		return nil, err
	}

	logoRoot.CreateAttr("width", formatFloat(p.Width))
	logoRoot.CreateAttr("height", formatFloat(p.Height))
	logoRoot.CreateAttr("x", formatFloat(p.X))
	logoRoot.CreateAttr("y", formatFloat(p.Y))

	codeRoot.AddChild(logoRoot.Copy())

	out, err := codeDoc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: serialize merged svg: %v", ErrRender, err)
	}
	return out, nil
}

func readSVG(data []byte, which string) (*etree.Document, *etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, nil, fmt.Errorf("%w: %s markup: %v", ErrParse, which, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, nil, fmt.Errorf("%w: %s markup has no root element", ErrParse, which)
	}
	return doc, root, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
