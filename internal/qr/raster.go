package qr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// RasterLogoDivisor sets the raster logo width to size/RasterLogoDivisor.
const RasterLogoDivisor = 2.75

// RasterLogoWidth is the pixel width a raster logo is scaled to for a code of sizePx.
func RasterLogoWidth(sizePx int) int {
	w := int(math.Round(float64(sizePx) / RasterLogoDivisor))
	if w < 1 {
		w = 1
	}
	return w
}

// DecodeLogo decodes PNG, JPEG or GIF bytes, or rasterizes SVG markup, at
// the given width with the aspect ratio kept.
func DecodeLogo(data []byte, width int) (image.Image, error) {
	if looksLikeSVG(data) {
		return rasterizeSVG(data, width)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode logo: %v", ErrParse, err)
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos), nil
}

func rasterizeSVG(data []byte, width int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: logo markup: %v", ErrParse, err)
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, fmt.Errorf("%w: logo viewBox has a non-positive size", ErrRender)
	}
	height := int(math.Round(float64(width) * icon.ViewBox.H / icon.ViewBox.W))
	if height < 1 {
		height = 1
	}

	icon.SetTarget(0, 0, float64(width), float64(height))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(width, height, scanner), 1)
	return img, nil
}

func looksLikeSVG(data []byte) bool {
	head := bytes.TrimSpace(data)
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.HasPrefix(head, []byte("<")) && bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// OverlayLogo draws logo centred on code.
func OverlayLogo(code, logo image.Image) image.Image {
	return imaging.OverlayCenter(code, logo, 1)
}

func encodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
