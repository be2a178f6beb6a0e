package qr

import (
	"fmt"
	"strings"
)

// Format selects vector or raster output.
type Format int

const (
	FormatVector Format = iota + 1
	FormatRaster
)

// ParseFormat accepts "svg"/"1" and "png"/"2". The numeric forms are the
// values older course pages put in the format query parameter.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "svg", "1":
		return FormatVector, nil
	case "png", "2":
		return FormatRaster, nil
	}
	return 0, fmt.Errorf("unsupported format %q", s)
}

// Ext returns the file extension without a dot.
func (f Format) Ext() string {
	if f == FormatRaster {
		return "png"
	}
	return "svg"
}

func (f Format) ContentType() string {
	if f == FormatRaster {
		return "image/png"
	}
	return "image/svg+xml"
}

// LogoArea is the file store area holding the logo used for this format.
func (f Format) LogoArea() string {
	return "logo_" + f.Ext()
}

func (f Format) String() string { return f.Ext() }
