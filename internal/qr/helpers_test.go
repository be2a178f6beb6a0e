package qr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/qrblock/internal/filestore"
)

const (
	testContextID = "1"
	testURL       = "https://moodle.example.org/course/view.php?id=7"
	wideLogoSVG   = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100"><rect width="200" height="100" fill="#ff0000"/></svg>`
)

type fakeSettings struct {
	enabled bool
	names   map[Format]string
}

func (f fakeSettings) CustomLogoEnabled() bool { return f.enabled }

func (f fakeSettings) LogoFilename(format Format) string { return f.names[format] }

func logoSettings(enabled bool) fakeSettings {
	return fakeSettings{
		enabled: enabled,
		names:   map[Format]string{FormatVector: "logo.svg", FormatRaster: "logo.png"},
	}
}

func newFileStore(t *testing.T) *filestore.Store {
	t.Helper()
	return filestore.New(t.TempDir(), filestore.NewMemoryIndex())
}

func putLogo(t *testing.T, s *filestore.Store, f Format, name string, data []byte) *filestore.File {
	t.Helper()
	file, err := s.Put(context.Background(), testContextID, Component, f.LogoArea(), name, bytes.NewReader(data))
	require.NoError(t, err)
	return file
}

func redPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 240 && g>>8 > 240 && b>>8 > 240
}

type countingRecorder struct {
	mu      sync.Mutex
	hits    int
	misses  int
	renders int
	failed  int
}

func (c *countingRecorder) RecordCacheLookup(format string, hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func (c *countingRecorder) RecordRender(format string, withLogo bool, success bool, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if success {
		c.renders++
	} else {
		c.failed++
	}
}
