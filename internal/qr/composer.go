package qr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/xid"

	"github.com/cristianadrielbraun/qrblock/internal/logging"
	"github.com/cristianadrielbraun/qrblock/internal/metrics"
)

// RenderRequest describes one code image.
type RenderRequest struct {
	// TargetURL is the encoded payload.
	TargetURL string
	// Label names downloads; it is not encoded.
	Label         string
	Format        Format
	SizePx        int
	LogoContextID string
	CourseID      int64
}

// Composer renders code images into the cache on demand.
type Composer struct {
	resolver Resolver
	encoder  Encoder
	settings ConfigStore
	files    FileLookup
	metrics  metrics.Recorder
	dirPerm  fs.FileMode
}

// Option configures a Composer.
type Option func(*Composer)

// WithEncoder replaces the QR encoder.
func WithEncoder(e Encoder) Option {
	return func(c *Composer) { c.encoder = e }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *Composer) { c.metrics = r }
}

// WithDirPerm sets the permissions used when creating the cache directory.
func WithDirPerm(perm fs.FileMode) Option {
	return func(c *Composer) { c.dirPerm = perm }
}

// NewComposer returns a Composer caching under cacheRoot.
func NewComposer(cacheRoot string, settings ConfigStore, files FileLookup, opts ...Option) *Composer {
	c := &Composer{
		resolver: Resolver{Root: cacheRoot},
		encoder:  QREncoder{},
		settings: settings,
		files:    files,
		metrics:  metrics.NewNoopRecorder(),
		dirPerm:  0o755,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the cache entry req maps to under the current settings.
func (c *Composer) Resolve(ctx context.Context, req RenderRequest) CacheEntry {
	lookup := HostLogoLookup(ctx, c.settings, c.files, req.LogoContextID)
	return c.resolver.Resolve(req.Format, req.SizePx, req.CourseID, c.settings.CustomLogoEnabled(), lookup)
}

// EnsureRendered makes sure the cache file for req exists and returns its
// entry. An existing file is never rewritten. Files are written to a
// temporary sibling and renamed into place, so a failed render leaves
// nothing at the cache path.
func (c *Composer) EnsureRendered(ctx context.Context, req RenderRequest) (CacheEntry, error) {
	entry := c.Resolve(ctx, req)

	if _, err := os.Stat(entry.Path); err == nil {
		c.metrics.RecordCacheLookup(req.Format.String(), true)
		return entry, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return entry, fmt.Errorf("%w: stat cache file: %v", ErrFilesystem, err)
	}
	c.metrics.RecordCacheLookup(req.Format.String(), false)

	start := time.Now()
	err := c.render(entry, req)
	c.metrics.RecordRender(req.Format.String(), entry.Logo != nil, err == nil, time.Since(start))
	if err != nil {
		logging.Error("qr render failed",
			"course", req.CourseID, "size", req.SizePx, "format", req.Format.String(), "error", err)
		return entry, err
	}

	logging.Info("qr rendered",
		"course", req.CourseID, "size", req.SizePx, "format", req.Format.String(),
		"logo", entry.LogoFlag(), "path", entry.Path, "elapsed_ms", time.Since(start).Milliseconds())
	return entry, nil
}

func (c *Composer) render(entry CacheEntry, req RenderRequest) error {
	if err := os.MkdirAll(filepath.Dir(entry.Path), c.dirPerm); err != nil {
		return fmt.Errorf("%w: create cache dir: %v", ErrFilesystem, err)
	}

	data, err := c.compose(entry, req)
	if err != nil {
		return err
	}
	return writeAtomic(entry.Path, data)
}

func (c *Composer) compose(entry CacheEntry, req RenderRequest) ([]byte, error) {
	opts := DefaultEncodeOptions(req.SizePx)

	switch req.Format {
	case FormatVector:
		markup, err := c.encoder.SVG(req.TargetURL, opts)
		if err != nil {
			return nil, err
		}
		if entry.Logo == nil {
			return markup, nil
		}
		logo, err := readLogo(entry.Logo.Path)
		if err != nil {
			return nil, err
		}
		return MergeLogo(markup, logo)

	case FormatRaster:
		img, err := c.encoder.PNG(req.TargetURL, opts)
		if err != nil {
			return nil, err
		}
		if entry.Logo != nil {
			data, err := readLogo(entry.Logo.Path)
			if err != nil {
				return nil, err
			}
			logo, err := DecodeLogo(data, RasterLogoWidth(req.SizePx))
			if err != nil {
				return nil, err
			}
			img = OverlayLogo(img, logo)
		}
		var buf bytes.Buffer
		if err := encodePNG(&buf, img); err != nil {
			return nil, fmt.Errorf("%w: encode png: %v", ErrRender, err)
		}
		return buf.Bytes(), nil
	}

	return nil, fmt.Errorf("%w: unknown format %d", ErrRender, req.Format)
}

func readLogo(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read logo: %v", ErrFilesystem, err)
	}
	return data, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+xid.New().String()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: write temp file: %v", ErrFilesystem, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: move into cache: %v", ErrFilesystem, err)
	}
	return nil
}
