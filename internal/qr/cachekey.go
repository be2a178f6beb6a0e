package qr

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cristianadrielbraun/qrblock/internal/filestore"
	"github.com/cristianadrielbraun/qrblock/internal/logging"
)

// Component is the file store component logos are kept under, and the
// directory name inside the cache root.
const Component = "block_qrcode"

// ConfigStore answers the plugin settings the renderer needs.
type ConfigStore interface {
	CustomLogoEnabled() bool
	// LogoFilename is the configured logo name for f, or "".
	LogoFilename(f Format) string
}

// FileLookup finds stored files. It returns filestore.ErrNotFound on a miss.
type FileLookup interface {
	Find(ctx context.Context, contextID, component, area, filename string) (*filestore.File, error)
}

// LogoLookup reports the logo file for a format, if there is one.
type LogoLookup func(f Format) (*filestore.File, bool)

// CacheEntry is a resolved cache location. Logo is nil when no logo applies.
type CacheEntry struct {
	Path string
	Logo *filestore.File
}

// LogoFlag is 1 when a logo file was resolved, else 0.
func (e CacheEntry) LogoFlag() int {
	if e.Logo != nil {
		return 1
	}
	return 0
}

// Resolver maps render parameters to cache paths under Root.
type Resolver struct {
	Root string
}

// Resolve returns the cache entry for the given parameters. The lookup is only
// consulted when logoEnabled is set; a disabled logo and a missing logo file
// both resolve to flag 0.
func (r Resolver) Resolve(f Format, sizePx int, courseID int64, logoEnabled bool, lookup LogoLookup) CacheEntry {
	var logo *filestore.File
	if logoEnabled && lookup != nil {
		if file, ok := lookup(f); ok {
			logo = file
		}
	}
	entry := CacheEntry{Logo: logo}
	entry.Path = CachePath(r.Root, courseID, sizePx, entry.LogoFlag(), f)
	return entry
}

// CachePath formats <root>/block_qrcode/course-<id>-<size>-<flag>.<ext>.
func CachePath(root string, courseID int64, sizePx, flag int, f Format) string {
	name := fmt.Sprintf("course-%d-%d-%d.%s", courseID, sizePx, flag, f.Ext())
	return filepath.Join(root, Component, name)
}

// HostLogoLookup builds a LogoLookup from the settings and the file store.
// Lookup failures are logged and treated as a missing logo.
func HostLogoLookup(ctx context.Context, settings ConfigStore, files FileLookup, contextID string) LogoLookup {
	return func(f Format) (*filestore.File, bool) {
		name := settings.LogoFilename(f)
		if name == "" || files == nil {
			return nil, false
		}
		file, err := files.Find(ctx, contextID, Component, f.LogoArea(), name)
		if err != nil {
			if !errors.Is(err, filestore.ErrNotFound) {
				logging.Warn("logo lookup failed", "format", f.String(), "filename", name, "error", err)
			}
			return nil, false
		}
		return file, true
	}
}
