// Package filestore is a content-addressed file store. Blobs live under
// <root>/<hash[0:2]>/<hash[2:4]>/<hash>, named by the SHA-1 of their content,
// and an Index maps (context, component, area, filename) to a hash.
package filestore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// ErrNotFound is returned when no file is recorded for a key or its blob is gone.
var ErrNotFound = errors.New("file not found")

// File describes a stored file.
type File struct {
	ContextID string
	Component string
	Area      string
	Filename  string
	Hash      string
	Size      int64
	// Path is the blob location on disk.
	Path string
}

// Index maps file keys to content hashes.
type Index interface {
	// Get returns the hash for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, hash string) error
}

// Store keeps blobs on disk and their names in an Index.
type Store struct {
	root  string
	index Index
}

// New returns a Store rooted at root.
func New(root string, index Index) *Store {
	return &Store{root: root, index: index}
}

// Key builds the index key for a file.
func Key(contextID, component, area, filename string) string {
	return strings.Join([]string{contextID, component, area, filename}, "/")
}

// BlobPath returns the on-disk location of a hash.
func (s *Store) BlobPath(hash string) string {
	if len(hash) < 4 {
		return filepath.Join(s.root, hash)
	}
	return filepath.Join(s.root, hash[0:2], hash[2:4], hash)
}

// Put stores the content of r and records it under the given name.
func (s *Store) Put(ctx context.Context, contextID, component, area, filename string, r io.Reader) (*File, error) {
	if filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return nil, fmt.Errorf("create file store root: %w", err)
	}

	tmp := filepath.Join(s.root, ".upload-"+xid.New().String())
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("create temp blob: %w", err)
	}
	defer os.Remove(tmp)

	h := sha1.New()
	size, err := io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write temp blob: %w", err)
	}

	hash := hex.EncodeToString(h.Sum(nil))
	blob := s.BlobPath(hash)
	if _, err := os.Stat(blob); errors.Is(err, os.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(blob), 0o755); err != nil {
			return nil, fmt.Errorf("create blob dir: %w", err)
		}
		if err := os.Rename(tmp, blob); err != nil {
			return nil, fmt.Errorf("move blob into place: %w", err)
		}
	}

	if err := s.index.Set(ctx, Key(contextID, component, area, filename), hash); err != nil {
		return nil, fmt.Errorf("record file: %w", err)
	}

	return &File{
		ContextID: contextID,
		Component: component,
		Area:      area,
		Filename:  filename,
		Hash:      hash,
		Size:      size,
		Path:      blob,
	}, nil
}

// Find looks a file up by name.
func (s *Store) Find(ctx context.Context, contextID, component, area, filename string) (*File, error) {
	hash, err := s.index.Get(ctx, Key(contextID, component, area, filename))
	if err != nil {
		return nil, err
	}
	blob := s.BlobPath(hash)
	info, err := os.Stat(blob)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("stat blob: %w", err)
	}
	return &File{
		ContextID: contextID,
		Component: component,
		Area:      area,
		Filename:  filename,
		Hash:      hash,
		Size:      info.Size(),
		Path:      blob,
	}, nil
}
