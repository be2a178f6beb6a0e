package filestore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestPut_WritesContentAddressedBlob(t *testing.T) {
	root := t.TempDir()
	s := New(root, NewMemoryIndex())

	f, err := s.Put(context.Background(), "1", "block_qrcode", "logo_svg", "logo.svg", strings.NewReader("<svg/>"))
	require.NoError(t, err)

	hash := sha1Hex("<svg/>")
	assert.Equal(t, hash, f.Hash)
	assert.Equal(t, int64(6), f.Size)
	assert.Equal(t, filepath.Join(root, hash[0:2], hash[2:4], hash), f.Path)

	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".upload-"), "temp blob left behind: %s", e.Name())
	}
}

func TestPut_RequiresFilename(t *testing.T) {
	s := New(t.TempDir(), NewMemoryIndex())
	_, err := s.Put(context.Background(), "1", "block_qrcode", "logo_svg", "", strings.NewReader("x"))
	require.Error(t, err)
}

func TestPut_SameContentSharesBlob(t *testing.T) {
	s := New(t.TempDir(), NewMemoryIndex())
	ctx := context.Background()

	a, err := s.Put(ctx, "1", "block_qrcode", "logo_png", "a.png", strings.NewReader("same"))
	require.NoError(t, err)
	b, err := s.Put(ctx, "1", "block_qrcode", "logo_png", "b.png", strings.NewReader("same"))
	require.NoError(t, err)

	assert.Equal(t, a.Path, b.Path)
}

func TestFind(t *testing.T) {
	s := New(t.TempDir(), NewMemoryIndex())
	ctx := context.Background()

	_, err := s.Find(ctx, "1", "block_qrcode", "logo_svg", "logo.svg")
	assert.ErrorIs(t, err, ErrNotFound)

	put, err := s.Put(ctx, "1", "block_qrcode", "logo_svg", "logo.svg", strings.NewReader("<svg/>"))
	require.NoError(t, err)

	got, err := s.Find(ctx, "1", "block_qrcode", "logo_svg", "logo.svg")
	require.NoError(t, err)
	assert.Equal(t, put.Hash, got.Hash)
	assert.Equal(t, put.Path, got.Path)

	_, err = s.Find(ctx, "2", "block_qrcode", "logo_svg", "logo.svg")
	assert.ErrorIs(t, err, ErrNotFound, "other contexts do not see the file")
}

func TestFind_MissingBlobIsNotFound(t *testing.T) {
	s := New(t.TempDir(), NewMemoryIndex())
	ctx := context.Background()

	f, err := s.Put(ctx, "1", "block_qrcode", "logo_png", "logo.png", strings.NewReader("png"))
	require.NoError(t, err)
	require.NoError(t, os.Remove(f.Path))

	_, err = s.Find(ctx, "1", "block_qrcode", "logo_png", "logo.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisIndex(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	idx := NewRedisIndex(client, "")
	ctx := context.Background()

	_, err := idx.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, idx.Set(ctx, "1/block_qrcode/logo_svg/logo.svg", "abcd"))
	got, err := idx.Get(ctx, "1/block_qrcode/logo_svg/logo.svg")
	require.NoError(t, err)
	assert.Equal(t, "abcd", got)

	assert.Equal(t, "abcd", mr.HGet(DefaultRedisKey, "1/block_qrcode/logo_svg/logo.svg"))
}

func TestStoreWithRedisIndex(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	root := t.TempDir()
	ctx := context.Background()
	writer := New(root, NewRedisIndex(client, "test:files"))
	_, err := writer.Put(ctx, "1", "block_qrcode", "logo_svg", "logo.svg", strings.NewReader("<svg/>"))
	require.NoError(t, err)

	// A second store sharing root and index sees the file.
	reader := New(root, NewRedisIndex(client, "test:files"))
	f, err := reader.Find(ctx, "1", "block_qrcode", "logo_svg", "logo.svg")
	require.NoError(t, err)
	assert.Equal(t, sha1Hex("<svg/>"), f.Hash)
}

func TestRedisIndex_UnavailableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, err := NewRedisIndex(client, "").Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
