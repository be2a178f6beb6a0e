package qr

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianadrielbraun/qrblock/internal/filestore"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "svg", want: FormatVector},
		{in: "SVG", want: FormatVector},
		{in: "1", want: FormatVector},
		{in: "png", want: FormatRaster},
		{in: " 2 ", want: FormatRaster},
		{in: "jpg", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatProperties(t *testing.T) {
	assert.Equal(t, "svg", FormatVector.Ext())
	assert.Equal(t, "image/svg+xml", FormatVector.ContentType())
	assert.Equal(t, "logo_svg", FormatVector.LogoArea())
	assert.Equal(t, "png", FormatRaster.Ext())
	assert.Equal(t, "image/png", FormatRaster.ContentType())
	assert.Equal(t, "logo_png", FormatRaster.LogoArea())
}

func TestCachePath(t *testing.T) {
	root := filepath.Join("var", "cache")

	assert.Equal(t, filepath.Join(root, "block_qrcode", "course-7-150-0.svg"), CachePath(root, 7, 150, 0, FormatVector))
	assert.True(t, strings.HasSuffix(CachePath(root, 7, 150, 1, FormatRaster), "course-7-150-1.png"))
}

func TestResolve_Deterministic(t *testing.T) {
	r := Resolver{Root: t.TempDir()}
	file := &filestore.File{Path: "/blob"}
	lookup := func(Format) (*filestore.File, bool) { return file, true }

	first := r.Resolve(FormatVector, 150, 7, true, lookup)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first.Path, r.Resolve(FormatVector, 150, 7, true, lookup).Path)
	}
	assert.True(t, strings.HasSuffix(first.Path, "course-7-150-1.svg"))
	assert.Equal(t, 1, first.LogoFlag())
	assert.Same(t, file, first.Logo)
}

func TestResolve_FlagCollapse(t *testing.T) {
	r := Resolver{Root: t.TempDir()}

	called := false
	miss := func(Format) (*filestore.File, bool) {
		called = true
		return nil, false
	}
	disabled := r.Resolve(FormatRaster, 150, 7, false, miss)
	assert.False(t, called, "lookup must not run when the logo is disabled")

	missing := r.Resolve(FormatRaster, 150, 7, true, miss)
	assert.True(t, called)

	assert.Equal(t, disabled.Path, missing.Path)
	assert.True(t, strings.HasSuffix(missing.Path, "course-7-150-0.png"))
	assert.Nil(t, missing.Logo)
	assert.Equal(t, 0, missing.LogoFlag())
}

func TestResolve_NilLookup(t *testing.T) {
	r := Resolver{Root: "/cache"}
	e := r.Resolve(FormatVector, 300, 2, true, nil)
	assert.Equal(t, 0, e.LogoFlag())
}

type errLookup struct{ err error }

func (e errLookup) Find(context.Context, string, string, string, string) (*filestore.File, error) {
	return nil, e.err
}

func TestHostLogoLookup(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	stored := putLogo(t, store, FormatVector, "logo.svg", []byte(wideLogoSVG))

	lookup := HostLogoLookup(ctx, logoSettings(true), store, testContextID)

	got, ok := lookup(FormatVector)
	require.True(t, ok)
	assert.Equal(t, stored.Hash, got.Hash)

	_, ok = lookup(FormatRaster)
	assert.False(t, ok, "no png logo was stored")

	_, ok = HostLogoLookup(ctx, fakeSettings{enabled: true}, store, testContextID)(FormatVector)
	assert.False(t, ok, "no filename configured")

	_, ok = HostLogoLookup(ctx, logoSettings(true), store, "99")(FormatVector)
	assert.False(t, ok, "logo lives in another context")

	_, ok = HostLogoLookup(ctx, logoSettings(true), errLookup{errors.New("redis down")}, testContextID)(FormatVector)
	assert.False(t, ok, "lookup errors are a miss")
}
