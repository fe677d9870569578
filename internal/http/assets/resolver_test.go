package assets

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Fingerprints(t *testing.T) {
	fsys := fstest.MapFS{
		"css/app.css": {Data: []byte("body{}")},
		"js/app.js":   {Data: []byte("console.log(1)")},
	}
	ar, err := NewAssetResolver(fsys, false, nil)
	require.NoError(t, err)

	css := ar.Resolve("css/app.css")
	assert.Regexp(t, `^/static/css/app\.css\?v=[0-9a-f]{12}$`, css)
	assert.Equal(t, css, ar.Resolve("/css/app.css"))

	h1, ok := ar.Fingerprint("css/app.css")
	require.True(t, ok)
	h2, _ := ar.Fingerprint("js/app.js")
	assert.NotEqual(t, h1, h2)
}

func TestResolve_ContentChangeChangesFingerprint(t *testing.T) {
	fsys := fstest.MapFS{"css/app.css": {Data: []byte("a")}}
	ar, err := NewAssetResolver(fsys, false, nil)
	require.NoError(t, err)
	before := ar.Resolve("css/app.css")

	fsys["css/app.css"] = &fstest.MapFile{Data: []byte("b")}
	require.NoError(t, ar.Reload())
	assert.NotEqual(t, before, ar.Resolve("css/app.css"))
}

func TestResolve_DevModeAndUnknown(t *testing.T) {
	fsys := fstest.MapFS{"css/app.css": {Data: []byte("a")}}

	dev, err := NewAssetResolver(fsys, true, nil)
	require.NoError(t, err)
	assert.Equal(t, "/static/css/app.css", dev.Resolve("css/app.css"))

	prod, err := NewAssetResolver(fsys, false, nil)
	require.NoError(t, err)
	assert.Equal(t, "/static/img/missing.png", prod.Resolve("img/missing.png"))

	var nilResolver *AssetResolver
	assert.Equal(t, "/static/js/app.js", nilResolver.Resolve("js/app.js"))
}
