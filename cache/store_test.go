package cache_test

import (
	"path/filepath"
	"testing"

	"github.com/nml-lang/nml/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetPutRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)

	defer store.Close()

	fp := cache.Fingerprint("tex", "1+1=2", cache.Params{"fontsize": "12"})

	_, ok, err := store.Get(cache.TableTex, fp)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(cache.TableTex, fp, []byte("<svg/>")))

	data, ok, err := store.Get(cache.TableTex, fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<svg/>", string(data))
}

func TestFingerprint_StableAcrossParamOrder(t *testing.T) {
	a := cache.Fingerprint("dot", "digraph{}", cache.Params{"layout": "dot", "width": "100"})
	b := cache.Fingerprint("dot", "digraph{}", cache.Params{"width": "100", "layout": "dot"})
	assert.Equal(t, a, b)
}

func TestFingerprint_DiffersOnInput(t *testing.T) {
	a := cache.Fingerprint("dot", "digraph{A}", nil)
	b := cache.Fingerprint("dot", "digraph{B}", nil)
	assert.NotEqual(t, a, b)
}

func TestStore_PutIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	store, err := cache.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)

	defer store.Close()

	fp := cache.Fingerprint("code", "fmt.Println()", cache.Params{"language": "go"})
	require.NoError(t, store.Put(cache.TableCode, fp, []byte("<pre>...</pre>")))
	require.NoError(t, store.Put(cache.TableCode, fp, []byte("<pre>...</pre>")))

	data, ok, err := store.Get(cache.TableCode, fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "<pre>...</pre>", string(data))
}
