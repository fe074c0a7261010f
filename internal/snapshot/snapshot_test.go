package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odinkv/kvstored/internal/store"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.kvs")

	s := store.New()
	s.Insert("str", store.StringValue("hello"))
	s.Insert("list", store.ListValue("a", "b", "c"))
	s.Insert("set", store.SetValue("x", "y"))
	s.SetTTL("str", 3600)

	require.NoError(t, Save(s, path))

	loaded := store.New()
	require.NoError(t, Load(loaded, path))

	v, ok := loaded.Get("str")
	require.True(t, ok)
	require.Equal(t, "hello", v.Str)
	require.Greater(t, loaded.TTL("str"), int64(0))

	v, ok = loaded.Get("list")
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, v.List)

	v, ok = loaded.Get("set")
	require.True(t, ok)
	require.Len(t, v.Set, 2)
}

func TestSaveLoadRoundTripPreservesEmbeddedNewlines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dump.kvs")

	s := store.New()
	s.Insert("multiline", store.StringValue("line one\nline two\r\nline three"))

	require.NoError(t, Save(s, path))

	loaded := store.New()
	require.NoError(t, Load(loaded, path))

	v, ok := loaded.Get("multiline")
	require.True(t, ok)
	require.Equal(t, "line one\nline two\r\nline three", v.Str)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	s := store.New()
	err := Load(s, filepath.Join(t.TempDir(), "does-not-exist.kvs"))
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
}

func TestLoadCorruptFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.kvs")
	require.NoError(t, os.WriteFile(path, []byte("garbage not a record\n"), 0o644))

	s := store.New()
	err := Load(s, path)
	require.Error(t, err)
	var corrupt *ErrCorrupt
	require.ErrorAs(t, err, &corrupt)
}
