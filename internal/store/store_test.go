package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInsertGetRemove(t *testing.T) {
	s := New()
	s.Insert("k", StringValue("v"))
	v, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v.Str)

	removed, ok := s.Remove("k")
	require.True(t, ok)
	require.Equal(t, "v", removed.Str)
	require.False(t, s.Exists("k"))
}

func TestLazyExpiration(t *testing.T) {
	s := New()
	fixed := time.Now()
	s.now = func() time.Time { return fixed }
	s.Insert("k", StringValue("v"))
	require.True(t, s.SetTTL("k", 1))

	s.now = func() time.Time { return fixed.Add(2 * time.Second) }
	_, ok := s.Get("k")
	require.False(t, ok)
	require.False(t, s.Exists("k"))
}

func TestTTLInvariant(t *testing.T) {
	s := New()
	s.Insert("k", StringValue("v"))
	require.True(t, s.SetTTL("k", 10))
	ttl := s.TTL("k")
	require.Greater(t, ttl, int64(0))
	require.LessOrEqual(t, ttl, int64(10))

	require.True(t, s.Persist("k"))
	require.EqualValues(t, -1, s.TTL("k"))
}

func TestTTLMissingKey(t *testing.T) {
	s := New()
	require.EqualValues(t, -2, s.TTL("missing"))
}

func TestTypeStability(t *testing.T) {
	s := New()
	s.Insert("k", ListValue("a"))
	_, err := s.SAdd("k", "x")
	require.ErrorIs(t, err, ErrWrongType)
	require.Equal(t, KindList, s.TypeOf("k"))
}

func TestPushXRequiresExisting(t *testing.T) {
	s := New()
	_, err := s.Push("missing", true, true, "a")
	require.ErrorIs(t, err, ErrNoList)
}

func TestPushPopOrdering(t *testing.T) {
	s := New()
	n, err := s.Push("q", true, false, "a", "b", "c")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	out, err := s.Range("q", 0, -1)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, out)

	popped, ok, err := s.Pop("q", false, 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b"}, popped)

	l, _ := s.ListLen("q")
	require.Equal(t, 1, l)
}

func TestPopCountExceedsLength(t *testing.T) {
	s := New()
	s.Push("q", true, false, "a")
	_, _, err := s.Pop("q", true, 5)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestPopMissingKeyYieldsNull(t *testing.T) {
	s := New()
	popped, ok, err := s.Pop("missing", true, 1)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, popped)
}

func TestRangeClampingAndEmpty(t *testing.T) {
	s := New()
	s.Push("q", true, false, "a", "b", "c")

	out, _ := s.Range("q", 0, 100)
	require.Equal(t, []string{"a", "b", "c"}, out)

	out, _ = s.Range("q", 5, 10)
	require.Empty(t, out)

	out, _ = s.Range("q", 2, 1)
	require.Empty(t, out)
}

func TestSetOperations(t *testing.T) {
	s := New()
	added, err := s.SAdd("s", "x", "y", "x")
	require.NoError(t, err)
	require.Equal(t, 2, added)

	ok, _ := s.SIsMember("s", "x")
	require.True(t, ok)
	ok, _ = s.SIsMember("s", "z")
	require.False(t, ok)

	removed, _ := s.SRem("s", "x", "z")
	require.Equal(t, 1, removed)
}

func TestKeysGlob(t *testing.T) {
	s := New()
	s.Insert("foo", StringValue("1"))
	s.Insert("foobar", StringValue("1"))
	s.Insert("bar", StringValue("1"))

	matches := s.Keys("foo*")
	require.Equal(t, []string{"foo", "foobar"}, matches)

	matches = s.Keys("?ar")
	require.Equal(t, []string{"bar"}, matches)
}

func TestCleanStopsUnderQuarterThreshold(t *testing.T) {
	s := New()
	fixed := time.Now()
	s.now = func() time.Time { return fixed }
	for i := 0; i < 20; i++ {
		s.Insert(string(rune('a'+i)), StringValue("v"))
	}
	// Expire a small fraction so the first pass is under 25%.
	s.SetTTL("a", 1)
	s.now = func() time.Time { return fixed.Add(2 * time.Second) }

	expired := s.Clean(20)
	require.GreaterOrEqual(t, expired, 1)
}

func TestCopyRefusesOverwriteWithoutReplace(t *testing.T) {
	s := New()
	s.Insert("src", StringValue("1"))
	s.Insert("dst", StringValue("2"))

	copied, dstExists := s.Copy("src", "dst", false)
	require.False(t, copied)
	require.True(t, dstExists)

	copied, _ = s.Copy("src", "dst", true)
	require.True(t, copied)
	v, _ := s.Get("dst")
	require.Equal(t, "1", v.Str)
}

func TestRenameOverwritesAndFailsOnMissing(t *testing.T) {
	s := New()
	s.Insert("src", StringValue("1"))
	require.True(t, s.Rename("src", "dst"))
	require.False(t, s.Exists("src"))
	v, _ := s.Get("dst")
	require.Equal(t, "1", v.Str)

	require.False(t, s.Rename("nope", "dst2"))
}
