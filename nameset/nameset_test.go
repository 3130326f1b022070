package nameset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetBasic(t *testing.T) {
	s := New("b", "a", "c", "a")
	require.Equal(t, 3, s.Len())
	require.True(t, s.Has("a"))
	require.False(t, s.Has("z"))
	require.Equal(t, []string{"a", "b", "c"}, s.Slice())
}

func TestSetRemove(t *testing.T) {
	s := New("a", "b")
	s.Remove("a")
	require.False(t, s.Has("a"))
	require.Equal(t, 1, s.Len())
	s.Remove("z") // no-op
	require.Equal(t, 1, s.Len())
}

func TestUnionDedupAndSort(t *testing.T) {
	got := Union([]string{"c", "a"}, []string{"a", "b"}, nil)
	require.Equal(t, []string{"a", "b", "c"}, got)
}

func TestClone(t *testing.T) {
	s := New("a", "b")
	c := s.Clone()
	c.Add("z")
	require.False(t, s.Has("z"))
	require.True(t, c.Has("z"))
}
