package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	require.Equal(t, 1, s.MaxThreads)
	require.Equal(t, 0, s.MaxColumnsInBlock)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
maxThreads: 4
maxColumnsInBlock: 64
maxBlockSizeBytes: 1048576
raw:
  customLimit: 10
`), 0644))

	s, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 4, s.MaxThreads)
	require.Equal(t, 64, s.MaxColumnsInBlock)
	require.Equal(t, int64(1048576), s.MaxBlockSizeBytes)

	v, err := s.GetInt("customLimit")
	require.NoError(t, err)
	require.Equal(t, 10, v)
}

func TestGetIntMissingWithDefault(t *testing.T) {
	s := Default()
	v, err := s.GetInt("missing", WithDefault(7))
	require.NoError(t, err)
	require.Equal(t, 7, v)

	_, err = s.GetInt("missing")
	require.ErrorIs(t, err, ErrNotFound)
}
