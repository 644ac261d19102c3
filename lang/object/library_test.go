package object

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "math.iodl")

	lib := &Library{
		Exports:   map[string]uint64{"add": 10, "sub": 42},
		Constants: []string{"a", "b"},
		Code:      []byte{9, 8, 7},
	}
	require.NoError(t, WriteLibrary(path, lib))

	got, err := ReadLibrary(path)
	require.NoError(t, err)
	assert.Equal(t, lib, got)
}

func TestWriteLibraryIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	lib := &Library{
		Exports: map[string]uint64{"zeta": 3, "alpha": 1, "mu": 2},
	}

	path1 := filepath.Join(dir, "one.iodl")
	path2 := filepath.Join(dir, "two.iodl")
	require.NoError(t, WriteLibrary(path1, lib))
	require.NoError(t, WriteLibrary(path2, lib))

	data1, err := os.ReadFile(path1)
	require.NoError(t, err)
	data2, err := os.ReadFile(path2)
	require.NoError(t, err)
	assert.Equal(t, data1, data2)
}

func TestReadLibraryRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.iodl")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0644))

	_, err := ReadLibrary(path)
	require.Error(t, err)
}
