package object

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "program.iode")

	exe := &Executable{
		Imports:   []string{"lib/math.iodl"},
		Constants: []string{"hi", ""},
		Code:      []byte{1, 2, 3, 0xFF},
	}
	require.NoError(t, WriteExecutable(path, exe))

	got, err := ReadExecutable(path)
	require.NoError(t, err)
	assert.Equal(t, exe, got)
}

func TestExecutableRoundTripEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.iode")

	exe := &Executable{}
	require.NoError(t, WriteExecutable(path, exe))

	got, err := ReadExecutable(path)
	require.NoError(t, err)
	assert.Empty(t, got.Imports)
	assert.Empty(t, got.Constants)
	assert.Empty(t, got.Code)
}

func TestReadExecutableRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.iode")
	require.NoError(t, os.WriteFile(path, []byte("not an executable"), 0644))

	_, err := ReadExecutable(path)
	require.Error(t, err)
}

func TestReadExecutableMissingFile(t *testing.T) {
	_, err := ReadExecutable("/nonexistent/program.iode")
	require.Error(t, err)
}
