package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifestFile(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "project.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadValidManifest(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, `{"name":"demo","type":"executable","sources":["main.iodc","util.iodc"]}`)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Name)
	assert.Equal(t, Executable, m.Type)
	assert.Equal(t, []string{
		filepath.Join(dir, "main.iodc"),
		filepath.Join(dir, "util.iodc"),
	}, m.SourcePaths())
	assert.Equal(t, filepath.Join(dir, "demo.iode"), m.OutputPath(".iode"))
}

func TestLoadMissingName(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, `{"type":"executable","sources":["main.iodc"]}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadUnrecognisedType(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, `{"name":"demo","type":"bogus","sources":["main.iodc"]}`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeManifestFile(t, dir, `not json`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/project.json")
	require.Error(t, err)
}
