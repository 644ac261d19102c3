package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowCow/iodicium-go/lang/iodlog"
)

func writeProject(t *testing.T, dir, source string) string {
	t.Helper()
	sourcePath := filepath.Join(dir, "main.iodc")
	require.NoError(t, os.WriteFile(sourcePath, []byte(source), 0644))

	manifest := map[string]interface{}{
		"name":    "test",
		"type":    "executable",
		"sources": []string{"main.iodc"},
	}
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	manifestPath := filepath.Join(dir, "project.json")
	require.NoError(t, os.WriteFile(manifestPath, data, 0644))
	return manifestPath
}

func TestCompileActionWritesExecutable(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeProject(t, dir, "writeOut(\"hi\")\nflush()\n")

	code := compileAction([]string{manifestPath}, map[string]string{})
	assert.Equal(t, 0, code)
	assert.FileExists(t, filepath.Join(dir, "test.iode"))
}

func TestCompileActionMissingArgument(t *testing.T) {
	code := compileAction(nil, map[string]string{})
	assert.Equal(t, 1, code)
}

func TestCompileActionReportsCompileError(t *testing.T) {
	code := compileAction([]string{"/nonexistent/project.json"}, map[string]string{})
	assert.Equal(t, 1, code)
}

func TestRunActionMissingArgument(t *testing.T) {
	code := runAction(nil, map[string]string{})
	assert.Equal(t, 1, code)
}

func TestRunActionInvalidMemoryOption(t *testing.T) {
	code := runAction([]string{"whatever.iode"}, map[string]string{"memory": "not-a-size"})
	assert.Equal(t, 1, code)
}

func TestCompileThenRunRoundTrip(t *testing.T) {
	dir := t.TempDir()
	manifestPath := writeProject(t, dir, "writeOut(\"hi\")\nflush()\n")

	require.Equal(t, 0, compileAction([]string{manifestPath}, map[string]string{}))

	exePath := filepath.Join(dir, "test.iode")
	code := runAction([]string{exePath}, map[string]string{"memory": "64M"})
	assert.Equal(t, 0, code)
}

func TestLoggerForDebugOption(t *testing.T) {
	logger := loggerFor(map[string]string{"debug": ""})
	assert.True(t, logger.Enabled(iodlog.Debug))
}

func TestRunVersionFlagPrintsTwoLinesAndExitsZero(t *testing.T) {
	for _, flag := range []string{"-v", "--version"} {
		var out bytes.Buffer
		code := Run([]string{"iodicium", flag}, &out)
		assert.Equal(t, 0, code)
		lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
		assert.Len(t, lines, 2)
	}
}
