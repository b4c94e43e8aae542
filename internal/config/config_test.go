package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMissingIsDefault(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "felis.yaml")
	body := `
builtins:
  syscall:
    category: syscall
    params: 6
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Contains(t, cfg.BuiltinOverrides, "syscall")
	assert.Equal(t, 6, cfg.BuiltinOverrides["syscall"].Params)
}

func TestLoadFileBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "felis.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - ["), 0o644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}
