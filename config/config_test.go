package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMergesOverDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rulexdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Default().MaxKeySize, cfg.MaxKeySize, "unset fields fall back to default")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/rulexdb.yaml")
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := ApplyFlagOverrides(Default(), "error")
	assert.Equal(t, "error", cfg.LogLevel)
}
