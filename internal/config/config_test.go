package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coredatalabs/tens/internal/config"
)

func TestLoad_DefaultsWhenNoPath(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "./tens-data", cfg.Store.Root)
	assert.Equal(t, "gpt-4o", cfg.Tokenizer.DefaultModel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  root: /data/tens\nlogging:\n  level: debug\n  format: text\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/tens", cfg.Store.Root)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  root: /data/tens\n"), 0o644))
	t.Setenv("TENS_STORE_ROOT", "/env/tens")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/tens", cfg.Store.Root)
}

func TestValidate_RejectsBadLogLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}
