package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Model, cfg.Model)
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.APIKeyEnv)
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"model: claude-test\ntoken_budget: 42\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-test", cfg.Model)
	assert.Equal(t, 42, cfg.TokenBudget)
	// Unset fields keep their defaults.
	assert.Equal(t, Default().ArchiveDBPath, cfg.ArchiveDBPath)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REPLICATOR_MODEL", "claude-override")
	t.Setenv("REPLICATOR_ARCHIVE_DB", "/tmp/other.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "claude-override", cfg.Model)
	assert.Equal(t, "/tmp/other.db", cfg.ArchiveDBPath)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAPIKey(t *testing.T) {
	t.Setenv("TEST_REPLICATOR_KEY", "sk-test")
	cfg := Config{APIKeyEnv: "TEST_REPLICATOR_KEY"}
	assert.Equal(t, "sk-test", cfg.APIKey())
}
