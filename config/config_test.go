package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadConfigFileAndEnvironment(t *testing.T) {
	// Setup
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.Game.UserID = "ada"
	cfg.Server.Port = "9090"
	cfg.Narrator.APIKey = "never-written"
	require.NoError(t, SaveConfig(cfg, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "never-written")

	// Test case 1: File values
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "ada", loaded.Game.UserID)
	assert.Equal(t, "9090", loaded.Server.Port)
	assert.Empty(t, loaded.Narrator.APIKey)

	// Test case 2: Environment wins
	t.Setenv("LIFERPG_PORT", "7070")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LIFERPG_TRACING", "true")
	loaded, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", loaded.Server.Port)
	assert.Equal(t, "sk-test", loaded.Narrator.APIKey)
	assert.True(t, loaded.Server.Tracing)
	assert.Equal(t, "ada", loaded.Game.UserID)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
