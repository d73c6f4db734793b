package t212

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "GBP", cfg.Currency)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, time.Minute, cfg.MinRefreshGap)
	assert.False(t, cfg.HasCredentials())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigReadsSettingsFile(t *testing.T) {
	dir := t.TempDir()
	settings := `{"api_key": "k", "api_secret": "s", "currency": "EUR"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(settings), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "s", cfg.APISecret)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.True(t, cfg.HasCredentials())
}

func TestLoadConfigEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	settings := `{"api_key": "file-key", "api_secret": "file-secret"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(settings), 0o600))
	t.Setenv("T212_API_KEY", "env-key")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "file-secret", cfg.APISecret)
}

func TestLoadConfigRejectsMalformedSettings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte("{oops"), 0o600))

	_, err := LoadConfig(dir)
	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig(t.TempDir())
	cfg.BaseURL = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(t.TempDir())
	cfg.MinRefreshGap = 0
	assert.Error(t, cfg.Validate())
}
