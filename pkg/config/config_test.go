package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("QUICKCART_CONFIG", "")
	t.Setenv("QUICKCART_API_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", cfg.APIBaseURL)
	assert.Equal(t, "file", cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quickcart.yaml")
	content := "api_url: http://shop.internal/api\nstore_driver: sqlite\nhttp_timeout: 5s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("QUICKCART_CONFIG", path)
	t.Setenv("QUICKCART_STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://shop.internal/api", cfg.APIBaseURL)
	assert.Equal(t, "memory", cfg.StoreDriver, "env overrides file")
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("QUICKCART_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestGetEnvDuration(t *testing.T) {
	t.Run("go duration", func(t *testing.T) {
		t.Setenv("X_TIMEOUT", "250ms")
		assert.Equal(t, 250*time.Millisecond, getEnvDuration("X_TIMEOUT", time.Second))
	})

	t.Run("bare seconds", func(t *testing.T) {
		t.Setenv("X_TIMEOUT", "7")
		assert.Equal(t, 7*time.Second, getEnvDuration("X_TIMEOUT", time.Second))
	})

	t.Run("garbage falls back", func(t *testing.T) {
		t.Setenv("X_TIMEOUT", "soon")
		assert.Equal(t, time.Second, getEnvDuration("X_TIMEOUT", time.Second))
	})
}
