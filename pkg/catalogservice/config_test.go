package catalogservice_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-catalog/pkg/catalogservice"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("YAML values override defaults", func(t *testing.T) {
		path := writeConfigFile(t, `
log_level: debug
http_port: ":9090"
api_base_url: "https://rickandmortyapi.com/api"
api_timeout: 5s
`)

		cfg, err := catalogservice.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ":9090", cfg.HTTPPort)
		assert.Equal(t, "https://rickandmortyapi.com/api", cfg.APIBaseURL)
		assert.Equal(t, 5*time.Second, cfg.APITimeout)
		assert.False(t, cfg.RedisEnabled)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		path := writeConfigFile(t, `
api_base_url: "https://rickandmortyapi.com/api"
http_port: ":9090"
`)
		t.Setenv("HTTP_PORT", ":7070")
		t.Setenv("LOG_LEVEL", "warn")

		cfg, err := catalogservice.LoadConfig(path)

		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.HTTPPort)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("Missing base URL fails validation", func(t *testing.T) {
		_, err := catalogservice.LoadConfig("")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_base_url")
	})

	t.Run("Redis requires an address when enabled", func(t *testing.T) {
		path := writeConfigFile(t, `
api_base_url: "https://rickandmortyapi.com/api"
redis_enabled: true
`)

		_, err := catalogservice.LoadConfig(path)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis.addr")
	})

	t.Run("Unreadable file is an error", func(t *testing.T) {
		_, err := catalogservice.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

		require.Error(t, err)
	})
}
