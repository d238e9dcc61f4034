package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "http://cajero.example.com/api"
	cfg.Audit.Enabled = true
	cfg.Audit.Dir = "/var/lib/cajero"

	path := filepath.Join(t.TempDir(), "cajero.yaml")
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.API.BaseURL, got.API.BaseURL)
	assert.Equal(t, cfg.Display.Locale, got.Display.Locale)
	assert.Equal(t, cfg.Display.Currency, got.Display.Currency)
	assert.Equal(t, cfg.Display.Symbol, got.Display.Symbol)
	assert.Equal(t, cfg.Audit.Enabled, got.Audit.Enabled)
	assert.Equal(t, cfg.Audit.Dir, got.Audit.Dir)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8080/api", cfg.API.BaseURL)
	assert.Equal(t, "es-CO", cfg.Display.Locale)
	assert.Equal(t, "COP", cfg.Display.Currency)
	assert.Equal(t, "$", cfg.Display.Symbol)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, ".", cfg.Audit.Dir)
	require.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Setenv("CAJERO_API_URL", "http://env.example.com/api")

	got, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://env.example.com/api", got.API.BaseURL)
	assert.Equal(t, "COP", got.Display.Currency)
}

func TestEnvironmentOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cajero.yaml")
	require.NoError(t, Save(path, Default()))

	t.Setenv("CAJERO_API_URL", "http://otro.example.com/api")
	t.Setenv("CAJERO_AUDIT", "true")

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://otro.example.com/api", got.API.BaseURL)
	assert.True(t, got.Audit.Enabled)
	assert.Equal(t, "es-CO", got.Display.Locale, "unset variables keep file values")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cajero.yaml")
	err := Save(path, Default())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "base_url: http://localhost:8080/api")
	assert.Contains(t, contents, "locale: es-CO")
	assert.Contains(t, contents, "currency: COP")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = ""
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Display.Locale = "!!"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Display.Currency = "PESOS"
	require.Error(t, cfg.Validate())
}
