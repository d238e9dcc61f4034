package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level cajero.yaml configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Display DisplayConfig `yaml:"display"`
	Audit   AuditConfig   `yaml:"audit"`
}

// APIConfig locates the backend. The base URL is fixed at configuration
// time; there is no discovery at runtime.
type APIConfig struct {
	BaseURL string `yaml:"base_url" env:"CAJERO_API_URL"`
}

// DisplayConfig fixes the rendering locale and currency.
type DisplayConfig struct {
	Locale   string `yaml:"locale" env:"CAJERO_LOCALE"`
	Currency string `yaml:"currency" env:"CAJERO_CURRENCY"` // ISO 4217
	Symbol   string `yaml:"symbol" env:"CAJERO_SYMBOL"`
}

// AuditConfig controls the local CSV trail of session activity.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" env:"CAJERO_AUDIT"`
	Dir     string `yaml:"dir" env:"CAJERO_AUDIT_DIR"`
}

// Load reads a cajero.yaml file from disk and overlays CAJERO_*
// environment variables on top of it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to the stock settings
// (still honoring the environment) when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		if err := env.Parse(cfg); err != nil {
			return nil, fmt.Errorf("reading environment: %w", err)
		}
		return cfg, nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with the stock terminal settings.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
		},
		Display: DisplayConfig{
			Locale:   "es-CO",
			Currency: "COP",
			Symbol:   "$",
		},
		Audit: AuditConfig{
			Enabled: false,
			Dir:     ".",
		},
	}
}

// Validate checks that the configuration can actually drive a session.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if _, err := language.Parse(c.Display.Locale); err != nil {
		return fmt.Errorf("display.locale %q: %w", c.Display.Locale, err)
	}
	if _, err := currency.ParseISO(c.Display.Currency); err != nil {
		return fmt.Errorf("display.currency %q: %w", c.Display.Currency, err)
	}
	return nil
}
