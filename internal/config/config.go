// Package config loads process-level settings from the environment.
// A .env file is honored when present. Runtime preferences that belong to
// the vault itself (auto-lock, PIN-enabled flag) live in the durable
// prefs bucket instead.
package config

import (
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

// Config holds environment-provided settings.
type Config struct {
	// Home is the directory holding the vault database. Defaults to
	// ~/.otpvault when unset.
	Home string `env:"OTPVAULT_HOME"`

	// PIN supplies the vault PIN non-interactively, for scripting.
	PIN string `env:"OTPVAULT_PIN"`

	// LogLevel controls CLI diagnostics: debug, info, warn, error.
	LogLevel string `env:"OTPVAULT_LOG_LEVEL" envDefault:"warn"`
}

// Load parses the environment into a Config and applies defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, err
		}
		cfg.Home = filepath.Join(home, ".otpvault")
	}
	return cfg, nil
}

// DatabasePath returns the vault database file path.
func (c Config) DatabasePath() string {
	return filepath.Join(c.Home, "vault.db")
}
