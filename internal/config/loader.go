package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file and environment. Environment
// variables override file values; EXTEND_API_KEY, EXTEND_API_SECRET,
// ANTHROPIC_API_KEY, and OPENAI_API_KEY are recognized directly.
func (l *Loader) Load() (*Config, error) {
	configPath := l.configPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".extend", "toolkit.json")
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		v := viper.New()
		v.SetConfigFile(configPath)
		v.SetConfigType("json")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overlays the well-known environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("EXTEND_API_KEY"); v != "" {
		cfg.Extend.APIKey = v
	}
	if v := os.Getenv("EXTEND_API_SECRET"); v != "" {
		cfg.Extend.APISecret = v
	}
	if v := os.Getenv("EXTEND_API_HOST"); v != "" {
		cfg.Extend.Host = v
	}
	if v := os.Getenv("EXTEND_API_VERSION"); v != "" {
		cfg.Extend.APIVersion = v
	}

	// The provider key env var depends on which provider is selected.
	switch cfg.Provider.Name {
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.Provider.APIKey = v
		}
	default:
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.Provider.APIKey = v
		}
	}
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".extend", "toolkit.json")
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
