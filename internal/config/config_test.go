package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Extend.APIKey = "apik_test123"
	cfg.Extend.APISecret = "secret"
	cfg.Tools = "virtual_cards.read"
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing api key",
			mutate: func(c *Config) { c.Extend.APIKey = "" },
		},
		{
			name:   "wrong key prefix",
			mutate: func(c *Config) { c.Extend.APIKey = "sk-test123" },
		},
		{
			name:   "missing api secret",
			mutate: func(c *Config) { c.Extend.APISecret = "" },
		},
		{
			name:   "missing tools",
			mutate: func(c *Config) { c.Tools = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfig_ValidateProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.Name = "anthropic"
	cfg.Provider.APIKey = "sk-ant-test123"
	cfg.Provider.Model = "claude-sonnet-4-20250514"
	assert.NoError(t, cfg.ValidateProvider())

	cfg.Provider.Name = "openai"
	cfg.Provider.APIKey = "sk-test123"
	cfg.Provider.Model = "gpt-4o"
	assert.NoError(t, cfg.ValidateProvider())

	cfg.Provider.APIKey = "apik_wrong"
	assert.Error(t, cfg.ValidateProvider())

	cfg.Provider.Name = "gemini"
	assert.Error(t, cfg.ValidateProvider())
}

func TestConfig_String_MasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.APIKey = "sk-ant-supersecretvalue"

	s := cfg.String()
	assert.NotContains(t, s, "apik_test123")
	assert.NotContains(t, s, "sk-ant-supersecretvalue")
	assert.Contains(t, s, "apik_tes****")
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope.json"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "api.paywithextend.com", cfg.Extend.Host)
	assert.Equal(t, "anthropic", cfg.Provider.Name)
}

func TestLoader_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolkit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"extend": {"api_key": "apik_fromfile", "api_secret": "s3cret"},
		"tools": "transactions.read",
		"logging": {"level": "debug"}
	}`), 0600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "apik_fromfile", cfg.Extend.APIKey)
	assert.Equal(t, "transactions.read", cfg.Tools)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, "api.paywithextend.com", cfg.Extend.Host)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "toolkit.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"extend": {"api_key": "apik_fromfile", "api_secret": "s3cret"}
	}`), 0600))

	t.Setenv("EXTEND_API_KEY", "apik_fromenv")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-fromenv")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "apik_fromenv", cfg.Extend.APIKey)
	assert.Equal(t, "s3cret", cfg.Extend.APISecret)
	assert.Equal(t, "sk-ant-fromenv", cfg.Provider.APIKey)
}
