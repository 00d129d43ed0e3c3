// Package config loads and validates the toolkit configuration from
// file, environment, and flags.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Config represents the main toolkit configuration
type Config struct {
	// Extend API credentials
	Extend ExtendConfig `json:"extend" mapstructure:"extend"`

	// LLM provider used by the chat client
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`

	// Tools is the scope list, e.g. "virtual_cards.read,transactions.read"
	// or "all"
	Tools string `json:"tools" mapstructure:"tools"`

	// SSE server bind address
	SSE SSEConfig `json:"sse" mapstructure:"sse"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ExtendConfig holds Extend API credentials
type ExtendConfig struct {
	APIKey     string `json:"api_key" mapstructure:"api_key"`
	APISecret  string `json:"api_secret" mapstructure:"api_secret"`
	Host       string `json:"host" mapstructure:"host"`
	APIVersion string `json:"api_version" mapstructure:"api_version"`
}

// ProviderConfig holds LLM provider settings for the agent client
type ProviderConfig struct {
	Name   string `json:"name" mapstructure:"name"` // anthropic, openai
	APIKey string `json:"api_key" mapstructure:"api_key"`
	Model  string `json:"model" mapstructure:"model"`
}

// SSEConfig holds SSE server settings
type SSEConfig struct {
	Addr string `json:"addr" mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Extend: ExtendConfig{
			Host:       "api.paywithextend.com",
			APIVersion: "application/vnd.paywithextend.v2021-03-12+json",
		},
		Provider: ProviderConfig{
			Name:  "anthropic",
			Model: "claude-sonnet-4-20250514",
		},
		SSE: SSEConfig{
			Addr: "127.0.0.1:8000",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// String returns a JSON representation with credentials masked
func (c *Config) String() string {
	masked := *c
	masked.Extend.APIKey = maskSecret(masked.Extend.APIKey)
	masked.Extend.APISecret = maskSecret(masked.Extend.APISecret)
	masked.Provider.APIKey = maskSecret(masked.Provider.APIKey)
	data, _ := json.MarshalIndent(&masked, "", "  ")
	return string(data)
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		if s == "" {
			return ""
		}
		return "****"
	}
	return s[:8] + "****"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Extend.APIKey == "" {
		return fmt.Errorf("extend API key is required (set EXTEND_API_KEY)")
	}
	if !strings.HasPrefix(c.Extend.APIKey, "apik_") {
		return fmt.Errorf("invalid Extend API key format (should start with apik_)")
	}
	if c.Extend.APISecret == "" {
		return fmt.Errorf("extend API secret is required (set EXTEND_API_SECRET)")
	}
	if c.Tools == "" {
		return fmt.Errorf("tools scope list is required, e.g. --tools \"virtual_cards.read\" or --tools \"all\"")
	}
	return nil
}

// ValidateProvider checks provider settings needed by the chat client
func (c *Config) ValidateProvider() error {
	switch c.Provider.Name {
	case "anthropic":
		if !strings.HasPrefix(c.Provider.APIKey, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(c.Provider.APIKey, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	default:
		return fmt.Errorf("invalid provider %s (must be: anthropic, openai)", c.Provider.Name)
	}
	if c.Provider.Model == "" {
		return fmt.Errorf("provider model is required")
	}
	return nil
}
