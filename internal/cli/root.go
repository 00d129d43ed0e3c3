// Package cli wires the toolkit commands: an MCP server over stdio or
// SSE, and an interactive chat client.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paywithextend/extend-ai-toolkit-go/internal/config"
	"github.com/paywithextend/extend-ai-toolkit-go/internal/logger"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/extend"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/permissions"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

const version = "0.1.0"

var (
	cfgFile   string
	logLevel  string
	tools     string
	apiKey    string
	apiSecret string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "extend-mcp",
	Short: "Extend spend management tools for AI agents",
	Long: `extend-mcp exposes Extend virtual cards, credit cards, transactions,
and expense categories as agent tools over the Model Context Protocol.
Tool access is granted per product and action via --tools scopes.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.extend/toolkit.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&tools, "tools", "", `scope list, e.g. "virtual_cards.read,transactions.read" or "all"`)
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Extend API key (overrides EXTEND_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&apiSecret, "api-secret", "", "Extend API secret (overrides EXTEND_API_SECRET)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// loadConfig loads the config file, applies flag overrides, and
// validates the Extend credentials.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if tools != "" {
		cfg.Tools = tools
	}
	if apiKey != "" {
		cfg.Extend.APIKey = apiKey
	}
	if apiSecret != "" {
		cfg.Extend.APISecret = apiSecret
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogger installs the global logger from config.
func setupLogger(cfg *config.Config, console bool) (*logger.Logger, error) {
	return logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   console,
		Pretty:    console,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
	})
}

// buildToolkit constructs the authorized toolkit from config.
func buildToolkit(cfg *config.Config) (*toolkit.Toolkit, error) {
	scopes, err := permissions.Parse(cfg.Tools)
	if err != nil {
		return nil, fmt.Errorf("invalid --tools value: %w", err)
	}

	api := extend.NewClient(cfg.Extend.Host, cfg.Extend.APIVersion, cfg.Extend.APIKey, cfg.Extend.APISecret)
	return toolkit.New(api, scopes)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
