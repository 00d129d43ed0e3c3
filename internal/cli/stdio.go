package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/mcp"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP over stdin/stdout",
	Long: `Runs the MCP server on standard input and output, one JSON-RPC
message per line. Logs go to stderr so they never interleave with the
protocol stream.`,
	RunE: runStdio,
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}

func runStdio(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// No console logging; the parent process owns the terminal.
	lg, err := setupLogger(cfg, false)
	if err != nil {
		return err
	}
	defer lg.Close()

	tk, err := buildToolkit(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("tools", cfg.Tools).Msg("Starting MCP stdio server")
	return mcp.NewServer(tk, version).ServeStdio(ctx, os.Stdin, os.Stdout)
}
