package cli

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/mcp"
)

var sseAddr string

var sseCmd = &cobra.Command{
	Use:   "sse",
	Short: "Serve MCP over HTTP with server-sent events",
	Long: `Runs the MCP server over HTTP. Clients open a GET /sse stream to
receive responses and POST requests to the announced /messages endpoint.`,
	RunE: runSSE,
}

func init() {
	sseCmd.Flags().StringVar(&sseAddr, "addr", "", "listen address (default 127.0.0.1:8000)")
	rootCmd.AddCommand(sseCmd)
}

func runSSE(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if sseAddr != "" {
		cfg.SSE.Addr = sseAddr
	}

	lg, err := setupLogger(cfg, true)
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

	log.Info().Str("addr", cfg.SSE.Addr).Str("tools", cfg.Tools).Msg("Starting MCP SSE server")
	return mcp.NewServer(tk, version).ServeSSE(ctx, cfg.SSE.Addr)
}
