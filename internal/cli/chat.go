package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/agent"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/mcp"
)

var (
	chatServerURL string
	chatProvider  string
	chatModel     string
	chatMaxTurns  int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive agent session against the toolkit",
	Long: `Starts a chat loop where an LLM answers with access to the Extend
tools. By default the MCP server runs as a subprocess over stdio; pass
--server-url to connect to a running SSE server instead.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatServerURL, "server-url", "", "base URL of a running SSE server (default: spawn stdio subprocess)")
	chatCmd.Flags().StringVar(&chatProvider, "provider", "", "LLM provider (anthropic, openai)")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "model name")
	chatCmd.Flags().IntVar(&chatMaxTurns, "max-turns", agent.DefaultMaxTurns, "max provider round trips per message")
	rootCmd.AddCommand(chatCmd)
}

const chatSystemPrompt = `You are a helpful assistant for Extend spend management.
You can inspect and manage virtual cards, credit cards, transactions, and
expense categories through the available tools. Confirm with the user
before creating or updating anything.`

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if chatProvider != "" {
		cfg.Provider.Name = chatProvider
	}
	if chatModel != "" {
		cfg.Provider.Model = chatModel
	}
	if err := cfg.ValidateProvider(); err != nil {
		return err
	}

	lg, err := setupLogger(cfg, false)
	if err != nil {
		return err
	}
	defer lg.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var client *mcp.Client
	if chatServerURL != "" {
		client, err = mcp.DialSSE(ctx, chatServerURL)
	} else {
		exe, exeErr := os.Executable()
		if exeErr != nil {
			return exeErr
		}
		// Credentials reach the subprocess through the inherited
		// environment, never argv.
		serverArgs := []string{"stdio", "--tools", cfg.Tools}
		if cfgFile != "" {
			serverArgs = append(serverArgs, "--config", cfgFile)
		}
		client, err = mcp.DialStdio(ctx, exe, serverArgs...)
	}
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Initialize(ctx); err != nil {
		return err
	}

	provider, err := agent.NewProvider(cfg.Provider.Name, cfg.Provider.APIKey)
	if err != nil {
		return err
	}

	session, err := agent.NewSession(ctx, provider, client, agent.Options{
		Model:        cfg.Provider.Model,
		SystemPrompt: chatSystemPrompt,
		MaxTurns:     chatMaxTurns,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Connected with %d tools. Type a message, or \"exit\" to quit.\n", len(session.Tools()))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			break
		}

		reply, err := session.ProcessMessage(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
	return scanner.Err()
}
