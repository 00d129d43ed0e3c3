// Package agent runs a multi-turn conversation loop between an LLM
// provider and an MCP peer's tools.
package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/mcp"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

const (
	// DefaultMaxTurns bounds how many provider round trips a single
	// user message may trigger before the session gives up.
	DefaultMaxTurns = 10

	maxProviderAttempts = 3
)

// Peer is the tool surface the session talks to. *mcp.Client satisfies
// it for both stdio and SSE transports.
type Peer interface {
	ListTools(ctx context.Context) ([]mcp.ToolSpec, error)
	CallTool(ctx context.Context, name string, args map[string]interface{}) (json.RawMessage, error)
}

// Options configures a Session.
type Options struct {
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	MaxTurns     int
}

// Session holds one conversation. The message history is append-only;
// tool specs are fetched once and reused for every provider call.
type Session struct {
	provider LLMProvider
	peer     Peer
	opts     Options

	tools    []mcp.ToolSpec
	messages []Message
}

// NewSession discovers the peer's tools and prepares a conversation.
func NewSession(ctx context.Context, provider LLMProvider, peer Peer, opts Options) (*Session, error) {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}

	tools, err := peer.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("provider", provider.Provider()).
		Str("model", opts.Model).
		Int("tools", len(tools)).
		Msg("Agent session started")

	return &Session{
		provider: provider,
		peer:     peer,
		opts:     opts,
		tools:    tools,
	}, nil
}

// Tools returns the peer's tool specs as discovered at session start.
func (s *Session) Tools() []mcp.ToolSpec {
	out := make([]mcp.ToolSpec, len(s.tools))
	copy(out, s.tools)
	return out
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// ProcessMessage appends the user message and drives the provider until
// it responds without tool calls or the turn limit is hit. Tool
// failures are reported back to the provider as tool results, not
// surfaced to the caller; only transport and provider failures abort
// the loop.
func (s *Session) ProcessMessage(ctx context.Context, text string) (string, error) {
	s.messages = append(s.messages, Message{Role: "user", Content: text})

	for turn := 0; turn < s.opts.MaxTurns; turn++ {
		response, err := s.callProvider(ctx)
		if err != nil {
			return "", err
		}

		if len(response.ToolCalls) == 0 {
			s.messages = append(s.messages, Message{Role: "assistant", Content: response.Content})
			return response.Content, nil
		}

		s.messages = append(s.messages, Message{
			Role:      "assistant",
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})

		results, err := s.executeToolCalls(ctx, response.ToolCalls)
		if err != nil {
			return "", err
		}
		s.messages = append(s.messages, results...)
	}

	return "", toolkit.NewError(toolkit.CodeTurnLimitExceeded,
		"conversation exceeded %d turns without a final response", s.opts.MaxTurns)
}

// executeToolCalls runs a batch of tool calls concurrently and returns
// one tool message per call, in the order the provider requested them.
func (s *Session) executeToolCalls(ctx context.Context, calls []ToolCall) ([]Message, error) {
	results := make([]Message, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = Message{
				Role:       "tool",
				Content:    s.executeToolCall(gctx, call),
				ToolCallID: call.ID,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// executeToolCall invokes one tool on the peer. The result text is
// either the serialized payload or the serialized tool error, so the
// provider always sees what happened.
func (s *Session) executeToolCall(ctx context.Context, call ToolCall) string {
	log.Debug().Str("tool", call.Name).Msg("Executing tool call")

	result, err := s.peer.CallTool(ctx, call.Name, call.Arguments)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Name).Msg("Tool call failed")
		if toolErr, ok := toolkit.AsError(err); ok {
			data, merr := json.Marshal(toolErr)
			if merr == nil {
				return string(data)
			}
		}
		return `{"code":"transient_network","message":` + quoteJSON(err.Error()) + `}`
	}
	return string(result)
}

func quoteJSON(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		return `"tool call failed"`
	}
	return string(data)
}

// callProvider makes one completion call, retrying transient provider
// failures with exponential backoff.
func (s *Session) callProvider(ctx context.Context) (*LLMResponse, error) {
	req := LLMRequest{
		Model:        s.opts.Model,
		Messages:     s.messages,
		Tools:        s.tools,
		Temperature:  s.opts.Temperature,
		MaxTokens:    s.opts.MaxTokens,
		SystemPrompt: s.opts.SystemPrompt,
	}

	var lastErr error
	for attempt := 0; attempt < maxProviderAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			log.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying provider call")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		response, err := s.provider.Call(ctx, req)
		if err == nil {
			return response, nil
		}
		if !IsRetryableError(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
