package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

const serverName = "Extend"

// Server exposes one Toolkit over the MCP discovery/invocation
// protocol. The same handler path serves both transports; only framing
// and connection lifecycle differ.
type Server struct {
	version string
	tk      *toolkit.Toolkit
}

// NewServer creates an MCP server around an authorization-filtered
// toolkit.
func NewServer(tk *toolkit.Toolkit, version string) *Server {
	return &Server{version: version, tk: tk}
}

// Specs returns the discovery list for every authorized tool, in
// catalog order.
func (s *Server) Specs() []ToolSpec {
	tools := s.tk.List()
	specs := make([]ToolSpec, 0, len(tools))
	for _, tool := range tools {
		specs = append(specs, ToolSpec{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema(),
		})
	}
	return specs
}

// handle processes one JSON-RPC message. Notifications return nil.
func (s *Server) handle(ctx context.Context, req Request) *Response {
	if req.ID == nil {
		// Notification (e.g. notifications/initialized); nothing to send.
		return nil
	}

	resp := &Response{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "initialize":
		resp.Result = mustMarshal(initializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]interface{}{"tools": map[string]interface{}{}},
			ServerInfo:      serverInfo{Name: serverName, Version: s.version},
		})

	case "tools/list":
		resp.Result = mustMarshal(listToolsResult{Tools: s.Specs()})

	case "tools/call":
		var params callToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			resp.Error = &RPCError{Code: codeInvalidParams, Message: "invalid tools/call params: " + err.Error()}
			break
		}
		resp.Result = mustMarshal(s.callTool(ctx, params))

	case "ping":
		resp.Result = json.RawMessage(`{}`)

	default:
		resp.Error = &RPCError{Code: codeMethodNotFound, Message: "method not found: " + req.Method}
	}

	return resp
}

// callTool routes an invocation through Toolkit.Invoke. Tool failures
// are reported in-band so the calling agent can react to them.
func (s *Server) callTool(ctx context.Context, params callToolParams) CallToolResult {
	result, err := s.tk.Invoke(ctx, params.Name, params.Arguments)
	if err != nil {
		toolErr, ok := toolkit.AsError(err)
		if !ok {
			toolErr = toolkit.NewError(toolkit.CodeTransientNetwork, "%s", err.Error())
		}
		return CallToolResult{
			IsError: true,
			Content: []ContentBlock{{Type: "text", Text: string(mustMarshal(toolErr))}},
		}
	}

	return CallToolResult{
		Content: []ContentBlock{{Type: "text", Text: string(mustMarshal(result))}},
	}
}

// ServeStdio serves one co-located peer over a line-framed duplex
// stream until the stream closes or ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var writeMu sync.Mutex
	writeResp := func(resp *Response) error {
		data, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		_, err = w.Write(append(data, '\n'))
		return err
	}

	log.Info().Msg("MCP server listening on stdio")

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if writeErr := writeResp(&Response{
				JSONRPC: "2.0",
				Error:   &RPCError{Code: codeParseError, Message: "parse error: " + err.Error()},
			}); writeErr != nil {
				return writeErr
			}
			continue
		}

		resp := s.handle(ctx, req)
		if resp == nil {
			continue
		}
		if err := writeResp(resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable for unmarshalable handler results, which the
		// catalog never produces.
		log.Error().Err(err).Msg("Failed to marshal MCP payload")
		return json.RawMessage(`{}`)
	}
	return data
}
