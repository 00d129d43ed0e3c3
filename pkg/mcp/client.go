package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

const callTimeout = 30 * time.Second

// Client drives a remote MCP server as a peer: discovery via
// tools/list, invocation via tools/call. One Client per connection.
type Client struct {
	mu       sync.Mutex
	nextID   int
	pending  map[int]chan *Response
	endpoint string // message endpoint announced by the SSE transport

	send    func(ctx context.Context, data []byte) error
	cleanup func() error

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(send func(ctx context.Context, data []byte) error, cleanup func() error) *Client {
	return &Client{
		pending: make(map[int]chan *Response),
		send:    send,
		cleanup: cleanup,
		done:    make(chan struct{}),
	}
}

// DialStdio spawns the server as a subprocess and connects over its
// stdin/stdout.
func DialStdio(ctx context.Context, command string, args ...string) (*Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start MCP server: %w", err)
	}

	c := newClient(
		func(ctx context.Context, data []byte) error {
			_, err := stdin.Write(append(data, '\n'))
			return err
		},
		func() error {
			stdin.Close()
			if cmd.Process == nil {
				return nil
			}
			err := cmd.Process.Kill()
			// Reap the subprocess; Wait reports the kill signal.
			cmd.Wait()
			if errors.Is(err, os.ErrProcessDone) {
				return nil
			}
			return err
		},
	)

	go c.readLines(stdout)
	return c, nil
}

// readLines dispatches line-framed responses until the stream closes.
func (c *Client) readLines(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		c.dispatch(scanner.Bytes())
	}
	c.Close()
}

func (c *Client) dispatch(data []byte) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal MCP response")
		return
	}

	id, ok := resp.ID.(float64)
	if !ok {
		return
	}

	c.mu.Lock()
	ch, exists := c.pending[int(id)]
	if exists {
		delete(c.pending, int(id))
	}
	c.mu.Unlock()

	if exists {
		ch <- &resp
	}
}

// call sends one request and waits for its response.
func (c *Client) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	select {
	case <-c.done:
		return nil, fmt.Errorf("mcp: connection closed")
	default:
	}

	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan *Response, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	req := Request{JSONRPC: "2.0", Method: method, ID: id}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		req.Params = data
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if err := c.send(ctx, data); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("mcp error (%d): %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-c.done:
		c.forget(id)
		return nil, fmt.Errorf("mcp: connection closed")
	case <-time.After(callTimeout):
		c.forget(id)
		return nil, toolkit.NewError(toolkit.CodeTimeout, "mcp request timed out after %v", callTimeout)
	}
}

// forget drops an abandoned in-flight request so a late response does
// not pile up in pending.
func (c *Client) forget(id int) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Initialize performs the MCP handshake.
func (c *Client) Initialize(ctx context.Context) error {
	_, err := c.call(ctx, "initialize", map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"capabilities":    map[string]interface{}{},
		"clientInfo": map[string]interface{}{
			"name":    "extend-ai-toolkit",
			"version": "0.1.0",
		},
	})
	return err
}

// ListTools performs discovery. The order is the server's catalog order
// and is identical across calls within one session.
func (c *Client) ListTools(ctx context.Context) ([]ToolSpec, error) {
	result, err := c.call(ctx, "tools/list", nil)
	if err != nil {
		return nil, err
	}
	var listResult listToolsResult
	if err := json.Unmarshal(result, &listResult); err != nil {
		return nil, err
	}
	return listResult.Tools, nil
}

// CallTool invokes one tool on the peer. Tool failures reported in-band
// come back as a *toolkit.Error with code and message preserved; the
// success payload is the serialized handler result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (json.RawMessage, error) {
	result, err := c.call(ctx, "tools/call", callToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}

	var callResult CallToolResult
	if err := json.Unmarshal(result, &callResult); err != nil {
		return nil, err
	}

	text := ""
	if len(callResult.Content) > 0 {
		text = callResult.Content[0].Text
	}

	if callResult.IsError {
		var toolErr toolkit.Error
		if err := json.Unmarshal([]byte(text), &toolErr); err != nil || toolErr.Code == "" {
			return nil, toolkit.NewError(toolkit.CodeTransientNetwork, "%s", text)
		}
		return nil, &toolErr
	}

	return json.RawMessage(text), nil
}

// Close aborts in-flight calls and releases the transport.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.cleanup != nil {
			err = c.cleanup()
		}
	})
	return err
}
