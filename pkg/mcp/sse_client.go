package mcp

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DialSSE connects to a server's SSE transport at baseURL (e.g.
// "http://localhost:8080"). It blocks until the server announces the
// message endpoint.
func DialSSE(ctx context.Context, baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	streamCtx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, baseURL+"/sse", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect to SSE server: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("SSE server returned %d", resp.StatusCode)
	}

	endpointCh := make(chan string, 1)
	httpClient := &http.Client{Timeout: callTimeout}

	var c *Client
	c = newClient(
		func(ctx context.Context, data []byte) error {
			c.mu.Lock()
			endpoint := c.endpoint
			c.mu.Unlock()
			if endpoint == "" {
				return fmt.Errorf("mcp: no message endpoint announced yet")
			}
			post, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+endpoint, bytes.NewReader(data))
			if err != nil {
				return err
			}
			post.Header.Set("Content-Type", "application/json")
			postResp, err := httpClient.Do(post)
			if err != nil {
				return err
			}
			defer postResp.Body.Close()
			if postResp.StatusCode >= 300 {
				return fmt.Errorf("message endpoint returned %d", postResp.StatusCode)
			}
			return nil
		},
		func() error {
			cancel()
			return resp.Body.Close()
		},
	)

	go c.readEvents(resp.Body, endpointCh)

	select {
	case endpoint := <-endpointCh:
		c.mu.Lock()
		c.endpoint = endpoint
		c.mu.Unlock()
		return c, nil
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	case <-time.After(callTimeout):
		c.Close()
		return nil, fmt.Errorf("timed out waiting for SSE endpoint event")
	}
}

// readEvents parses the SSE stream: the endpoint event announces where
// to POST requests; message events carry JSON-RPC responses.
func (c *Client) readEvents(body io.Reader, endpointCh chan<- string) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	event := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			switch event {
			case "endpoint":
				select {
				case endpointCh <- data:
				default:
				}
			case "message":
				c.dispatch([]byte(data))
			}
		case line == "":
			event = ""
		}
	}
	c.Close()
}
