package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentClient never delivers a response; calls can only end by
// deadline or Close.
func silentClient() *Client {
	return newClient(func(ctx context.Context, data []byte) error { return nil }, nil)
}

func TestClient_Call_DeadlineForgetsRequest(t *testing.T) {
	c := silentClient()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.call(ctx, "tools/list", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.pending, "abandoned request must not linger")
}

func TestClient_Call_CloseForgetsRequest(t *testing.T) {
	c := silentClient()

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Close()
	}()

	_, err := c.call(context.Background(), "tools/list", nil)
	require.EqualError(t, err, "mcp: connection closed")

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Empty(t, c.pending)
}

func TestDialStdio_CloseKillsSubprocess(t *testing.T) {
	ctx := context.Background()

	// cat echoes each request line back, which is enough to satisfy the
	// id match in dispatch.
	c, err := DialStdio(ctx, "cat")
	require.NoError(t, err)

	require.NoError(t, c.Initialize(ctx))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Close is idempotent")

	_, err = c.call(ctx, "ping", nil)
	assert.EqualError(t, err, "mcp: connection closed")
}
