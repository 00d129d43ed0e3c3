package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

func TestClientServer_SSE(t *testing.T) {
	s := newTestServer(t, "expense_categories.read", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"expenseCategories": []interface{}{}})
	})

	srv := httptest.NewServer(s.SSEHandler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := DialSSE(ctx, srv.URL)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Initialize(ctx))

	specs, err := c.ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "get_expense_categories", specs[0].Name)
	assert.Equal(t, "get_expense_category", specs[1].Name)
	assert.Equal(t, "get_expense_category_labels", specs[2].Name)

	raw, err := c.CallTool(ctx, "get_expense_categories", map[string]interface{}{"active": true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"expenseCategories":[]}`, string(raw))

	_, err = c.CallTool(ctx, "create_expense_category", map[string]interface{}{
		"name": "Travel", "code": "TRV", "required": true,
	})
	require.Error(t, err)

	toolErr, ok := toolkit.AsError(err)
	require.True(t, ok)
	assert.Equal(t, toolkit.CodeNotAuthorized, toolErr.Code)
}

func TestSSEHandler_UnknownSession(t *testing.T) {
	s := newTestServer(t, "all", nil)

	srv := httptest.NewServer(s.SSEHandler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/messages?session=nope", "application/json",
		nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSSEHandler_StreamRequiresGet(t *testing.T) {
	s := newTestServer(t, "all", nil)

	srv := httptest.NewServer(s.SSEHandler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sse", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
