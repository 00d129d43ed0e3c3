package langchaintool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/extend"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/permissions"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/toolkit"
)

func newTestToolkit(t *testing.T, scopes string) *toolkit.Toolkit {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
	}))
	t.Cleanup(upstream.Close)

	cfg, err := permissions.Parse(scopes)
	require.NoError(t, err)

	api := extend.NewClient(upstream.URL, "application/vnd.paywithextend.v2021-03-12+json", "apik_test", "secret")
	tk, err := toolkit.New(api, cfg)
	require.NoError(t, err)
	return tk
}

func TestTools(t *testing.T) {
	tk := newTestToolkit(t, "credit_cards.read")

	list := Tools(tk)
	require.Len(t, list, 2)
	assert.Equal(t, "get_credit_cards", list[0].Name())
	assert.Equal(t, "get_credit_card_detail", list[1].Name())
	assert.Contains(t, list[1].Description(), "credit_card_id")
}

func TestTool_Call(t *testing.T) {
	tk := newTestToolkit(t, "credit_cards.read")
	list := Tools(tk)

	result, err := list[0].Call(context.Background(), `{"per_page": 5}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, result)
}

func TestTool_Call_NonObjectInput(t *testing.T) {
	tk := newTestToolkit(t, "credit_cards.read")
	list := Tools(tk)

	// Plain-text input is rejected, not coerced.
	_, err := list[1].Call(context.Background(), "cc_1")
	require.Error(t, err)

	toolErr, ok := toolkit.AsError(err)
	require.True(t, ok)
	assert.Equal(t, toolkit.CodeInvalidArgument, toolErr.Code)
}

func TestTool_Call_MissingRequired(t *testing.T) {
	tk := newTestToolkit(t, "credit_cards.read")
	list := Tools(tk)

	_, err := list[1].Call(context.Background(), `{}`)
	require.Error(t, err)

	toolErr, ok := toolkit.AsError(err)
	require.True(t, ok)
	assert.Equal(t, toolkit.CodeInvalidArgument, toolErr.Code)
}
