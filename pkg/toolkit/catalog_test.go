package toolkit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/extend"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/permissions"
)

func TestCatalog_Complete(t *testing.T) {
	catalog := Catalog(&stubAPI{})
	assert.Len(t, catalog, 20)

	seen := map[string]bool{}
	for _, tool := range catalog {
		assert.NotEmpty(t, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.NotNil(t, tool.Handler)
		assert.False(t, seen[tool.Name], "duplicate tool name %s", tool.Name)
		seen[tool.Name] = true

		_, err := permissions.ParseProduct(string(tool.Product))
		assert.NoError(t, err, tool.Name)
		_, err = permissions.ParseAction(string(tool.Action))
		assert.NoError(t, err, tool.Name)
	}
}

// capturingAPI records the params passed to CreateVirtualCard.
type capturingAPI struct {
	stubAPI
	created extend.CreateVirtualCardParams
}

func (c *capturingAPI) CreateVirtualCard(ctx context.Context, p extend.CreateVirtualCardParams) (map[string]interface{}, error) {
	c.created = p
	return c.record()
}

func TestCatalog_CreateVirtualCard_DollarsToCents(t *testing.T) {
	api := &capturingAPI{}
	tk, err := New(api, permissions.AllProducts())
	require.NoError(t, err)

	_, err = tk.Invoke(context.Background(), "create_virtual_card", map[string]interface{}{
		"credit_card_id": "cc_1",
		"display_name":   "Team lunch",
		"amount_dollars": 123.45,
	})
	require.NoError(t, err)

	assert.Equal(t, 12345, api.created.BalanceCents)
	assert.False(t, api.created.IsRecurring)
	assert.Nil(t, api.created.Recurrence)
}

func TestCatalog_CreateVirtualCard_Recurring(t *testing.T) {
	api := &capturingAPI{}
	tk, err := New(api, permissions.AllProducts())
	require.NoError(t, err)

	_, err = tk.Invoke(context.Background(), "create_virtual_card", map[string]interface{}{
		"credit_card_id": "cc_1",
		"display_name":   "Subscription",
		"amount_dollars": 50,
		"is_recurring":   true,
		"period":         "MONTHLY",
		"interval":       1,
		"terminator":     "NONE",
		"by_month_day":   15,
	})
	require.NoError(t, err)

	require.NotNil(t, api.created.Recurrence)
	assert.Equal(t, "MONTHLY", api.created.Recurrence.Period)
	require.NotNil(t, api.created.Recurrence.ByMonthDay)
	assert.Equal(t, 15, *api.created.Recurrence.ByMonthDay)
}

func TestCatalog_UpdateExpenseData_RequiresConfirmation(t *testing.T) {
	api := &stubAPI{}
	tk, err := New(api, permissions.AllProducts())
	require.NoError(t, err)

	_, err = tk.Invoke(context.Background(), "update_transaction_expense_data", map[string]interface{}{
		"transaction_id":             "txn_1",
		"user_confirmed_data_values": false,
		"data":                       map[string]interface{}{"expenseDetails": []interface{}{}},
	})
	require.Error(t, err)

	toolErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidArgument, toolErr.Code)
	assert.Zero(t, api.calls)
}

func TestWithRetry_TransientThenSuccess(t *testing.T) {
	calls := 0
	h := withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		calls++
		if calls == 1 {
			return nil, &extend.Error{Kind: extend.ErrRateLimited, Message: "slow down", Status: 429}
		}
		return "done", nil
	})

	result, err := h(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_NonRetryableFailsFast(t *testing.T) {
	calls := 0
	h := withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		calls++
		return nil, &extend.Error{Kind: extend.ErrNotFound, Message: "missing", Status: 404}
	})

	_, err := h(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var apiErr *extend.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, extend.ErrNotFound, apiErr.Kind)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	h := withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		calls++
		return nil, &extend.Error{Kind: extend.ErrTransientNetwork, Message: "flaky"}
	})

	_, err := h(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, maxHandlerAttempts, calls)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		return nil, &extend.Error{Kind: extend.ErrRateLimited, Message: "slow down"}
	})

	_, err := h(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
