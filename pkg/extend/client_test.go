package extend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVersion = "application/vnd.paywithextend.v2021-03-12+json"

// newTestClient points a client at an httptest server.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, testVersion, "apik_test", "secret"), srv
}

func TestClient_Headers(t *testing.T) {
	var got http.Header
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		json.NewEncoder(w).Encode(map[string]interface{}{"virtualCards": []interface{}{}})
	})

	_, err := client.GetVirtualCards(context.Background(), GetVirtualCardsParams{PerPage: 10})
	require.NoError(t, err)

	assert.Equal(t, testVersion, got.Get("Accept"))
	assert.Equal(t, "apik_test", got.Get("x-extend-api-key"))
	// base64("apik_test:secret")
	assert.Equal(t, "Basic YXBpa190ZXN0OnNlY3JldA==", got.Get("Authorization"))
}

func TestClient_GetVirtualCards_Query(t *testing.T) {
	var gotPath, gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{"virtualCards": []interface{}{}})
	})

	_, err := client.GetVirtualCards(context.Background(), GetVirtualCardsParams{
		Page:       2,
		PerPage:    25,
		Status:     "ACTIVE",
		SearchTerm: "lunch",
	})
	require.NoError(t, err)

	assert.Equal(t, "/virtualcards", gotPath)
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "perPage=25")
	assert.Contains(t, gotQuery, "status=ACTIVE")
	assert.Contains(t, gotQuery, "search=lunch")
}

func TestClient_GetTransactions_AmountFilters(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{"transactions": []interface{}{}})
	})

	minCents, maxCents := 500, 10000
	_, err := client.GetTransactions(context.Background(), GetTransactionsParams{
		PerPage:        50,
		FromDate:       "2025-01-01",
		ToDate:         "2025-01-31",
		MinAmountCents: &minCents,
		MaxAmountCents: &maxCents,
	})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "since=2025-01-01")
	assert.Contains(t, gotQuery, "until=2025-01-31")
	assert.Contains(t, gotQuery, "minClearingBillingCents=500")
	assert.Contains(t, gotQuery, "maxClearingBillingCents=10000")
}

func TestClient_GetTransactions_BadDate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.GetTransactions(context.Background(), GetTransactionsParams{FromDate: "01/01/2025"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrInvalidInput, apiErr.Kind)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		kind   ErrorKind
	}{
		{http.StatusBadRequest, ErrInvalidInput},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusUnprocessableEntity, ErrInvalidInput},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrTransientNetwork},
		{http.StatusBadGateway, ErrTransientNetwork},
	}

	for _, tt := range tests {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
		})

		_, err := client.GetVirtualCardDetail(context.Background(), "vc_1")
		require.Error(t, err, "status %d", tt.status)

		var apiErr *Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tt.kind, apiErr.Kind, "status %d", tt.status)
		assert.Equal(t, tt.status, apiErr.Status)
		assert.Equal(t, "boom", apiErr.Message)
	}
}

func TestClient_CreateVirtualCard_Body(t *testing.T) {
	var gotBody map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{"virtualCard": map[string]interface{}{"id": "vc_1"}})
	})

	_, err := client.CreateVirtualCard(context.Background(), CreateVirtualCardParams{
		CreditCardID: "cc_1",
		DisplayName:  "Team lunch",
		BalanceCents: 12345,
		ValidTo:      "2025-12-31",
	})
	require.NoError(t, err)

	assert.Equal(t, "cc_1", gotBody["creditCardId"])
	assert.Equal(t, float64(12345), gotBody["balanceCents"])
	assert.Equal(t, "2025-12-31T23:59:59.999Z", gotBody["validTo"])
	assert.NotContains(t, gotBody, "recurs")
}

func TestClient_ProposeConfirmExpenseData(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "txn_1"})
	})

	data := map[string]interface{}{
		"expenseDetails": []interface{}{
			map[string]interface{}{"categoryId": "ec_1", "labelId": "ecl_1"},
		},
	}

	proposal, err := client.ProposeTransactionExpenseData(context.Background(), "txn_1", data)
	require.NoError(t, err)
	assert.Equal(t, "pending_confirmation", proposal["status"])
	assert.Empty(t, gotPath, "proposal must not hit the API")

	token, ok := proposal["confirmationToken"].(string)
	require.True(t, ok)
	require.NotEmpty(t, token)

	result, err := client.ConfirmTransactionExpenseData(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "txn_1", result["id"])
	assert.Equal(t, "/transactions/txn_1/expensedata", gotPath)
	assert.Equal(t, data, gotBody)

	// The token is single use.
	_, err = client.ConfirmTransactionExpenseData(context.Background(), token)
	require.Error(t, err)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrNotFound, apiErr.Kind)
}

func TestClient_ConfirmExpenseData_UnknownToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.ConfirmTransactionExpenseData(context.Background(), "not-a-token")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrNotFound, apiErr.Kind)
}

func TestClient_UpdateExpenseCategory_NoFields(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.UpdateExpenseCategory(context.Background(), UpdateExpenseCategoryParams{CategoryID: "ec_1"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrInvalidInput, apiErr.Kind)
}

func TestClient_DeadlineExceeded(t *testing.T) {
	started := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GetVirtualCardDetail(ctx, "vc_1")
	require.Error(t, err)
	<-started

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrTimeout, apiErr.Kind)
}

func TestClient_ContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetVirtualCardDetail(ctx, "vc_1")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrTransientNetwork, apiErr.Kind)
}
