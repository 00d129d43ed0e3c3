package extend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const proposalTTL = 10 * time.Minute

// Client is the HTTP implementation of the API interface. Safe for
// concurrent use; may be shared across sessions in one process.
type Client struct {
	host       string
	headers    map[string]string
	httpClient *http.Client

	// Pending expense-data proposals, keyed by confirmation token.
	// Held in memory for the lifetime of the process only.
	proposalsMu sync.Mutex
	proposals   map[string]pendingProposal
}

type pendingProposal struct {
	transactionID string
	data          map[string]interface{}
	expiresAt     time.Time
}

// NewClient creates an Extend API client. The version string is sent as
// the Accept header, e.g. "application/vnd.paywithextend.v2021-03-12+json".
func NewClient(host, version, apiKey, apiSecret string) *Client {
	auth := base64.StdEncoding.EncodeToString([]byte(apiKey + ":" + apiSecret))
	return &Client{
		host: host,
		headers: map[string]string{
			"Authorization":    "Basic " + auth,
			"Accept":           version,
			"x-extend-api-key": apiKey,
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
		proposals:  make(map[string]pendingProposal),
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body map[string]interface{}) (map[string]interface{}, error) {
	// Host may be a bare hostname or a full base URL (used by tests).
	base := c.host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	u, err := url.Parse(base + path)
	if err != nil {
		return nil, invalidInput("invalid host: %v", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, invalidInput("failed to encode request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, invalidInput("failed to build request: %v", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// A deadline on the context or the client's own 30s limit both
		// surface here; either way the call timed out.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, &Error{Kind: ErrTimeout, Message: err.Error()}
		}
		if ctx.Err() != nil {
			return nil, &Error{Kind: ErrTransientNetwork, Message: ctx.Err().Error()}
		}
		log.Error().Err(err).Str("path", path).Msg("Extend API request failed")
		return nil, &Error{Kind: ErrTransientNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode),
		}
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&errBody) == nil {
			if errBody.Message != "" {
				apiErr.Message = errBody.Message
			} else if errBody.Error != "" {
				apiErr.Message = errBody.Error
			}
		}
		log.Warn().
			Int("status", resp.StatusCode).
			Str("path", path).
			Str("kind", string(apiErr.Kind)).
			Msg("Extend API returned error")
		return nil, apiErr
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &Error{Kind: ErrTransientNetwork, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}
	return payload, nil
}

// GetVirtualCards lists virtual cards.
func (c *Client) GetVirtualCards(ctx context.Context, p GetVirtualCardsParams) (map[string]interface{}, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	if p.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(p.PerPage))
	}
	setIfPresent(q, "status", p.Status)
	setIfPresent(q, "recipient", p.Recipient)
	setIfPresent(q, "search", p.SearchTerm)
	setIfPresent(q, "sortField", p.SortField)
	setIfPresent(q, "sortDirection", p.SortDirection)
	return c.do(ctx, http.MethodGet, "/virtualcards", q, nil)
}

// GetVirtualCardDetail fetches one virtual card.
func (c *Client) GetVirtualCardDetail(ctx context.Context, virtualCardID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, "/virtualcards/"+virtualCardID, nil, nil)
}

// CreateVirtualCard creates a virtual card after validating the
// parameters locally.
func (c *Client) CreateVirtualCard(ctx context.Context, p CreateVirtualCardParams) (map[string]interface{}, error) {
	body, err := cardCreationBody(p)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/virtualcards", nil, body)
}

// UpdateVirtualCard updates display name, balance, expiry and notes.
func (c *Client) UpdateVirtualCard(ctx context.Context, p UpdateVirtualCardParams) (map[string]interface{}, error) {
	if p.BalanceCents <= 0 {
		return nil, invalidInput("balance must be greater than 0")
	}
	if p.DisplayName == "" {
		return nil, invalidInput("display name is required")
	}
	body := map[string]interface{}{
		"displayName":  p.DisplayName,
		"balanceCents": p.BalanceCents,
	}
	if p.ValidTo != "" {
		if _, err := time.Parse(dateLayout, p.ValidTo); err != nil {
			return nil, invalidInput("valid_to must be in YYYY-MM-DD format")
		}
		body["validTo"] = p.ValidTo + "T23:59:59.999Z"
	}
	if p.Notes != "" {
		body["notes"] = p.Notes
	}
	return c.do(ctx, http.MethodPut, "/virtualcards/"+p.VirtualCardID, nil, body)
}

// CancelVirtualCard cancels a virtual card. The card can be reactivated.
func (c *Client) CancelVirtualCard(ctx context.Context, virtualCardID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodPut, "/virtualcards/"+virtualCardID+"/cancel", nil, nil)
}

// CloseVirtualCard permanently closes a virtual card.
func (c *Client) CloseVirtualCard(ctx context.Context, virtualCardID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodPut, "/virtualcards/"+virtualCardID+"/close", nil, nil)
}

// GetCreditCards lists credit cards.
func (c *Client) GetCreditCards(ctx context.Context, p GetCreditCardsParams) (map[string]interface{}, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	if p.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(p.PerPage))
	}
	setIfPresent(q, "status", p.Status)
	setIfPresent(q, "search", p.SearchTerm)
	setIfPresent(q, "sortDirection", p.SortDirection)
	return c.do(ctx, http.MethodGet, "/creditcards", q, nil)
}

// GetCreditCardDetail fetches one credit card.
func (c *Client) GetCreditCardDetail(ctx context.Context, creditCardID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, "/creditcards/"+creditCardID, nil, nil)
}

// GetTransactions lists transactions.
func (c *Client) GetTransactions(ctx context.Context, p GetTransactionsParams) (map[string]interface{}, error) {
	if err := validateDateFilter("from_date", p.FromDate); err != nil {
		return nil, err
	}
	if err := validateDateFilter("to_date", p.ToDate); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	if p.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(p.PerPage))
	}
	setIfPresent(q, "since", p.FromDate)
	setIfPresent(q, "until", p.ToDate)
	setIfPresent(q, "status", p.Status)
	setIfPresent(q, "virtualCardId", p.VirtualCardID)
	setIfPresent(q, "search", p.SearchTerm)
	setIfPresent(q, "sortField", p.SortField)
	if p.MinAmountCents != nil {
		q.Set("minClearingBillingCents", strconv.Itoa(*p.MinAmountCents))
	}
	if p.MaxAmountCents != nil {
		q.Set("maxClearingBillingCents", strconv.Itoa(*p.MaxAmountCents))
	}
	return c.do(ctx, http.MethodGet, "/transactions", q, nil)
}

// GetTransactionDetail fetches one transaction.
func (c *Client) GetTransactionDetail(ctx context.Context, transactionID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, "/transactions/"+transactionID, nil, nil)
}

// UpdateTransactionExpenseData sets expense category details on a
// transaction.
func (c *Client) UpdateTransactionExpenseData(ctx context.Context, transactionID string, data map[string]interface{}) (map[string]interface{}, error) {
	if transactionID == "" {
		return nil, invalidInput("transaction id is required")
	}
	if len(data) == 0 {
		return nil, invalidInput("expense data is required")
	}
	return c.do(ctx, http.MethodPatch, "/transactions/"+transactionID+"/expensedata", nil, data)
}

// ProposeTransactionExpenseData stages an expense-data update and
// returns a confirmation token. The proposal lives in memory only and
// expires after ten minutes.
func (c *Client) ProposeTransactionExpenseData(ctx context.Context, transactionID string, data map[string]interface{}) (map[string]interface{}, error) {
	if transactionID == "" {
		return nil, invalidInput("transaction id is required")
	}
	if len(data) == 0 {
		return nil, invalidInput("expense data is required")
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(proposalTTL)

	c.proposalsMu.Lock()
	c.proposals[token] = pendingProposal{
		transactionID: transactionID,
		data:          data,
		expiresAt:     expiresAt,
	}
	c.proposalsMu.Unlock()

	log.Info().
		Str("transaction_id", transactionID).
		Time("expires_at", expiresAt).
		Msg("Expense data proposal staged")

	return map[string]interface{}{
		"status":             "pending_confirmation",
		"transactionId":      transactionID,
		"confirmationToken":  token,
		"expiresAt":          expiresAt.UTC().Format(time.RFC3339),
		"proposedExpenseData": data,
	}, nil
}

// ConfirmTransactionExpenseData applies a previously proposed
// expense-data update.
func (c *Client) ConfirmTransactionExpenseData(ctx context.Context, confirmationToken string) (map[string]interface{}, error) {
	c.proposalsMu.Lock()
	proposal, ok := c.proposals[confirmationToken]
	if ok {
		delete(c.proposals, confirmationToken)
	}
	c.proposalsMu.Unlock()

	if !ok {
		return nil, &Error{Kind: ErrNotFound, Message: "unknown confirmation token"}
	}
	if time.Now().After(proposal.expiresAt) {
		return nil, invalidInput("confirmation token has expired")
	}

	return c.UpdateTransactionExpenseData(ctx, proposal.transactionID, proposal.data)
}

// GetExpenseCategories lists expense categories.
func (c *Client) GetExpenseCategories(ctx context.Context, p GetExpenseCategoriesParams) (map[string]interface{}, error) {
	q := url.Values{}
	if p.Active != nil {
		q.Set("active", strconv.FormatBool(*p.Active))
	}
	if p.Required != nil {
		q.Set("required", strconv.FormatBool(*p.Required))
	}
	setIfPresent(q, "search", p.Search)
	setIfPresent(q, "sortField", p.SortField)
	setIfPresent(q, "sortDirection", p.SortDirection)
	return c.do(ctx, http.MethodGet, "/expensecategories", q, nil)
}

// GetExpenseCategory fetches one expense category.
func (c *Client) GetExpenseCategory(ctx context.Context, categoryID string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, "/expensecategories/"+categoryID, nil, nil)
}

// GetExpenseCategoryLabels lists labels within an expense category.
func (c *Client) GetExpenseCategoryLabels(ctx context.Context, p GetExpenseCategoryLabelsParams) (map[string]interface{}, error) {
	if p.CategoryID == "" {
		return nil, invalidInput("category id is required")
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	if p.PerPage > 0 {
		q.Set("perPage", strconv.Itoa(p.PerPage))
	}
	if p.Active != nil {
		q.Set("active", strconv.FormatBool(*p.Active))
	}
	setIfPresent(q, "search", p.Search)
	setIfPresent(q, "sortField", p.SortField)
	setIfPresent(q, "sortDirection", p.SortDirection)
	return c.do(ctx, http.MethodGet, "/expensecategories/"+p.CategoryID+"/labels", q, nil)
}

// CreateExpenseCategory creates an expense category.
func (c *Client) CreateExpenseCategory(ctx context.Context, p CreateExpenseCategoryParams) (map[string]interface{}, error) {
	if p.Name == "" || p.Code == "" {
		return nil, invalidInput("name and code are required")
	}
	body := map[string]interface{}{
		"name":     p.Name,
		"code":     p.Code,
		"required": p.Required,
	}
	if p.Active != nil {
		body["active"] = *p.Active
	}
	if p.FreeTextAllowed != nil {
		body["freeTextAllowed"] = *p.FreeTextAllowed
	}
	return c.do(ctx, http.MethodPost, "/expensecategories", nil, body)
}

// CreateExpenseCategoryLabel creates a label within a category.
func (c *Client) CreateExpenseCategoryLabel(ctx context.Context, p CreateExpenseCategoryLabelParams) (map[string]interface{}, error) {
	if p.CategoryID == "" {
		return nil, invalidInput("category id is required")
	}
	if p.Name == "" || p.Code == "" {
		return nil, invalidInput("name and code are required")
	}
	body := map[string]interface{}{
		"name":   p.Name,
		"code":   p.Code,
		"active": p.Active,
	}
	return c.do(ctx, http.MethodPost, "/expensecategories/"+p.CategoryID+"/labels", nil, body)
}

// UpdateExpenseCategory updates an expense category.
func (c *Client) UpdateExpenseCategory(ctx context.Context, p UpdateExpenseCategoryParams) (map[string]interface{}, error) {
	if p.CategoryID == "" {
		return nil, invalidInput("category id is required")
	}
	body := map[string]interface{}{}
	if p.Name != "" {
		body["name"] = p.Name
	}
	if p.Active != nil {
		body["active"] = *p.Active
	}
	if p.Required != nil {
		body["required"] = *p.Required
	}
	if p.FreeTextAllowed != nil {
		body["freeTextAllowed"] = *p.FreeTextAllowed
	}
	if len(body) == 0 {
		return nil, invalidInput("at least one field to update is required")
	}
	return c.do(ctx, http.MethodPatch, "/expensecategories/"+p.CategoryID, nil, body)
}

// UpdateExpenseCategoryLabel updates a label within a category.
func (c *Client) UpdateExpenseCategoryLabel(ctx context.Context, p UpdateExpenseCategoryLabelParams) (map[string]interface{}, error) {
	if p.CategoryID == "" || p.LabelID == "" {
		return nil, invalidInput("category id and label id are required")
	}
	body := map[string]interface{}{}
	if p.Name != "" {
		body["name"] = p.Name
	}
	if p.Active != nil {
		body["active"] = *p.Active
	}
	if len(body) == 0 {
		return nil, invalidInput("at least one field to update is required")
	}
	return c.do(ctx, http.MethodPatch, "/expensecategories/"+p.CategoryID+"/labels/"+p.LabelID, nil, body)
}

func setIfPresent(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
