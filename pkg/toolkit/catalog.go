package toolkit

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/extend"
	"github.com/paywithextend/extend-ai-toolkit-go/pkg/permissions"
)

// maxHandlerAttempts bounds the retry loop for rate-limited and
// transient upstream failures. Retries happen at the handler boundary
// only; Invoke never retries.
const maxHandlerAttempts = 3

// Catalog returns the full tool catalog bound to the given Extend API
// client. The order is deterministic and identical across calls within
// a process lifetime.
func Catalog(api extend.API) []Tool {
	return []Tool{
		{
			Name:        "get_virtual_cards",
			Description: "List virtual cards with optional status, recipient and search filters.",
			Parameters: []Parameter{
				{Name: "page", Type: "integer", Description: "Pagination page number, default is 0.", Default: 0},
				{Name: "per_page", Type: "integer", Description: "Number of items per page, default is 10.", Default: 10},
				{Name: "status", Type: "string", Description: "Filter by status: ACTIVE, CANCELLED, PENDING, EXPIRED, CLOSED or CONSUMED."},
				{Name: "recipient", Type: "string", Description: "Filter virtual cards by recipient identifier."},
				{Name: "search_term", Type: "string", Description: "Search term to filter virtual cards."},
				{Name: "sort_field", Type: "string", Description: "Field to sort by: createdAt, updatedAt, balanceCents, displayName, type or status."},
				{Name: "sort_direction", Type: "string", Description: "Sort direction, ASC or DESC."},
			},
			Product: permissions.ProductVirtualCards,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetVirtualCards(ctx, extend.GetVirtualCardsParams{
					Page:          intArg(args, "page", 0),
					PerPage:       intArg(args, "per_page", 10),
					Status:        strArg(args, "status"),
					Recipient:     strArg(args, "recipient"),
					SearchTerm:    strArg(args, "search_term"),
					SortField:     strArg(args, "sort_field"),
					SortDirection: strArg(args, "sort_direction"),
				})
			}),
		},
		{
			Name:        "get_virtual_card_detail",
			Description: "Get the full details of one virtual card.",
			Parameters: []Parameter{
				{Name: "virtual_card_id", Type: "string", Description: "The ID of the virtual card.", Required: true},
			},
			Product: permissions.ProductVirtualCards,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetVirtualCardDetail(ctx, strArg(args, "virtual_card_id"))
			}),
		},
		{
			Name:        "create_virtual_card",
			Description: "Create a virtual card funded by a credit card, optionally recurring.",
			Parameters: []Parameter{
				{Name: "credit_card_id", Type: "string", Description: "ID of the credit card to use.", Required: true},
				{Name: "display_name", Type: "string", Description: "Display name for the virtual card.", Required: true},
				{Name: "amount_dollars", Type: "number", Description: "Amount to load on the card in dollars.", Required: true},
				{Name: "recipient_email", Type: "string", Description: "Optional email address of the recipient."},
				{Name: "cardholder_email", Type: "string", Description: "Optional email address of the cardholder."},
				{Name: "valid_from", Type: "string", Description: "Optional start date (YYYY-MM-DD)."},
				{Name: "valid_to", Type: "string", Description: "Optional end date (YYYY-MM-DD)."},
				{Name: "notes", Type: "string", Description: "Optional notes for the card."},
				{Name: "is_recurring", Type: "boolean", Description: "Set to true to create a recurring card.", Default: false},
				{Name: "period", Type: "string", Description: "Recurrence period: DAILY, WEEKLY, MONTHLY or YEARLY."},
				{Name: "interval", Type: "integer", Description: "Number of periods between recurrences."},
				{Name: "terminator", Type: "string", Description: "Recurrence terminator: NONE, COUNT, DATE or COUNT_OR_DATE."},
				{Name: "count", Type: "integer", Description: "Number of times to recur for a COUNT terminator."},
				{Name: "until", Type: "string", Description: "End date for recurrence (for DATE terminator)."},
				{Name: "by_week_day", Type: "integer", Description: "Day of week for WEEKLY recurrence (0-6, Monday to Sunday)."},
				{Name: "by_month_day", Type: "integer", Description: "Day of month for MONTHLY recurrence (1-31)."},
				{Name: "by_year_day", Type: "integer", Description: "Day of year for YEARLY recurrence (1-365)."},
			},
			Product: permissions.ProductVirtualCards,
			Action:  permissions.ActionCreate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				params := extend.CreateVirtualCardParams{
					CreditCardID:    strArg(args, "credit_card_id"),
					DisplayName:     strArg(args, "display_name"),
					BalanceCents:    int(floatArg(args, "amount_dollars") * 100),
					RecipientEmail:  strArg(args, "recipient_email"),
					CardholderEmail: strArg(args, "cardholder_email"),
					ValidFrom:       strArg(args, "valid_from"),
					ValidTo:         strArg(args, "valid_to"),
					Notes:           strArg(args, "notes"),
					IsRecurring:     boolArg(args, "is_recurring", false),
				}
				if params.IsRecurring {
					params.Recurrence = &extend.RecurrenceParams{
						Period:     strArg(args, "period"),
						Interval:   intArg(args, "interval", 0),
						Terminator: strArg(args, "terminator"),
						Count:      intArg(args, "count", 0),
						Until:      strArg(args, "until"),
						ByWeekDay:  intPtrArg(args, "by_week_day"),
						ByMonthDay: intPtrArg(args, "by_month_day"),
						ByYearDay:  intPtrArg(args, "by_year_day"),
					}
				}
				return api.CreateVirtualCard(ctx, params)
			}),
		},
		{
			Name:        "update_virtual_card",
			Description: "Update the display name, balance, expiry or notes of a virtual card.",
			Parameters: []Parameter{
				{Name: "virtual_card_id", Type: "string", Description: "The ID of the virtual card to update.", Required: true},
				{Name: "display_name", Type: "string", Description: "New display name for the virtual card.", Required: true},
				{Name: "balance_dollars", Type: "number", Description: "New balance for the card in dollars.", Required: true},
				{Name: "valid_to", Type: "string", Description: "New end date (YYYY-MM-DD)."},
				{Name: "notes", Type: "string", Description: "New notes for the virtual card."},
			},
			Product: permissions.ProductVirtualCards,
			Action:  permissions.ActionUpdate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.UpdateVirtualCard(ctx, extend.UpdateVirtualCardParams{
					VirtualCardID: strArg(args, "virtual_card_id"),
					DisplayName:   strArg(args, "display_name"),
					BalanceCents:  int(floatArg(args, "balance_dollars") * 100),
					ValidTo:       strArg(args, "valid_to"),
					Notes:         strArg(args, "notes"),
				})
			}),
		},
		{
			Name:        "cancel_virtual_card",
			Description: "Cancel a virtual card. A cancelled card can be reactivated later.",
			Parameters: []Parameter{
				{Name: "virtual_card_id", Type: "string", Description: "The ID of the virtual card to cancel.", Required: true},
			},
			Product: permissions.ProductVirtualCards,
			Action:  permissions.ActionUpdate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.CancelVirtualCard(ctx, strArg(args, "virtual_card_id"))
			}),
		},
		{
			Name:        "close_virtual_card",
			Description: "Permanently close a virtual card. This cannot be undone.",
			Parameters: []Parameter{
				{Name: "virtual_card_id", Type: "string", Description: "The ID of the virtual card to close.", Required: true},
			},
			Product: permissions.ProductVirtualCards,
			Action:  permissions.ActionUpdate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.CloseVirtualCard(ctx, strArg(args, "virtual_card_id"))
			}),
		},
		{
			Name:        "get_credit_cards",
			Description: "List credit cards with optional status and search filters.",
			Parameters: []Parameter{
				{Name: "page", Type: "integer", Description: "Pagination page number, default is 0.", Default: 0},
				{Name: "per_page", Type: "integer", Description: "Number of credit cards per page, default is 10.", Default: 10},
				{Name: "status", Type: "string", Description: "Filter credit cards by status."},
				{Name: "search_term", Type: "string", Description: "Search term to filter credit cards."},
				{Name: "sort_direction", Type: "string", Description: "Sort direction, ASC or DESC."},
			},
			Product: permissions.ProductCreditCards,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetCreditCards(ctx, extend.GetCreditCardsParams{
					Page:          intArg(args, "page", 0),
					PerPage:       intArg(args, "per_page", 10),
					Status:        strArg(args, "status"),
					SearchTerm:    strArg(args, "search_term"),
					SortDirection: strArg(args, "sort_direction"),
				})
			}),
		},
		{
			Name:        "get_credit_card_detail",
			Description: "Get the full details of one credit card.",
			Parameters: []Parameter{
				{Name: "credit_card_id", Type: "string", Description: "The ID of the credit card to retrieve details for.", Required: true},
			},
			Product: permissions.ProductCreditCards,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetCreditCardDetail(ctx, strArg(args, "credit_card_id"))
			}),
		},
		{
			Name:        "get_transactions",
			Description: "List transactions with optional date, amount, card and status filters.",
			Parameters: []Parameter{
				{Name: "page", Type: "integer", Description: "Pagination page number, default is 0.", Default: 0},
				{Name: "per_page", Type: "integer", Description: "Number of transactions per page, default is 50.", Default: 50},
				{Name: "from_date", Type: "string", Description: "Start date to filter transactions (YYYY-MM-DD)."},
				{Name: "to_date", Type: "string", Description: "End date to filter transactions (YYYY-MM-DD)."},
				{Name: "status", Type: "string", Description: "Filter transactions by status, e.g. PENDING, CLEARED or DECLINED."},
				{Name: "virtual_card_id", Type: "string", Description: "Filter transactions by a specific virtual card ID."},
				{Name: "min_amount_cents", Type: "integer", Description: "Minimum transaction amount in cents."},
				{Name: "max_amount_cents", Type: "integer", Description: "Maximum transaction amount in cents."},
				{Name: "search_term", Type: "string", Description: "Filter transactions by search term."},
				{Name: "sort_field", Type: "string", Description: "Field to sort transactions by."},
			},
			Product: permissions.ProductTransactions,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetTransactions(ctx, extend.GetTransactionsParams{
					Page:           intArg(args, "page", 0),
					PerPage:        intArg(args, "per_page", 50),
					FromDate:       strArg(args, "from_date"),
					ToDate:         strArg(args, "to_date"),
					Status:         strArg(args, "status"),
					VirtualCardID:  strArg(args, "virtual_card_id"),
					MinAmountCents: intPtrArg(args, "min_amount_cents"),
					MaxAmountCents: intPtrArg(args, "max_amount_cents"),
					SearchTerm:     strArg(args, "search_term"),
					SortField:      strArg(args, "sort_field"),
				})
			}),
		},
		{
			Name:        "get_transaction_detail",
			Description: "Get the full details of one transaction.",
			Parameters: []Parameter{
				{Name: "transaction_id", Type: "string", Description: "The ID of the transaction to retrieve details for.", Required: true},
			},
			Product: permissions.ProductTransactions,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetTransactionDetail(ctx, strArg(args, "transaction_id"))
			}),
		},
		{
			Name:        "update_transaction_expense_data",
			Description: "Set expense category details on a transaction. The user must have confirmed the specific values first.",
			Parameters: []Parameter{
				{Name: "transaction_id", Type: "string", Description: "The unique identifier of the transaction.", Required: true},
				{Name: "user_confirmed_data_values", Type: "boolean", Description: "Whether the user has confirmed the specific values in the data argument.", Required: true},
				{Name: "data", Type: "object", Description: "Expense details to update. Expected format: {\"expenseDetails\": [{\"categoryId\": ..., \"labelId\": ...}]}.", Required: true},
			},
			Product: permissions.ProductTransactions,
			Action:  permissions.ActionUpdate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				if !boolArg(args, "user_confirmed_data_values", false) {
					return nil, NewError(CodeInvalidArgument, "the user must confirm the expense data values before this update")
				}
				return api.UpdateTransactionExpenseData(ctx, strArg(args, "transaction_id"), mapArg(args, "data"))
			}),
		},
		{
			Name:        "propose_transaction_expense_data",
			Description: "Stage an expense data update for a transaction and return a confirmation token to share with the user.",
			Parameters: []Parameter{
				{Name: "transaction_id", Type: "string", Description: "The unique identifier of the transaction.", Required: true},
				{Name: "data", Type: "object", Description: "Expense details to propose. Expected format: {\"expenseDetails\": [{\"categoryId\": ..., \"labelId\": ...}]}.", Required: true},
			},
			Product: permissions.ProductTransactions,
			Action:  permissions.ActionUpdate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.ProposeTransactionExpenseData(ctx, strArg(args, "transaction_id"), mapArg(args, "data"))
			}),
		},
		{
			Name:        "confirm_transaction_expense_data",
			Description: "Apply a previously proposed expense data update using its confirmation token.",
			Parameters: []Parameter{
				{Name: "confirmation_token", Type: "string", Description: "The unique token from the proposal step that was shared with the user.", Required: true},
			},
			Product: permissions.ProductTransactions,
			Action:  permissions.ActionUpdate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.ConfirmTransactionExpenseData(ctx, strArg(args, "confirmation_token"))
			}),
		},
		{
			Name:        "get_expense_categories",
			Description: "List expense categories with optional active, required and search filters.",
			Parameters: []Parameter{
				{Name: "active", Type: "boolean", Description: "Filter categories by active status."},
				{Name: "required", Type: "boolean", Description: "Filter categories by required status."},
				{Name: "search", Type: "string", Description: "Search term to filter categories."},
				{Name: "sort_field", Type: "string", Description: "Field to sort the categories by."},
				{Name: "sort_direction", Type: "string", Description: "Direction to sort the categories (ASC or DESC)."},
			},
			Product: permissions.ProductExpenseCategories,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetExpenseCategories(ctx, extend.GetExpenseCategoriesParams{
					Active:        boolPtrArg(args, "active"),
					Required:      boolPtrArg(args, "required"),
					Search:        strArg(args, "search"),
					SortField:     strArg(args, "sort_field"),
					SortDirection: strArg(args, "sort_direction"),
				})
			}),
		},
		{
			Name:        "get_expense_category",
			Description: "Get the details of one expense category.",
			Parameters: []Parameter{
				{Name: "category_id", Type: "string", Description: "The ID of the expense category.", Required: true},
			},
			Product: permissions.ProductExpenseCategories,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetExpenseCategory(ctx, strArg(args, "category_id"))
			}),
		},
		{
			Name:        "get_expense_category_labels",
			Description: "List the labels within an expense category.",
			Parameters: []Parameter{
				{Name: "category_id", Type: "string", Description: "The ID of the expense category.", Required: true},
				{Name: "page", Type: "integer", Description: "Pagination page number, default is 0.", Default: 0},
				{Name: "per_page", Type: "integer", Description: "Number of labels per page, default is 10.", Default: 10},
				{Name: "active", Type: "boolean", Description: "Filter labels by active status."},
				{Name: "search", Type: "string", Description: "Search term to filter labels."},
				{Name: "sort_field", Type: "string", Description: "Field to sort labels by."},
				{Name: "sort_direction", Type: "string", Description: "Direction to sort the labels (ASC or DESC)."},
			},
			Product: permissions.ProductExpenseCategories,
			Action:  permissions.ActionRead,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.GetExpenseCategoryLabels(ctx, extend.GetExpenseCategoryLabelsParams{
					CategoryID:    strArg(args, "category_id"),
					Page:          intArg(args, "page", 0),
					PerPage:       intArg(args, "per_page", 10),
					Active:        boolPtrArg(args, "active"),
					Search:        strArg(args, "search"),
					SortField:     strArg(args, "sort_field"),
					SortDirection: strArg(args, "sort_direction"),
				})
			}),
		},
		{
			Name:        "create_expense_category",
			Description: "Create an expense category.",
			Parameters: []Parameter{
				{Name: "name", Type: "string", Description: "The name of the expense category.", Required: true},
				{Name: "code", Type: "string", Description: "A unique code for the expense category.", Required: true},
				{Name: "required", Type: "boolean", Description: "Indicates whether the expense category is required.", Required: true},
				{Name: "active", Type: "boolean", Description: "The active status of the category."},
				{Name: "free_text_allowed", Type: "boolean", Description: "Indicates if free text is allowed."},
			},
			Product: permissions.ProductExpenseCategories,
			Action:  permissions.ActionCreate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.CreateExpenseCategory(ctx, extend.CreateExpenseCategoryParams{
					Name:            strArg(args, "name"),
					Code:            strArg(args, "code"),
					Required:        boolArg(args, "required", false),
					Active:          boolPtrArg(args, "active"),
					FreeTextAllowed: boolPtrArg(args, "free_text_allowed"),
				})
			}),
		},
		{
			Name:        "create_expense_category_label",
			Description: "Create a label within an expense category.",
			Parameters: []Parameter{
				{Name: "category_id", Type: "string", Description: "The ID of the expense category.", Required: true},
				{Name: "name", Type: "string", Description: "The name of the expense category label.", Required: true},
				{Name: "code", Type: "string", Description: "A unique code for the expense category label.", Required: true},
				{Name: "active", Type: "boolean", Description: "The active status of the label, defaults to true.", Default: true},
			},
			Product: permissions.ProductExpenseCategories,
			Action:  permissions.ActionCreate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.CreateExpenseCategoryLabel(ctx, extend.CreateExpenseCategoryLabelParams{
					CategoryID: strArg(args, "category_id"),
					Name:       strArg(args, "name"),
					Code:       strArg(args, "code"),
					Active:     boolArg(args, "active", true),
				})
			}),
		},
		{
			Name:        "update_expense_category",
			Description: "Update the name, active, required or free text settings of an expense category.",
			Parameters: []Parameter{
				{Name: "category_id", Type: "string", Description: "The ID of the expense category to update.", Required: true},
				{Name: "name", Type: "string", Description: "The new name for the expense category."},
				{Name: "active", Type: "boolean", Description: "The updated active status."},
				{Name: "required", Type: "boolean", Description: "The updated required status."},
				{Name: "free_text_allowed", Type: "boolean", Description: "Indicates if free text is allowed."},
			},
			Product: permissions.ProductExpenseCategories,
			Action:  permissions.ActionUpdate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.UpdateExpenseCategory(ctx, extend.UpdateExpenseCategoryParams{
					CategoryID:      strArg(args, "category_id"),
					Name:            strArg(args, "name"),
					Active:          boolPtrArg(args, "active"),
					Required:        boolPtrArg(args, "required"),
					FreeTextAllowed: boolPtrArg(args, "free_text_allowed"),
				})
			}),
		},
		{
			Name:        "update_expense_category_label",
			Description: "Update the name or active status of an expense category label.",
			Parameters: []Parameter{
				{Name: "category_id", Type: "string", Description: "The ID of the expense category.", Required: true},
				{Name: "label_id", Type: "string", Description: "The ID of the expense category label to update.", Required: true},
				{Name: "name", Type: "string", Description: "The new name for the label."},
				{Name: "active", Type: "boolean", Description: "The updated active status of the label."},
			},
			Product: permissions.ProductExpenseCategories,
			Action:  permissions.ActionUpdate,
			Handler: withRetry(func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				return api.UpdateExpenseCategoryLabel(ctx, extend.UpdateExpenseCategoryLabelParams{
					CategoryID: strArg(args, "category_id"),
					LabelID:    strArg(args, "label_id"),
					Name:       strArg(args, "name"),
					Active:     boolPtrArg(args, "active"),
				})
			}),
		},
	}
}

// withRetry retries rate-limited and transient-network failures with
// exponential backoff. All other failures return immediately.
func withRetry(h Handler) Handler {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		var lastErr error
		for attempt := 0; attempt < maxHandlerAttempts; attempt++ {
			result, err := h(ctx, args)
			if err == nil {
				return result, nil
			}
			lastErr = err

			var apiErr *extend.Error
			if !errors.As(err, &apiErr) || !apiErr.IsRetryable() {
				return nil, err
			}
			if attempt == maxHandlerAttempts-1 {
				break
			}

			// Exponential backoff: 1s, 2s
			delay := time.Duration(1<<attempt) * time.Second
			log.Info().
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Retrying Extend API call after transient failure")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		return nil, lastErr
	}
}

func strArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]interface{}, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func floatArg(args map[string]interface{}, key string) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func boolArg(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func intPtrArg(args map[string]interface{}, key string) *int {
	switch v := args[key].(type) {
	case float64:
		i := int(v)
		return &i
	case int:
		i := v
		return &i
	default:
		return nil
	}
}

func boolPtrArg(args map[string]interface{}, key string) *bool {
	if v, ok := args[key].(bool); ok {
		return &v
	}
	return nil
}

func mapArg(args map[string]interface{}, key string) map[string]interface{} {
	if v, ok := args[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
