package extend

import "context"

// API is the Extend account-management surface consumed by the tool
// catalog: one method per catalog operation. Each method returns the
// decoded response payload or a typed *Error.
type API interface {
	GetVirtualCards(ctx context.Context, p GetVirtualCardsParams) (map[string]interface{}, error)
	GetVirtualCardDetail(ctx context.Context, virtualCardID string) (map[string]interface{}, error)
	CreateVirtualCard(ctx context.Context, p CreateVirtualCardParams) (map[string]interface{}, error)
	UpdateVirtualCard(ctx context.Context, p UpdateVirtualCardParams) (map[string]interface{}, error)
	CancelVirtualCard(ctx context.Context, virtualCardID string) (map[string]interface{}, error)
	CloseVirtualCard(ctx context.Context, virtualCardID string) (map[string]interface{}, error)

	GetCreditCards(ctx context.Context, p GetCreditCardsParams) (map[string]interface{}, error)
	GetCreditCardDetail(ctx context.Context, creditCardID string) (map[string]interface{}, error)

	GetTransactions(ctx context.Context, p GetTransactionsParams) (map[string]interface{}, error)
	GetTransactionDetail(ctx context.Context, transactionID string) (map[string]interface{}, error)
	UpdateTransactionExpenseData(ctx context.Context, transactionID string, data map[string]interface{}) (map[string]interface{}, error)
	ProposeTransactionExpenseData(ctx context.Context, transactionID string, data map[string]interface{}) (map[string]interface{}, error)
	ConfirmTransactionExpenseData(ctx context.Context, confirmationToken string) (map[string]interface{}, error)

	GetExpenseCategories(ctx context.Context, p GetExpenseCategoriesParams) (map[string]interface{}, error)
	GetExpenseCategory(ctx context.Context, categoryID string) (map[string]interface{}, error)
	GetExpenseCategoryLabels(ctx context.Context, p GetExpenseCategoryLabelsParams) (map[string]interface{}, error)
	CreateExpenseCategory(ctx context.Context, p CreateExpenseCategoryParams) (map[string]interface{}, error)
	CreateExpenseCategoryLabel(ctx context.Context, p CreateExpenseCategoryLabelParams) (map[string]interface{}, error)
	UpdateExpenseCategory(ctx context.Context, p UpdateExpenseCategoryParams) (map[string]interface{}, error)
	UpdateExpenseCategoryLabel(ctx context.Context, p UpdateExpenseCategoryLabelParams) (map[string]interface{}, error)
}
