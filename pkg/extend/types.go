package extend

// GetVirtualCardsParams filters the virtual card listing.
type GetVirtualCardsParams struct {
	Page          int
	PerPage       int
	Status        string
	Recipient     string
	SearchTerm    string
	SortField     string
	SortDirection string
}

// CreateVirtualCardParams describes a new virtual card, optionally recurring.
type CreateVirtualCardParams struct {
	CreditCardID    string
	DisplayName     string
	BalanceCents    int
	RecipientEmail  string
	CardholderEmail string
	ValidFrom       string // YYYY-MM-DD
	ValidTo         string // YYYY-MM-DD
	Notes           string
	IsRecurring     bool
	Recurrence      *RecurrenceParams
}

// RecurrenceParams describes the recurrence rule for a recurring card.
type RecurrenceParams struct {
	Period     string // DAILY, WEEKLY, MONTHLY, YEARLY
	Interval   int
	Terminator string // NONE, COUNT, DATE, COUNT_OR_DATE
	Count      int
	Until      string // YYYY-MM-DD
	ByWeekDay  *int   // 0-6, Monday to Sunday
	ByMonthDay *int   // 1-31
	ByYearDay  *int   // 1-365
}

// UpdateVirtualCardParams updates an existing virtual card.
type UpdateVirtualCardParams struct {
	VirtualCardID string
	DisplayName   string
	BalanceCents  int
	ValidTo       string
	Notes         string
}

// GetCreditCardsParams filters the credit card listing.
type GetCreditCardsParams struct {
	Page          int
	PerPage       int
	Status        string
	SearchTerm    string
	SortDirection string
}

// GetTransactionsParams filters the transaction listing.
type GetTransactionsParams struct {
	Page           int
	PerPage        int
	FromDate       string
	ToDate         string
	Status         string
	VirtualCardID  string
	MinAmountCents *int
	MaxAmountCents *int
	SearchTerm     string
	SortField      string
}

// GetExpenseCategoriesParams filters the expense category listing.
type GetExpenseCategoriesParams struct {
	Active        *bool
	Required      *bool
	Search        string
	SortField     string
	SortDirection string
}

// GetExpenseCategoryLabelsParams filters labels within a category.
type GetExpenseCategoryLabelsParams struct {
	CategoryID    string
	Page          int
	PerPage       int
	Active        *bool
	Search        string
	SortField     string
	SortDirection string
}

// CreateExpenseCategoryParams describes a new expense category.
type CreateExpenseCategoryParams struct {
	Name            string
	Code            string
	Required        bool
	Active          *bool
	FreeTextAllowed *bool
}

// CreateExpenseCategoryLabelParams describes a new label within a category.
type CreateExpenseCategoryLabelParams struct {
	CategoryID string
	Name       string
	Code       string
	Active     bool
}

// UpdateExpenseCategoryParams updates an existing expense category.
type UpdateExpenseCategoryParams struct {
	CategoryID      string
	Name            string
	Active          *bool
	Required        *bool
	FreeTextAllowed *bool
}

// UpdateExpenseCategoryLabelParams updates an existing label.
type UpdateExpenseCategoryLabelParams struct {
	CategoryID string
	LabelID    string
	Name       string
	Active     *bool
}
