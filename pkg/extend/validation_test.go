package extend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCardCreationBody(t *testing.T) {
	body, err := cardCreationBody(CreateVirtualCardParams{
		CreditCardID: "cc_1",
		DisplayName:  "Travel",
		BalanceCents: 5000,
		ValidFrom:    "2025-06-01",
		ValidTo:      "2025-06-30",
		Notes:        "Q2 travel budget",
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-06-01T00:00:00.000Z", body["validFrom"])
	assert.Equal(t, "2025-06-30T23:59:59.999Z", body["validTo"])
	assert.Equal(t, "Q2 travel budget", body["notes"])
	assert.NotContains(t, body, "recurs")
}

func TestCardCreationBody_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		params CreateVirtualCardParams
	}{
		{
			name:   "zero balance",
			params: CreateVirtualCardParams{CreditCardID: "cc_1", DisplayName: "X"},
		},
		{
			name:   "missing display name",
			params: CreateVirtualCardParams{CreditCardID: "cc_1", BalanceCents: 100},
		},
		{
			name: "bad valid_from",
			params: CreateVirtualCardParams{
				CreditCardID: "cc_1", DisplayName: "X", BalanceCents: 100, ValidFrom: "June 1st",
			},
		},
		{
			name: "recurring without recurrence",
			params: CreateVirtualCardParams{
				CreditCardID: "cc_1", DisplayName: "X", BalanceCents: 100, IsRecurring: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cardCreationBody(tt.params)
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, ErrInvalidInput, apiErr.Kind)
		})
	}
}

func TestRecurrenceBody(t *testing.T) {
	body, err := recurrenceBody(5000, RecurrenceParams{
		Period:     "WEEKLY",
		Interval:   1,
		Terminator: "COUNT",
		Count:      12,
		ByWeekDay:  intPtr(2),
	})
	require.NoError(t, err)

	assert.Equal(t, 5000, body["balanceCents"])
	assert.Equal(t, 12, body["count"])
	assert.Equal(t, 2, body["byWeekDay"])
	assert.NotContains(t, body, "until")
}

func TestRecurrenceBody_DateTerminator(t *testing.T) {
	body, err := recurrenceBody(5000, RecurrenceParams{
		Period:     "MONTHLY",
		Interval:   2,
		Terminator: "DATE",
		Until:      "2026-01-31",
		ByMonthDay: intPtr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-01-31T23:59:59.999Z", body["until"])
}

func TestRecurrenceBody_Invalid(t *testing.T) {
	tests := []struct {
		name string
		r    RecurrenceParams
	}{
		{
			name: "bad period",
			r:    RecurrenceParams{Period: "HOURLY", Interval: 1, Terminator: "NONE"},
		},
		{
			name: "bad terminator",
			r:    RecurrenceParams{Period: "DAILY", Interval: 1, Terminator: "FOREVER"},
		},
		{
			name: "zero interval",
			r:    RecurrenceParams{Period: "DAILY", Terminator: "NONE"},
		},
		{
			name: "count terminator without count",
			r:    RecurrenceParams{Period: "DAILY", Interval: 1, Terminator: "COUNT"},
		},
		{
			name: "date terminator without until",
			r:    RecurrenceParams{Period: "DAILY", Interval: 1, Terminator: "DATE"},
		},
		{
			name: "weekly without weekday",
			r:    RecurrenceParams{Period: "WEEKLY", Interval: 1, Terminator: "NONE"},
		},
		{
			name: "weekday out of range",
			r:    RecurrenceParams{Period: "WEEKLY", Interval: 1, Terminator: "NONE", ByWeekDay: intPtr(7)},
		},
		{
			name: "monthly day out of range",
			r:    RecurrenceParams{Period: "MONTHLY", Interval: 1, Terminator: "NONE", ByMonthDay: intPtr(32)},
		},
		{
			name: "yearly day out of range",
			r:    RecurrenceParams{Period: "YEARLY", Interval: 1, Terminator: "NONE", ByYearDay: intPtr(366)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := recurrenceBody(1000, tt.r)
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, ErrInvalidInput, apiErr.Kind)
		})
	}
}

func TestValidateDateFilter(t *testing.T) {
	assert.NoError(t, validateDateFilter("from_date", ""))
	assert.NoError(t, validateDateFilter("from_date", "2025-08-23"))
	assert.Error(t, validateDateFilter("from_date", "08/23/2025"))
	assert.Error(t, validateDateFilter("to_date", "2025-13-01"))
}
