package extend

import (
	"time"
)

const dateLayout = "2006-01-02"

var validPeriods = map[string]bool{
	"DAILY": true, "WEEKLY": true, "MONTHLY": true, "YEARLY": true,
}

var validTerminators = map[string]bool{
	"NONE": true, "COUNT": true, "DATE": true, "COUNT_OR_DATE": true,
}

// cardCreationBody validates the card parameters and builds the request
// body. Runs before any network call.
func cardCreationBody(p CreateVirtualCardParams) (map[string]interface{}, error) {
	if p.BalanceCents <= 0 {
		return nil, invalidInput("balance must be greater than 0")
	}
	if p.DisplayName == "" {
		return nil, invalidInput("display name is required")
	}

	body := map[string]interface{}{
		"creditCardId": p.CreditCardID,
		"displayName":  p.DisplayName,
		"balanceCents": p.BalanceCents,
	}

	if p.RecipientEmail != "" {
		body["recipient"] = p.RecipientEmail
	}
	if p.CardholderEmail != "" {
		body["cardholder"] = p.CardholderEmail
	}
	if p.ValidFrom != "" {
		if _, err := time.Parse(dateLayout, p.ValidFrom); err != nil {
			return nil, invalidInput("valid_from must be in YYYY-MM-DD format")
		}
		body["validFrom"] = p.ValidFrom + "T00:00:00.000Z"
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

	if p.IsRecurring {
		if p.Recurrence == nil {
			return nil, invalidInput("period, interval, and terminator are required for recurring cards")
		}
		recurrence, err := recurrenceBody(p.BalanceCents, *p.Recurrence)
		if err != nil {
			return nil, err
		}
		body["recurs"] = true
		body["recurrence"] = recurrence
	}

	return body, nil
}

// recurrenceBody validates the recurrence rule and builds its request body.
func recurrenceBody(balanceCents int, r RecurrenceParams) (map[string]interface{}, error) {
	if !validPeriods[r.Period] {
		return nil, invalidInput("period must be one of: DAILY, WEEKLY, MONTHLY, YEARLY")
	}
	if !validTerminators[r.Terminator] {
		return nil, invalidInput("terminator must be one of: NONE, COUNT, DATE, COUNT_OR_DATE")
	}
	if r.Interval <= 0 {
		return nil, invalidInput("interval must be greater than 0")
	}

	body := map[string]interface{}{
		"balanceCents": balanceCents,
		"period":       r.Period,
		"interval":     r.Interval,
		"terminator":   r.Terminator,
	}

	if r.Terminator == "COUNT" || r.Terminator == "COUNT_OR_DATE" {
		if r.Count <= 0 {
			return nil, invalidInput("count must be provided and greater than 0")
		}
		body["count"] = r.Count
	}

	if r.Terminator == "DATE" || r.Terminator == "COUNT_OR_DATE" {
		if r.Until == "" {
			return nil, invalidInput("until date must be provided")
		}
		if _, err := time.Parse(dateLayout, r.Until); err != nil {
			return nil, invalidInput("until date must be in YYYY-MM-DD format")
		}
		body["until"] = r.Until + "T23:59:59.999Z"
	}

	switch r.Period {
	case "WEEKLY":
		if r.ByWeekDay == nil || *r.ByWeekDay < 0 || *r.ByWeekDay > 6 {
			return nil, invalidInput("by_week_day must be between 0 and 6 (Monday to Sunday)")
		}
		body["byWeekDay"] = *r.ByWeekDay
	case "MONTHLY":
		if r.ByMonthDay == nil || *r.ByMonthDay < 1 || *r.ByMonthDay > 31 {
			return nil, invalidInput("by_month_day must be between 1 and 31")
		}
		body["byMonthDay"] = *r.ByMonthDay
	case "YEARLY":
		if r.ByYearDay == nil || *r.ByYearDay < 1 || *r.ByYearDay > 365 {
			return nil, invalidInput("by_year_day must be between 1 and 365")
		}
		body["byYearDay"] = *r.ByYearDay
	}

	return body, nil
}

func validateDateFilter(name, value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return invalidInput("%s must be in YYYY-MM-DD format", name)
	}
	return nil
}
