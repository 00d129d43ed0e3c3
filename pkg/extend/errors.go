package extend

import "fmt"

// ErrorKind classifies an Extend API failure.
type ErrorKind string

const (
	ErrNotFound         ErrorKind = "not_found"
	ErrUnauthorized     ErrorKind = "unauthorized"
	ErrRateLimited      ErrorKind = "rate_limited"
	ErrTransientNetwork ErrorKind = "transient_network"
	ErrInvalidInput     ErrorKind = "invalid_input"
	ErrTimeout          ErrorKind = "timeout"
)

// Error is the typed failure returned by every API method. Callers never
// see the underlying *http.Response or transport error.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Status  int       `json:"status,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("extend: %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("extend: %s: %s", e.Kind, e.Message)
}

// IsRetryable reports whether the failure is eligible for a bounded retry.
func (e *Error) IsRetryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrTransientNetwork
}

func invalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// kindForStatus maps an HTTP status code to an ErrorKind.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == 400 || status == 422:
		return ErrInvalidInput
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 404:
		return ErrNotFound
	case status == 429:
		return ErrRateLimited
	default:
		return ErrTransientNetwork
	}
}
