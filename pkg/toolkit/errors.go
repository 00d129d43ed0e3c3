package toolkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/paywithextend/extend-ai-toolkit-go/pkg/extend"
)

// Code is the stable error code carried by every failure that crosses
// the Toolkit boundary.
type Code string

const (
	CodeInvalidArgument   Code = "invalid_argument"
	CodeNotAuthorized     Code = "not_authorized"
	CodeNotFound          Code = "not_found"
	CodeRateLimited       Code = "rate_limited"
	CodeTransientNetwork  Code = "transient_network"
	CodeTimeout           Code = "timeout"
	CodeTurnLimitExceeded Code = "turn_limit_exceeded"
)

// Error is the typed tool failure. Adapters translate it into their
// framework's error shape but must preserve Code and Message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a tool error.
func NewError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError extracts a *Error from err, if it carries one.
func AsError(err error) (*Error, bool) {
	var toolErr *Error
	if errors.As(err, &toolErr) {
		return toolErr, true
	}
	return nil, false
}

// translateError converts any handler failure into a *Error. Extend API
// failures map kind-for-kind; context expiry maps to timeout; anything
// else is reported as transient.
func translateError(ctx context.Context, err error) *Error {
	if err == nil {
		return nil
	}
	if toolErr, ok := AsError(err); ok {
		return toolErr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewError(CodeTimeout, "operation timed out: %v", err)
	}

	var apiErr *extend.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case extend.ErrNotFound:
			return NewError(CodeNotFound, "%s", apiErr.Message)
		case extend.ErrUnauthorized:
			return NewError(CodeNotAuthorized, "%s", apiErr.Message)
		case extend.ErrRateLimited:
			return NewError(CodeRateLimited, "%s", apiErr.Message)
		case extend.ErrInvalidInput:
			return NewError(CodeInvalidArgument, "%s", apiErr.Message)
		case extend.ErrTimeout:
			return NewError(CodeTimeout, "%s", apiErr.Message)
		default:
			return NewError(CodeTransientNetwork, "%s", apiErr.Message)
		}
	}

	return NewError(CodeTransientNetwork, "%s", err.Error())
}
