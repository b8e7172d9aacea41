package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeFailedPrecond    ErrorCode = "FAILED_PRECONDITION"
	CodeResourceExhaust  ErrorCode = "RESOURCE_EXHAUSTED"
	CodeInternal         ErrorCode = "INTERNAL"
	CodeDeadlineExceeded ErrorCode = "DEADLINE_EXCEEDED"
)

var ErrUnknownWidget = errors.New("unknown widget")
var ErrWidgetContentMissing = errors.New("widget content missing")
var ErrRateLimited = errors.New("rate limit exceeded")
var ErrInvalidArgument = errors.New("invalid argument")

// Error carries a code, the failing operation and an optional remediation hint.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Hint    string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	var out string
	switch {
	case e.Op == "" && msg == "":
		out = string(e.Code)
	case e.Op == "":
		out = fmt.Sprintf("%s: %s", e.Code, msg)
	case msg == "":
		out = fmt.Sprintf("%s: %s", e.Op, e.Code)
	default:
		out = fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
	}
	if e.Hint != "" {
		out += " (" + e.Hint + ")"
	}
	return out
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

// WithHint returns a copy of the error carrying a remediation hint.
func (e *Error) WithHint(hint string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Hint = hint
	return &clone
}

func Wrap(code ErrorCode, op string, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op != "" || op == "" {
			return existing
		}
		clone := *existing
		clone.Op = op
		return &clone
	}
	return E(code, op, "", err)
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	switch {
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrUnknownWidget):
		return CodeNotFound, true
	case errors.Is(err, ErrWidgetContentMissing):
		return CodeFailedPrecond, true
	case errors.Is(err, ErrRateLimited):
		return CodeResourceExhaust, true
	default:
		return "", false
	}
}
