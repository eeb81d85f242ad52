package core

import (
	"errors"
	"fmt"
)

// Reason codes carried by failures surfaced to callers.
const (
	ReasonValidation      Reason = "validation"
	ReasonUnknownAccount  Reason = "unknown_account"
	ReasonRateUnavailable Reason = "rate_unavailable"
	ReasonNotFound        Reason = "not_found"
	ReasonStorage         Reason = "storage"
	ReasonMalformedRow    Reason = "malformed_row"
	ReasonInternal        Reason = "internal"
)

type Reason string

// Error is a discriminated failure: a reason code, a human-readable message
// and the underlying cause, if any.
type Error struct {
	Code    Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Fail builds a reason-coded error.
func Fail(code Reason, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// ReasonOf extracts the reason code of err. Plain errors map to ReasonInternal,
// nil maps to "".
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ReasonInternal
}

// MessageOf returns the human-readable message of err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
