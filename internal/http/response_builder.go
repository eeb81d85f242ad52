// Package http serves the ledger as a JSON API.
//
// This file implements the Builder Pattern for JSON responses and the
// mapping from failure reasons to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"zent/internal/core"
	applog "zent/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the value encoded as the response body.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil || b.statusCode == http.StatusNoContent {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

// ErrorBody is the body of every failed request.
type ErrorBody struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse creates a failure response with the given reason.
func ErrorResponse(statusCode int, code core.Reason, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Data(ErrorBody{OK: false, Code: string(code), Message: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, core.ReasonValidation, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, core.ReasonNotFound, message)
}

// StatusFor maps a failure reason to its HTTP status.
func StatusFor(reason core.Reason) int {
	switch reason {
	case core.ReasonValidation, core.ReasonUnknownAccount, core.ReasonMalformedRow:
		return http.StatusUnprocessableEntity
	case core.ReasonNotFound:
		return http.StatusNotFound
	case core.ReasonRateUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromError builds the failure response for err. Messages of internal and
// storage failures are not exposed.
func FromError(err error) *JSONResponseBuilder {
	reason := core.ReasonOf(err)
	status := StatusFor(reason)
	message := core.MessageOf(err)
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	b := ErrorResponse(status, reason, message)
	if reason == core.ReasonRateUnavailable {
		b.Header("Retry-After", "30")
	}
	return b
}

// writeError logs err with the operation that failed and writes its
// failure response.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var ce *core.Error
	if !errors.As(err, &ce) || StatusFor(ce.Code) >= http.StatusInternalServerError {
		applog.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, operation, nil)
	} else {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Request rejected",
			applog.FieldOperation, operation,
			applog.FieldReason, string(ce.Code),
			"message", ce.Message)
	}
	FromError(err).Write(w)
}
