// Package http provides HTTP server and handler implementations.
//
// This file implements a small builder for JSON responses and the mapping
// from domain errors to status codes, so every handler fails the same way.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/ledger"
	"finanzas/internal/loan"
	"finanzas/internal/log"
	"finanzas/internal/middleware/trace"
)

// ErrorBody is the payload of every non-2xx response.
type ErrorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a builder with a 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{statusCode: http.StatusOK, headers: make(map[string]string)}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the response. A nil body writes headers only.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates an error response carrying the request ID.
func ErrorResponse(r *http.Request, statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Code: code, RequestID: trace.GetRequestID(r.Context())})
}

var errBadRequest = errors.New("malformed request")

// classify maps an error to its status code and a stable machine code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case core.IsValidationError(err), errors.Is(err, loan.ErrValidation):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case auth.IsAuthError(err):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError maps err to a response. Server errors are logged with their
// cause and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		ctx := r.Context()
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Request failed", err, operation, log.NewFields().
				WithRequestID(trace.GetRequestID(ctx)).
				WithErrorType(fmt.Sprintf("%T", rootCause(err))))
		msg = "internal error"
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="finanzas"`)
	}
	ErrorResponse(r, status, code, msg).Write(w)
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
