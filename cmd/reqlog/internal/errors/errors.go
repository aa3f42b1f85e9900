// Package errors provides centralized error handling and HTTP error responses.
// It defines standard error codes, the APIError type and a recovery middleware
// that turns panics into errors and reports them to the error hook.
package errors

import (
	"encoding/json"
	"fmt"
	"net/http"

	cerrors "github.com/cockroachdb/errors"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	"github.com/thalib/reqlog/cmd/reqlog/internal/logging"
)

// ErrorCode represents a standard error code
type ErrorCode string

const (
	// Request errors
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeValidationFailed ErrorCode = "VALIDATION_ERROR"
	CodeInvalidJSON      ErrorCode = "INVALID_JSON"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	CodePayloadTooLarge  ErrorCode = "PAYLOAD_TOO_LARGE"

	// Server errors
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error     string         `json:"error"`
	Code      int            `json:"code"`
	ErrorCode ErrorCode      `json:"error_code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// APIError represents an application error
type APIError struct {
	Message    string
	StatusCode int
	ErrorCode  ErrorCode
	Details    map[string]any
	Err        error // Wrapped error
}

var _ error = (*APIError)(nil)
var _ fmt.Formatter = (*APIError)(nil)

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *APIError) Unwrap() error {
	return e.Err
}

// Name returns the error code. The request logger reports it as the error name.
func (e *APIError) Name() string {
	return string(e.ErrorCode)
}

// Format passes formatting responsibilities to cockroachdb/errors so that
// %+v prints the stack of the wrapped cause.
func (e *APIError) Format(s fmt.State, verb rune) {
	cerrors.FormatError(e, s, verb)
}

// WithDetails adds details to the error
func (e *APIError) WithDetails(details map[string]any) *APIError {
	e.Details = details
	return e
}

// Wrap wraps an error with additional context
func (e *APIError) Wrap(err error) *APIError {
	e.Err = err
	return e
}

// NewAPIError creates a new API error
func NewAPIError(statusCode int, errorCode ErrorCode, message string) *APIError {
	return &APIError{
		Message:    message,
		StatusCode: statusCode,
		ErrorCode:  errorCode,
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, CodeBadRequest, message)
}

// NewValidationError creates a 400 Validation error
func NewValidationError(message string, details map[string]any) *APIError {
	return NewAPIError(http.StatusBadRequest, CodeValidationFailed, message).WithDetails(details)
}

// NewInvalidJSONError creates a 400 error for a body that failed to decode
func NewInvalidJSONError(err error) *APIError {
	return NewAPIError(http.StatusBadRequest, CodeInvalidJSON, "Invalid JSON body").Wrap(err)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string) *APIError {
	return NewAPIError(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewMethodNotAllowedError creates a 405 Method Not Allowed error
func NewMethodNotAllowedError(method string) *APIError {
	return NewAPIError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, fmt.Sprintf("method %s not allowed", method))
}

// NewPayloadTooLargeError creates a 413 error
func NewPayloadTooLargeError(limit int64) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, CodeInternalError, message)
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return NewAPIError(http.StatusServiceUnavailable, CodeServiceUnavailable, message)
}

// ErrorHandlerConfig holds configuration for error handling
type ErrorHandlerConfig struct {
	// ShowInternalErrors shows detailed error information in responses.
	// Should be false in production.
	ShowInternalErrors bool

	// OnError is called for every error written, recovered panics included.
	// The request logger's OnError is plugged in here.
	OnError func(r *http.Request, err error)
}

// ErrorHandler provides error handling middleware and utilities
type ErrorHandler struct {
	config ErrorHandlerConfig
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(config ErrorHandlerConfig) *ErrorHandler {
	return &ErrorHandler{
		config: config,
	}
}

// RecoveryMiddleware catches panics and converts them to 500 errors
func (h *ErrorHandler) RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			var cause error
			if err, ok := rec.(error); ok {
				cause = cerrors.WithStack(err)
			} else {
				cause = cerrors.Newf("panic: %v", rec)
			}

			message := "Internal server error"
			if h.config.ShowInternalErrors {
				message = fmt.Sprintf("Internal server error: %v", rec)
			}

			h.WriteError(w, r, NewInternalError(message).Wrap(cause))
		}()

		next.ServeHTTP(w, r)
	})
}

// WriteError writes an error response
func (h *ErrorHandler) WriteError(w http.ResponseWriter, r *http.Request, err *APIError) {
	response := ErrorResponse{
		Error:     err.Message,
		Code:      err.StatusCode,
		ErrorCode: err.ErrorCode,
		RequestID: logging.GetRequestID(r.Context()),
	}

	if err.Details != nil {
		response.Details = err.Details
	}

	// In development, include wrapped error details
	if h.config.ShowInternalErrors && err.Err != nil {
		details := make(map[string]any, len(response.Details)+1)
		for k, v := range response.Details {
			details[k] = v
		}
		details["internal_error"] = err.Err.Error()
		response.Details = details
	}

	if h.config.OnError != nil {
		h.config.OnError(r, err)
	}

	w.Header().Set(constants.HeaderContentType, constants.MIMEApplicationJSON)
	w.WriteHeader(err.StatusCode)
	json.NewEncoder(w).Encode(response)
}

// WriteErrorFromError converts a standard error to an API error response
func (h *ErrorHandler) WriteErrorFromError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if cerrors.As(err, &apiErr) {
		h.WriteError(w, r, apiErr)
		return
	}

	apiErr = NewInternalError("An unexpected error occurred")
	if h.config.ShowInternalErrors {
		apiErr = NewInternalError(err.Error())
	}
	h.WriteError(w, r, apiErr.Wrap(err))
}
