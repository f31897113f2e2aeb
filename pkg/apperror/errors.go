package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its HTTP status code
type Kind string

const (
	KindValidation     Kind = "validation"
	KindDuplicate      Kind = "duplicate"
	KindNotFound       Kind = "not_found"
	KindAuthentication Kind = "authentication"
	KindStorage        Kind = "storage"
	KindBadRequest     Kind = "bad_request"
	KindRateLimited    Kind = "rate_limited"
	KindInternal       Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Value   any    `json:"value,omitempty"`

	cause error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches two AppErrors by kind and message so sentinel comparisons work
// for values built by the constructors below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// Common errors
var (
	ErrAuthentication     = &AppError{Code: http.StatusUnauthorized, Kind: KindAuthentication, Message: "Authentication required"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Kind: KindAuthentication, Message: "Invalid credentials"}
	ErrMalformedBody      = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Invalid JSON format"}
	ErrRateLimited        = &AppError{Code: http.StatusTooManyRequests, Kind: KindRateLimited, Message: "Too many requests, please try again later"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
)

// NewMissingField reports a required field absent from a record
func NewMissingField(field string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: "Missing required field: " + field,
		Field:   field,
	}
}

// NewFieldOutOfRange reports a percentage outside [0,100]
func NewFieldOutOfRange(field string, value float64) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: fmt.Sprintf("Validation error: %s must be between 0 and 100, got %g", field, value),
		Field:   field,
		Value:   value,
	}
}

// NewNegativeValue reports a monetary or quantity field below zero
func NewNegativeValue(field string, value float64) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: fmt.Sprintf("Validation error: %s must not be negative, got %g", field, value),
		Field:   field,
		Value:   value,
	}
}

// NewInvalidField reports a field with the wrong shape (type, empty string, bad format)
func NewInvalidField(field, reason string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindValidation,
		Message: fmt.Sprintf("Validation error: %s %s", field, reason),
		Field:   field,
	}
}

// NewDuplicateError reports a configuration name collision
func NewDuplicateError(name string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindDuplicate,
		Message: fmt.Sprintf("Configuration with name '%s' already exists", name),
		Field:   "name",
		Value:   name,
	}
}

// NewNotFoundError creates a not found error for a record of the given kind
func NewNotFoundError(resource, id string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with ID '%s' not found", resource, id),
		Value:   id,
	}
}

// NewStorageError wraps a backend failure. The message stays opaque; the cause
// is only visible to logs and errors.Is/As.
func NewStorageError(op, key string, cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindStorage,
		Message: fmt.Sprintf("storage %s %q failed", op, key),
		cause:   cause,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible. Anything else is an
// opaque internal error.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: ErrInternalServer.Message,
		cause:   err,
	}
}

// PublicMessage is the text safe to return to clients. Storage and internal
// failures never leak backend details.
func (e *AppError) PublicMessage() string {
	switch e.Kind {
	case KindStorage:
		return "Storage operation failed"
	case KindInternal:
		return ErrInternalServer.Message
	default:
		return e.Message
	}
}
