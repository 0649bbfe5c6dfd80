package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound           = errors.New("resource not found")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrLedgerIntegrity    = errors.New("ledger integrity violation")
	ErrConcurrencyTimeout = errors.New("lock acquisition timed out")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Ledger error constructors

// InvalidQuantity is returned when a movement or delivery quantity is not a
// positive integer. Raised before any lock is taken.
func InvalidQuantity(field string) *AppError {
	return &AppError{
		Err:        ErrInvalidQuantity,
		Code:       "INVALID_QUANTITY",
		Message:    fmt.Sprintf("%s must be a positive integer", field),
		StatusCode: http.StatusBadRequest,
		Details:    map[string]string{field: "must be a positive integer"},
	}
}

// InsufficientStock is returned when a debit would drive a reagent balance
// below zero. The message names the reagent and the packs currently available.
func InsufficientStock(reagent string, available, requested int) *AppError {
	return &AppError{
		Err:        ErrInsufficientStock,
		Code:       "INSUFFICIENT_STOCK",
		Message:    fmt.Sprintf("not enough stock for %s. Available: %d, requested: %d", reagent, available, requested),
		StatusCode: http.StatusConflict,
	}
}

// LedgerIntegrity is returned when a compensation path finds no balance row
// for a reagent that has live deliveries. Only the first mutation of a reagent
// may create its balance row; a missing row here means the ledger is corrupt.
func LedgerIntegrity(reagent string) *AppError {
	return &AppError{
		Err:        ErrLedgerIntegrity,
		Code:       "LEDGER_INTEGRITY",
		Message:    fmt.Sprintf("no warehouse stock row for %s", reagent),
		StatusCode: http.StatusInternalServerError,
	}
}

// ConcurrencyTimeout is returned when the per-reagent balance lock could not
// be acquired within the configured lock timeout.
func ConcurrencyTimeout(resource string) *AppError {
	return &AppError{
		Err:        ErrConcurrencyTimeout,
		Code:       "CONCURRENCY_TIMEOUT",
		Message:    fmt.Sprintf("could not lock %s within the allowed wait", resource),
		StatusCode: http.StatusServiceUnavailable,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
