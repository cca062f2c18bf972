package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeInternal           = "INTERNAL_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	CodeStoreUnavailable   = "STORE_UNAVAILABLE"
	CodeTemplateUnresolved = "TEMPLATE_UNRESOLVED"
)

// AppError represents an application error with context
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key, value string) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithError wraps an underlying error
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Internal creates an internal error
func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

// NotFound creates a not found error
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// Validation creates a validation error
func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// CatalogUnavailable creates an error for an evaluator catalog that
// cannot be loaded. This is fatal to the whole batch run.
func CatalogUnavailable(err error) *AppError {
	return New(CodeCatalogUnavailable, "evaluator catalog unavailable").WithError(err)
}

// StoreUnavailable creates an error for an evaluation store that cannot
// answer a point lookup. The affected unit of work is skipped defensively.
func StoreUnavailable(err error) *AppError {
	return New(CodeStoreUnavailable, "evaluation store unavailable").WithError(err)
}

// TemplateUnresolved creates an error for a template identifier that does
// not map to a registered scoring capability.
func TemplateUnresolved(templateID string) *AppError {
	return New(CodeTemplateUnresolved, fmt.Sprintf("no scoring capability registered for template %q", templateID))
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error if present
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func hasCode(err error, code string) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsCatalogUnavailable checks if the error is a catalog load failure
func IsCatalogUnavailable(err error) bool {
	return hasCode(err, CodeCatalogUnavailable)
}

// IsStoreUnavailable checks if the error is an evaluation store failure
func IsStoreUnavailable(err error) bool {
	return hasCode(err, CodeStoreUnavailable)
}

// IsTemplateUnresolved checks if the error is an unresolved template reference
func IsTemplateUnresolved(err error) bool {
	return hasCode(err, CodeTemplateUnresolved)
}
