package services

import (
	"errors"
	"sort"
	"strings"
)

// --- Custom Service Errors ---
var (
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("caller is not allowed to perform this action")
	ErrItemNotFound       = errors.New("inventory item not found")
	ErrBatchNotFound      = errors.New("batch not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrSupplierNotFound   = errors.New("supplier not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCategoryNameExists = errors.New("category name already exists")
	ErrSupplierNameExists = errors.New("supplier name already exists")
	ErrBatchNumberExists  = errors.New("batch number already exists for this item")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
)

// ValidationError collects field-level messages. It matches ErrValidation
// with errors.Is, plus the optional cause.
type ValidationError struct {
	Fields map[string]string
	cause  error
}

// NewValidationError returns an empty collector.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// OrNil returns e when it holds failures.
func (e *ValidationError) OrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrValidation, e.cause}
	}
	return []error{ErrValidation}
}

func fieldError(field, msg string, cause error) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}, cause: cause}
}
