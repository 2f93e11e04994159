package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeUnavailable  ErrorCode = "UNAVAILABLE"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches sentinel domain errors by code and message so that wrapped
// copies produced by transports still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// StoreError classifies a failure reported by the task store. Not-found
// results pass through; anything else, including a request the store
// rejected as invalid, becomes an UNAVAILABLE error wrapping the cause.
// Validation errors are only ever raised locally, before the store is called.
func StoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err, ErrCodeNotFound) || IsDomainError(err, ErrCodeUnavailable) {
		return err
	}
	return WrapError(ErrCodeUnavailable, "task store "+op+" failed", err)
}

// Common domain errors.
var (
	ErrUserNotFound       = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound       = NewError(ErrCodeNotFound, "task not found")
	ErrSessionNotFound    = NewError(ErrCodeNotFound, "session not found")
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredentials = NewError(ErrCodeUnauthorized, "invalid email or password")
	ErrNoSession          = NewError(ErrCodeUnauthorized, "no active session")
	ErrEmailTaken         = NewError(ErrCodeConflict, "email already registered")
	ErrInvalidPayload     = NewError(ErrCodeInvalid, "invalid payload")
	ErrInvalidEmail       = NewError(ErrCodeInvalid, "a valid email is required")
	ErrEmptyTitle         = NewError(ErrCodeInvalid, "task title must not be empty")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// IsValidation reports whether err was rejected before reaching the store.
func IsValidation(err error) bool { return IsDomainError(err, ErrCodeInvalid) }

// IsNotFound reports whether err denotes a missing or foreign record.
func IsNotFound(err error) bool { return IsDomainError(err, ErrCodeNotFound) }

// IsStoreError reports whether err is a transport or permission failure.
func IsStoreError(err error) bool { return IsDomainError(err, ErrCodeUnavailable) }
