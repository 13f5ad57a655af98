package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"

	// ErrCodeUserCancelled indicates the user dismissed the authorization prompt.
	ErrCodeUserCancelled ErrorCode = "user_cancelled"
	// ErrCodeProviderUnknown indicates the identity provider failed for an unknown reason.
	ErrCodeProviderUnknown ErrorCode = "provider_unknown"
	// ErrCodeInvalidResponse indicates the identity provider returned a malformed response.
	ErrCodeInvalidResponse ErrorCode = "invalid_response"
	// ErrCodeNotHandled indicates the authorization request was not handled.
	ErrCodeNotHandled ErrorCode = "not_handled"
	// ErrCodeProviderFailed indicates the authorization attempt failed.
	ErrCodeProviderFailed ErrorCode = "provider_failed"
	// ErrCodeTokenMissing indicates a credential arrived without an identity token.
	ErrCodeTokenMissing ErrorCode = "token_missing"
	// ErrCodeTokenUndecodable indicates the identity token is not valid text.
	ErrCodeTokenUndecodable ErrorCode = "token_undecodable"
	// ErrCodeBackendExchange indicates the backend rejected a federated credential.
	ErrCodeBackendExchange ErrorCode = "backend_exchange"
	// ErrCodeBackendAnonymousLogin indicates the backend could not create an anonymous session.
	ErrCodeBackendAnonymousLogin ErrorCode = "backend_anonymous_login"
	// ErrCodeBackendSignOut indicates the backend rejected a sign-out.
	ErrCodeBackendSignOut ErrorCode = "backend_signout"
	// ErrCodeInvalidState indicates an authorization callback arrived with no request in flight.
	ErrCodeInvalidState ErrorCode = "invalid_state"
	// ErrCodeStaleAttempt indicates a callback belongs to an abandoned sign-in attempt.
	ErrCodeStaleAttempt ErrorCode = "stale_attempt"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates an AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return Is(err, ErrCodeValidation)
}

// IsUserCancelled checks if the user dismissed the authorization prompt.
func IsUserCancelled(err error) bool {
	return Is(err, ErrCodeUserCancelled)
}

// IsInvalidState checks if an error reports a callback with no request in flight.
func IsInvalidState(err error) bool {
	return Is(err, ErrCodeInvalidState)
}

// IsStaleAttempt checks if an error reports a callback for an abandoned attempt.
func IsStaleAttempt(err error) bool {
	return Is(err, ErrCodeStaleAttempt)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
// The outermost AppError wins.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
