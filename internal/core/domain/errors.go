package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
//
// Two DomainErrors are equal under errors.Is when their codes match, so the
// package-level kinds below can be used as sentinels even after WithDetails or
// WithCause produced a copy.
type DomainError struct {
	Code    string // Error code (e.g., "TIMI-SESS-4220")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Session errors (SESS).
var (
	// ErrCorruptedProfile indicates the cached profile could not be parsed.
	ErrCorruptedProfile = NewDomainError("TIMI-SESS-4220", "cached profile is corrupted")

	// ErrSessionExpired indicates the backend no longer accepts the stored token.
	ErrSessionExpired = NewDomainError("TIMI-SESS-4010", "session expired, please sign in again")

	// ErrNotAuthenticated indicates an authorised call was attempted while anonymous.
	ErrNotAuthenticated = NewDomainError("TIMI-SESS-4011", "not signed in")
)

// Token errors (TOKN).
var (
	// ErrMalformedToken indicates the token is not a decodable compact token.
	ErrMalformedToken = NewDomainError("TIMI-TOKN-4000", "malformed token")
)

// Authentication errors (AUTH).
var (
	// ErrInvalidCredentials indicates the backend rejected the email/password pair.
	ErrInvalidCredentials = NewDomainError("TIMI-AUTH-4010", "invalid credentials")

	// ErrValidation indicates request input failed validation locally or at the backend.
	ErrValidation = NewDomainError("TIMI-AUTH-4001", "validation failed")

	// ErrRateLimited indicates too many sign-in attempts in a short period.
	ErrRateLimited = NewDomainError("TIMI-AUTH-4290", "too many attempts, slow down")
)

// System errors (SYS).
var (
	// ErrPersistence indicates the token store could not be read or written.
	ErrPersistence = NewDomainError("TIMI-SYS-5001", "session storage failure")

	// ErrBackend indicates an unexpected backend response or transport failure.
	ErrBackend = NewDomainError("TIMI-SYS-5020", "backend request failed")
)

// Argument errors (ARG).
var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("TIMI-ARG-1001", "invalid argument")
)
