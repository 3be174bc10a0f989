// Package domain defines the core domain models for secdesk.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes follow the format SD-<AREA>-<STATUS><n>, where STATUS is the HTTP
// status the error maps to (e.g. "SD-RATE-4290" is answered with 429).
type DomainError struct {
	Code    string // Error code (e.g., "SD-ISSU-4040")
	Message string // Human-readable message, returned to callers as "error"
	Details any    // Optional structured details, returned to callers as "details"
	Cause   error  // Underlying error (if any), never returned to callers
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
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

// Status returns the HTTP status encoded in the error code.
// Malformed codes map to 500.
func (e *DomainError) Status() int {
	idx := strings.LastIndex(e.Code, "-")
	if idx < 0 || len(e.Code)-idx-1 < 3 {
		return 500
	}
	status, err := strconv.Atoi(e.Code[idx+1 : idx+4])
	if err != nil || status < 400 || status > 599 {
		return 500
	}
	return status
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithMessage returns a copy of the error with a different message.
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: message,
		Details: e.Details,
		Cause:   e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details any) *DomainError {
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

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// AsDomainError returns the first DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// ============================================================================
// Authentication Errors (AUTH, TOKN)
// ============================================================================

var (
	// ErrUnauthorized is the single outcome for a missing, invalid or expired credential.
	ErrUnauthorized = NewDomainError("SD-AUTH-4010", "Unauthorized")

	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	ErrInvalidCredentials = NewDomainError("SD-AUTH-4011", "Invalid credentials")

	// ErrResetTokenInvalid indicates an unknown or expired password reset token.
	ErrResetTokenInvalid = NewDomainError("SD-AUTH-4003", "Invalid or expired reset token")

	// ErrTokenInvalid indicates a malformed token or a signature mismatch.
	ErrTokenInvalid = NewDomainError("SD-TOKN-4010", "invalid token")

	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = NewDomainError("SD-TOKN-4011", "token expired")

	// ErrMissingSecret indicates the token signing secret is not configured.
	ErrMissingSecret = NewDomainError("SD-TOKN-5000", "token signing secret not configured")
)

// ============================================================================
// Admission Errors (RATE)
// ============================================================================

var (
	// ErrTooManyRequests indicates the caller exhausted its quota for the window.
	ErrTooManyRequests = NewDomainError("SD-RATE-4290", "Too many requests, please try again later.")

	// ErrDuplicateRequest indicates an identical request is still locked.
	ErrDuplicateRequest = NewDomainError("SD-RATE-4291", "Duplicate request detected. Please wait before retrying.")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrBadRequest indicates a request body that could not be decoded.
	ErrBadRequest = NewDomainError("SD-ARG-4000", "Bad Request")

	// ErrValidation indicates the payload violates the domain schema.
	// Details carries the []FieldError list.
	ErrValidation = NewDomainError("SD-ARG-4001", "Validation failed")
)

// ============================================================================
// Resource Errors (USER, ISSU, POST)
// ============================================================================

var (
	// ErrUserExists indicates the email is already registered.
	ErrUserExists = NewDomainError("SD-USER-4002", "User already exists")

	// ErrUserNotFound indicates the user does not exist.
	ErrUserNotFound = NewDomainError("SD-USER-4040", "User not found")

	// ErrIssueNotFound indicates the issue does not exist or belongs to another user.
	ErrIssueNotFound = NewDomainError("SD-ISSU-4040", "Issue not found")

	// ErrPostNotFound indicates the post does not exist.
	ErrPostNotFound = NewDomainError("SD-POST-4040", "Post not found")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternal indicates an unexpected failure. Callers only see the message.
	ErrInternal = NewDomainError("SD-SYS-5000", "Internal Server Error")

	// ErrStorage indicates a storage layer failure.
	ErrStorage = NewDomainError("SD-SYS-5001", "Internal Server Error")
)
