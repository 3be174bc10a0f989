package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without cause",
			err:      NewDomainError("SD-TEST-4000", "test message"),
			expected: "[SD-TEST-4000] test message",
		},
		{
			name:     "error with cause",
			err:      NewDomainError("SD-TEST-5000", "test message").WithCause(fmt.Errorf("disk full")),
			expected: "[SD-TEST-5000] test message: disk full",
		},
		{
			name:     "details are not part of the string",
			err:      NewDomainError("SD-TEST-4001", "test message").WithDetails([]FieldError{{Field: "a", Message: "b"}}),
			expected: "[SD-TEST-4001] test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("SD-TEST-4000", "message 1")
	err2 := NewDomainError("SD-TEST-4000", "message 2")
	err3 := NewDomainError("SD-TEST-4001", "message 1")

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying cause")
	err := NewDomainError("SD-TEST-5000", "wrapper").WithCause(cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if errors.Unwrap(NewDomainError("SD-TEST-5000", "no cause")) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_CopiesLeaveOriginalUntouched(t *testing.T) {
	original := NewDomainError("SD-TEST-4000", "original message")
	cause := fmt.Errorf("root cause")

	derived := original.WithDetails("extra").WithMessage("other").WithCause(cause)

	if original.Details != nil || original.Cause != nil || original.Message != "original message" {
		t.Errorf("original modified: %+v", original)
	}
	if derived.Code != original.Code {
		t.Errorf("Code = %q, want %q", derived.Code, original.Code)
	}
	if derived.Details != "extra" {
		t.Errorf("Details = %v, want %q", derived.Details, "extra")
	}
	if derived.Message != "other" {
		t.Errorf("Message = %q, want %q", derived.Message, "other")
	}
	if derived.Cause != cause {
		t.Errorf("Cause = %v, want %v", derived.Cause, cause)
	}
	if !errors.Is(derived, original) {
		t.Error("errors.Is should match derived errors by code")
	}
}

func TestDomainError_Status(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"SD-AUTH-4010", 401},
		{"SD-RATE-4290", 429},
		{"SD-RATE-4291", 429},
		{"SD-ARG-4001", 400},
		{"SD-ISSU-4040", 404},
		{"SD-SYS-5001", 500},
		{"garbage", 500},
		{"SD-X-12", 500},
		{"SD-X-2000", 500},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := NewDomainError(tt.code, "m").Status(); got != tt.want {
				t.Errorf("Status() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrPostNotFound, "SD-POST-4040"},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", ErrTokenExpired), "SD-TOKN-4011"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPredefinedErrorStatuses(t *testing.T) {
	tests := []struct {
		err    *DomainError
		status int
	}{
		{ErrUnauthorized, 401},
		{ErrInvalidCredentials, 401},
		{ErrResetTokenInvalid, 400},
		{ErrTooManyRequests, 429},
		{ErrDuplicateRequest, 429},
		{ErrBadRequest, 400},
		{ErrValidation, 400},
		{ErrUserExists, 400},
		{ErrUserNotFound, 404},
		{ErrIssueNotFound, 404},
		{ErrPostNotFound, 404},
		{ErrInternal, 500},
		{ErrStorage, 500},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := tt.err.Status(); got != tt.status {
				t.Errorf("Status() = %d, want %d", got, tt.status)
			}
			if tt.err.Message == "" {
				t.Error("Error message should not be empty")
			}
		})
	}

	if ErrTooManyRequests.Message == ErrDuplicateRequest.Message {
		t.Error("quota and duplicate rejections must carry different messages")
	}
}
