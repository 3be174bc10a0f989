package domain

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// FieldError is one reason a payload failed validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Violations collects FieldErrors for a single input.
type Violations []FieldError

// Add records a violation.
func (v *Violations) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Err returns nil when nothing was recorded, otherwise a validation error
// whose message joins every reason with ", ".
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return ErrValidation.WithMessage(strings.Join(msgs, ", ")).WithDetails([]FieldError(v))
}

// checkLength validates that value has between min and max characters.
// max <= 0 disables the upper bound.
func (v *Violations) checkLength(field, value string, min, max int, tooShort, tooLong string) {
	n := utf8.RuneCountInString(value)
	if n < min {
		v.Add(field, tooShort)
		return
	}
	if max > 0 && n > max {
		v.Add(field, tooLong)
	}
}

// checkOptionalLength is checkLength for fields that may be left empty.
func (v *Violations) checkOptionalLength(field string, value *string, min, max int, tooShort, tooLong string) {
	if value == nil || *value == "" {
		return
	}
	v.checkLength(field, *value, min, max, tooShort, tooLong)
}

func (v *Violations) checkEmail(field, value string) {
	if value == "" {
		v.Add(field, "Email is required")
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		v.Add(field, "Please enter a valid email address")
	}
}

// NormalizeEmail lowercases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
