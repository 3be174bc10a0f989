package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID prefixes per entity.
const (
	UserIDPrefix  = "usr-"
	IssueIDPrefix = "iss-"
	PostIDPrefix  = "pst-"
)

// NewID generates a time-ordered identifier: prefix + lowercase ULID.
func NewID(prefix string) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternal.WithCause(err)
	}
	return prefix + strings.ToLower(id.String()), nil
}

// IsValidID reports whether id carries prefix followed by a parseable ULID.
func IsValidID(prefix, id string) bool {
	if !strings.HasPrefix(id, prefix) {
		return false
	}
	_, err := ulid.Parse(strings.ToUpper(id[len(prefix):]))
	return err == nil
}
