package service

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// DefaultBcryptCost matches the cost used for existing password hashes.
const DefaultBcryptCost = 10

// CredentialService hashes and checks passwords with bcrypt.
type CredentialService struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewCredentialService creates a CredentialService. A cost outside bcrypt's
// accepted range falls back to DefaultBcryptCost.
func NewCredentialService(cost int) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &CredentialService{cost: cost}
}

// Hash returns the bcrypt hash of password.
func (s *CredentialService) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", domain.ErrInternal.WithCause(err)
	}
	return string(h), nil
}

// Verify reports whether password matches hash.
func (s *CredentialService) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Burn spends the same work as a failed Verify. Login calls it for unknown
// emails so both failures take comparable time.
func (s *CredentialService) Burn(password string) {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("secdesk-placeholder"), s.cost)
	})
	_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
}
