package service

import (
	"context"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/telemetry/logger"
)

// UserService serves the caller's own profile.
type UserService struct {
	users    UserRepository
	notifier Notifier
	now      Clock
}

// NewUserService creates a new UserService.
func NewUserService(users UserRepository, notifier Notifier, clock Clock) *UserService {
	if clock == nil {
		clock = time.Now
	}
	return &UserService{users: users, notifier: orNop(notifier), now: clock}
}

// Profile returns the user with id. The password hash never leaves the
// process: domain.User does not serialize it.
func (s *UserService) Profile(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetUser(ctx, id)
}

// UpdateProfile applies in to the user with id and sends a security notice.
func (s *UserService) UpdateProfile(ctx context.Context, id string, in *domain.UpdateProfileInput) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.IsEmpty() {
		return user, nil
	}

	in.Apply(user)
	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("profile updated", "user_id", user.ID)
	s.notifier.Notify(ctx, domain.Notification{
		Kind: domain.NotifyProfileUpdated,
		To:   user.Email,
		Name: user.FullName,
	})
	return user, nil
}
