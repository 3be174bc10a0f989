package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/yndnr/secdesk-go/internal/core/domain"
	"github.com/yndnr/secdesk-go/internal/telemetry/logger"
	"github.com/yndnr/secdesk-go/pkg/token"
)

// AuthServiceConfig holds configuration for AuthService.
type AuthServiceConfig struct {
	// ResetTokenTTL is how long a password reset link stays valid (default: 1h).
	ResetTokenTTL time.Duration

	// ResetURL is the page that receives the reset token as ?token=.
	ResetURL string

	// Clock overrides the time source.
	Clock Clock
}

// DefaultAuthServiceConfig returns default configuration.
func DefaultAuthServiceConfig() *AuthServiceConfig {
	return &AuthServiceConfig{
		ResetTokenTTL: time.Hour,
		ResetURL:      "http://localhost:3000/reset-password",
	}
}

// AuthService handles registration, login and password reset.
type AuthService struct {
	users    UserRepository
	tokens   *TokenService
	creds    *CredentialService
	notifier Notifier

	resetTTL time.Duration
	resetURL string
	now      Clock
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, tokens *TokenService, creds *CredentialService, notifier Notifier, cfg *AuthServiceConfig) *AuthService {
	def := DefaultAuthServiceConfig()
	if cfg == nil {
		cfg = def
	}
	s := &AuthService{
		users:    users,
		tokens:   tokens,
		creds:    creds,
		notifier: orNop(notifier),
		resetTTL: cfg.ResetTokenTTL,
		resetURL: cfg.ResetURL,
		now:      cfg.Clock,
	}
	if s.resetTTL <= 0 {
		s.resetTTL = def.ResetTokenTTL
	}
	if s.resetURL == "" {
		s.resetURL = def.ResetURL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Session is a signed-in user together with its bearer token.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, in *domain.RegisterInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(in.Email)
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.creds.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	id, err := domain.NewID(domain.UserIDPrefix)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Designation,
		Sector:       in.Sector,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The repository enforces uniqueness for concurrent registrations.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("user registered", "user_id", user.ID)
	s.notifier.Notify(ctx, domain.Notification{
		Kind: domain.NotifyWelcome,
		To:   user.Email,
		Name: user.FullName,
	})

	return s.signIn(user)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in *domain.LoginInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, domain.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.creds.Burn(in.Password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.creds.Verify(user.PasswordHash, in.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	return s.signIn(user)
}

func (s *AuthService) signIn(user *domain.User) (*Session, error) {
	tok, exp, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: tok, ExpiresAt: exp}, nil
}

// ForgotPassword starts a reset for the account behind in.Email. It reports
// success whether or not the account exists.
func (s *AuthService) ForgotPassword(ctx context.Context, in *domain.ForgotPasswordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	user, err := s.users.GetUserByEmail(ctx, domain.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil
		}
		return err
	}

	raw, err := token.Generate()
	if err != nil {
		return domain.ErrInternal.WithCause(err)
	}
	exp := s.now().Add(s.resetTTL)
	user.ResetTokenHash = token.Hash(raw)
	user.ResetTokenExpires = &exp
	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	logger.L(ctx).Info("password reset requested", "user_id", user.ID)
	s.notifier.Notify(ctx, domain.Notification{
		Kind:      domain.NotifyPasswordReset,
		To:        user.Email,
		Name:      user.FullName,
		ResetLink: s.resetLink(raw),
	})
	return nil
}

func (s *AuthService) resetLink(raw string) string {
	u, err := url.Parse(s.resetURL)
	if err != nil {
		return s.resetURL + "?token=" + url.QueryEscape(raw)
	}
	q := u.Query()
	q.Set("token", raw)
	u.RawQuery = q.Encode()
	return u.String()
}

// ResetPassword replaces the password of the account holding in.Token and
// consumes the token.
func (s *AuthService) ResetPassword(ctx context.Context, in *domain.ResetPasswordInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	hash := token.Hash(in.Token)
	user, err := s.users.GetUserByResetToken(ctx, hash)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrResetTokenInvalid
		}
		return err
	}
	if !user.HasValidResetToken(hash, s.now()) {
		return domain.ErrResetTokenInvalid
	}

	pw, err := s.creds.Hash(in.Password)
	if err != nil {
		return err
	}
	user.PasswordHash = pw
	user.ResetTokenHash = ""
	user.ResetTokenExpires = nil
	user.UpdatedAt = s.now()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}

	logger.L(ctx).Info("password reset completed", "user_id", user.ID)
	return nil
}
