package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/secdesk-go/internal/core/domain"
)

// Token defaults.
const (
	DefaultTokenTTL    = 7 * 24 * time.Hour
	DefaultTokenIssuer = "secdesk"
)

// Claims is the payload of a SecDesk bearer token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenConfig holds configuration for TokenService.
type TokenConfig struct {
	// Secret is the HMAC signing key. Required.
	Secret string

	// TTL is the token lifetime (default: 7 days).
	TTL time.Duration

	// Issuer is written to the iss claim (default: "secdesk").
	Issuer string

	// Clock overrides the time source.
	Clock Clock
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    Clock
	parser *jwt.Parser
}

// NewTokenService creates a TokenService. It fails with
// domain.ErrMissingSecret when no secret is configured.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, domain.ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &TokenService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Clock,
		// Expiry is checked against s.now after the signature is verified.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject. The returned expiry is whole seconds,
// matching the exp claim.
func (s *TokenService) Issue(subject, email string) (string, time.Time, error) {
	now := s.now()
	claims := Claims{
		UserID: subject,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, domain.ErrInternal.WithCause(err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature and then the expiry of token.
//
// Malformed input, a foreign algorithm, a bad signature or a token without
// a subject yields domain.ErrTokenInvalid. A genuine token at or past its
// expiry yields domain.ErrTokenExpired.
func (s *TokenService) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims := &Claims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}

	if claims.ExpiresAt == nil {
		return nil, domain.ErrTokenInvalid
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}

	if !s.now().Before(claims.ExpiresAt.Time) {
		return nil, domain.ErrTokenExpired
	}
	return claims, nil
}
