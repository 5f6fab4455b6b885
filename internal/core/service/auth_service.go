package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/ports"
)

const (
	DefaultIssuer   = "customer-api"
	DefaultTokenTTL = 900 * time.Second
)

// AuthConfig holds the claim parameters stamped into every issued token.
type AuthConfig struct {
	Issuer   string
	TokenTTL time.Duration
}

// AuthService implements login. It is the only component that mints tokens.
type AuthService struct {
	repo   ports.CustomerRepository
	hasher ports.PasswordHasher
	codec  ports.TokenCodec
	issuer string
	ttl    time.Duration
	now    func() time.Time
	log    zerolog.Logger
}

func NewAuthService(
	repo ports.CustomerRepository,
	hasher ports.PasswordHasher,
	codec ports.TokenCodec,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		codec:  codec,
		issuer: cfg.Issuer,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
		log:    log,
	}
}

// Authenticate verifies email and password and issues a token scoped to the
// customer's role. Unknown emails fail with domain.ErrUnknownIdentity and wrong
// passwords with domain.ErrInvalidCredentials; both match ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	customer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, domain.ErrUnknownIdentity
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !s.hasher.Verify(customer.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	// Token timestamps have second precision.
	now := s.now().UTC().Truncate(time.Second)
	claims := domain.Claims{
		Subject:    customer.Email,
		Issuer:     s.issuer,
		IssuedAt:   now,
		ExpiresAt:  now.Add(s.ttl),
		Scopes:     []string{customer.Role.Scope()},
		CustomerID: customer.ID,
	}

	token, err := s.codec.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("authenticate: sign token: %w", err)
	}

	s.log.Info().Int64("customer_id", customer.ID).Str("role", customer.Role.String()).Msg("customer authenticated")

	return &domain.LoginResult{
		Token:      token,
		Roles:      []string{customer.Role.String()},
		ExpiresAt:  claims.ExpiresAt,
		CustomerID: customer.ID,
	}, nil
}
