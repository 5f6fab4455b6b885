package ports

import (
	"context"

	"github.com/99minutos/customer-api/internal/core/domain"
)

// Authenticator exchanges credentials for a signed bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*domain.LoginResult, error)
}

// TokenCodec signs and verifies bearer tokens.
type TokenCodec interface {
	Sign(claims domain.Claims) (string, error)
	Verify(token string) (*domain.Claims, error)
}

// PasswordHasher produces and checks one-way salted password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}
