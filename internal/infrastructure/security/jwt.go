package security

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/customer-api/internal/core/domain"
)

// tokenClaims is the wire form of domain.Claims.
type tokenClaims struct {
	jwt.RegisteredClaims
	Scope      string `json:"scope"`
	CustomerID int64  `json:"customerId"`
}

// JWTCodec signs tokens with an RSA private key (RS256) and verifies them with
// the matching public key.
type JWTCodec struct {
	private *rsa.PrivateKey
	public  *rsa.PublicKey
	issuer  string
	now     func() time.Time
}

type CodecOption func(*JWTCodec)

// WithClock overrides the time source used during verification.
func WithClock(now func() time.Time) CodecOption {
	return func(c *JWTCodec) { c.now = now }
}

// NewJWTCodec returns a codec for the given key pair. A nil private key yields
// a verify-only codec. Tokens from any other issuer are rejected.
func NewJWTCodec(private *rsa.PrivateKey, public *rsa.PublicKey, issuer string, opts ...CodecOption) (*JWTCodec, error) {
	if public == nil {
		return nil, errors.New("jwt codec: public key is required")
	}
	c := &JWTCodec{private: private, public: public, issuer: issuer, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *JWTCodec) Sign(claims domain.Claims) (string, error) {
	if c.private == nil {
		return "", errors.New("jwt codec: no private key configured")
	}

	tc := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    claims.Issuer,
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
		Scope:      strings.Join(claims.Scopes, " "),
		CustomerID: claims.CustomerID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, tc).SignedString(c.private)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify parses token and checks its signature, algorithm, issuer and
// validity window [iat, exp).
func (c *JWTCodec) Verify(token string) (*domain.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.public, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, classify(err)
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}

	claims := &domain.Claims{
		Subject:    tc.Subject,
		Issuer:     tc.Issuer,
		CustomerID: tc.CustomerID,
		Scopes:     strings.Fields(tc.Scope),
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.UTC()
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.UTC()
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", domain.ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
}
