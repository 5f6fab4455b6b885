package security

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/customer-api/internal/core/domain"
)

var (
	keyOnce  sync.Once
	testKey  *rsa.PrivateKey
	otherKey *rsa.PrivateKey
)

func keys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	keyOnce.Do(func() {
		var err error
		if testKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
		if otherKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
			panic(err)
		}
	})
	return testKey, otherKey
}

var issuedAt = time.Date(2025, 9, 2, 15, 30, 30, 0, time.UTC)

func sampleClaims() domain.Claims {
	return domain.Claims{
		Subject:    "ana@example.com",
		Issuer:     "customer-api",
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(900 * time.Second),
		Scopes:     []string{"SCOPE_ROLE_CUSTOMER"},
		CustomerID: 2,
	}
}

func codecAt(t *testing.T, at time.Time) *JWTCodec {
	t.Helper()
	key, _ := keys(t)
	c, err := NewJWTCodec(key, &key.PublicKey, "customer-api", WithClock(func() time.Time { return at }))
	if err != nil {
		t.Fatalf("NewJWTCodec returned error: %v", err)
	}
	return c
}

func TestJWTCodec_RoundTrip(t *testing.T) {
	c := codecAt(t, issuedAt.Add(time.Minute))

	token, err := c.Sign(sampleClaims())
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected three-part token, got %d parts", len(parts))
	}

	got, err := c.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	want := sampleClaims()
	if got.Subject != want.Subject || got.Issuer != want.Issuer || got.CustomerID != want.CustomerID {
		t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", *got, want)
	}
	if !got.IssuedAt.Equal(want.IssuedAt) || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("timestamps mismatch: got iat=%v exp=%v", got.IssuedAt, got.ExpiresAt)
	}
	if !reflect.DeepEqual(got.Scopes, want.Scopes) {
		t.Fatalf("scopes mismatch: got %v want %v", got.Scopes, want.Scopes)
	}
}

func TestJWTCodec_ValidityWindow(t *testing.T) {
	token, err := codecAt(t, issuedAt).Sign(sampleClaims())
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"at issued-at", issuedAt, nil},
		{"one second before expiry", issuedAt.Add(899 * time.Second), nil},
		{"at expiry", issuedAt.Add(900 * time.Second), domain.ErrTokenExpired},
		{"after expiry", issuedAt.Add(time.Hour), domain.ErrTokenExpired},
		{"before issued-at", issuedAt.Add(-time.Minute), domain.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codecAt(t, tt.at).Verify(token)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected valid token, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, domain.ErrUnauthenticated) {
				t.Fatalf("expected an authentication failure, got %v", err)
			}
		})
	}
}

func TestJWTCodec_DistinctFailures(t *testing.T) {
	c := codecAt(t, issuedAt.Add(time.Minute))
	_, other := keys(t)

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Issuer:    "customer-api",
		Subject:   "ana@example.com",
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}).SignedString(other)
	if err != nil {
		t.Fatalf("sign foreign token: %v", err)
	}

	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "customer-api",
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}).SignedString([]byte("shared-secret"))
	if err != nil {
		t.Fatalf("sign hmac token: %v", err)
	}

	valid, _ := c.Sign(sampleClaims())
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	wrongIssuer := sampleClaims()
	wrongIssuer.Issuer = "someone-else"
	otherIss, _ := c.Sign(wrongIssuer)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not-a-token", domain.ErrTokenMalformed},
		{"two segments", parts[0] + "." + parts[1], domain.ErrTokenMalformed},
		{"signed by another key", foreign, domain.ErrTokenSignature},
		{"tampered signature", tampered, domain.ErrTokenSignature},
		{"algorithm mismatch", hmac, domain.ErrTokenSignature},
		{"wrong issuer", otherIss, domain.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := c.Verify(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if claims != nil {
				t.Fatalf("expected no claims on failure")
			}
		})
	}
}

func TestJWTCodec_VerifyOnly(t *testing.T) {
	key, _ := keys(t)
	c, err := NewJWTCodec(nil, &key.PublicKey, "customer-api")
	if err != nil {
		t.Fatalf("NewJWTCodec returned error: %v", err)
	}
	if _, err := c.Sign(sampleClaims()); err == nil {
		t.Fatalf("expected Sign to fail without a private key")
	}
	if _, err := NewJWTCodec(key, nil, "customer-api"); err == nil {
		t.Fatalf("expected error without a public key")
	}
}
