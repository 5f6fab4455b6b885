package domain

import (
	"context"
	"slices"
	"time"
)

// Claims is the verified content of a bearer token.
type Claims struct {
	Subject    string
	Issuer     string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Scopes     []string
	CustomerID int64
}

// HasScope reports whether scope was granted.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// LoginResult is returned to a caller that exchanged credentials for a token.
type LoginResult struct {
	Token      string
	Roles      []string
	ExpiresAt  time.Time
	CustomerID int64
}

// Principal is the identity attached to an authorized request. The zero value
// represents an anonymous caller on a public route.
type Principal struct {
	Subject    string
	Scopes     []string
	CustomerID int64
}

// Anonymous reports whether no token was presented.
func (p Principal) Anonymous() bool { return p.Subject == "" }

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
