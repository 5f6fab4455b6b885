package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of civil dates such as a birth date.
const DateLayout = "2006-01-02"

// Role is the closed set of authorities a customer can hold. The numeric value
// is the stable code persisted by the stores.
type Role int

const (
	RoleCustomer Role = 1
	RoleAdmin    Role = 2
)

// ScopePrefix is prepended to a role name to build the token scope.
const ScopePrefix = "SCOPE_"

// RoleFromCode converts a stored role code back to a Role.
func RoleFromCode(code int) (Role, error) {
	switch Role(code) {
	case RoleCustomer, RoleAdmin:
		return Role(code), nil
	default:
		return 0, fmt.Errorf("%w: code %d", ErrInvalidRole, code)
	}
}

// Code returns the value persisted for r.
func (r Role) Code() int { return int(r) }

func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return "ROLE_CUSTOMER"
	case RoleAdmin:
		return "ROLE_ADMIN"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Scope returns the authorization scope granted by r.
func (r Role) Scope() string { return ScopePrefix + r.String() }

// Customer is the single managed entity and the principal that authenticates.
type Customer struct {
	ID           int64
	Name         string
	NationalID   string
	Email        string
	BirthDate    time.Time
	Phone        string
	PasswordHash string `json:"-"`
	Role         Role
}

// Age returns the customer's age in whole years at the given instant.
func (c *Customer) Age(now time.Time) int {
	if c.BirthDate.IsZero() {
		return 0
	}
	y1, m1, d1 := c.BirthDate.Date()
	y2, m2, d2 := now.Date()
	age := y2 - y1
	if m2 < m1 || (m2 == m1 && d2 < d1) {
		age--
	}
	return age
}

// ParseDate parses a yyyy-MM-dd civil date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}
