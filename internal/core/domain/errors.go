package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrBusinessRule     = errors.New("business rule violation")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidDate      = errors.New("invalid date format")
)

// Uniqueness violations. Both match ErrBusinessRule.
var (
	ErrNationalIDExists = fmt.Errorf("%w: National ID already exists", ErrBusinessRule)
	ErrEmailExists      = fmt.Errorf("%w: Email already exists", ErrBusinessRule)
)

// Login failures. ErrUnknownIdentity wraps ErrInvalidCredentials so callers
// outside the authenticator cannot tell the two apart.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownIdentity    = fmt.Errorf("%w: unknown identity", ErrInvalidCredentials)
)

// Authentication and authorization failures raised by the token codec and the gate.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrMissingToken    = fmt.Errorf("%w: missing or invalid bearer token", ErrUnauthenticated)
	ErrTokenMalformed  = fmt.Errorf("%w: token is malformed", ErrUnauthenticated)
	ErrTokenSignature  = fmt.Errorf("%w: token signature is invalid", ErrUnauthenticated)
	ErrTokenExpired    = fmt.Errorf("%w: token is expired", ErrUnauthenticated)
	ErrTokenInvalid    = fmt.Errorf("%w: token is invalid", ErrUnauthenticated)
	ErrAccessDenied    = errors.New("access denied")
	ErrTooManyRequests = errors.New("too many requests")
)

// NotFoundError reports a customer ID that does not exist.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Customer not found with ID: %d", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrCustomerNotFound }

// FieldError is a single failed input constraint.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates every failed constraint of one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	fields := make([]FieldError, len(e.Fields))
	copy(fields, e.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// ArgumentTypeError reports a request parameter that could not be converted.
type ArgumentTypeError struct {
	Name  string
	Value string
	Type  string
}

func (e *ArgumentTypeError) Error() string {
	return fmt.Sprintf("Parameter '%s' with value '%s' is invalid. It must be of type %s", e.Name, e.Value, e.Type)
}
