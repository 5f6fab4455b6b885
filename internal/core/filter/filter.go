// Package filter composes the narrowing predicate used by customer searches.
//
// A Predicate is a conjunction of Conditions. Each store adapter renders it in
// its own query language; Match evaluates it in memory.
package filter

import (
	"strings"
	"time"

	"github.com/99minutos/customer-api/internal/core/domain"
)

// Field identifies a searchable customer attribute.
type Field string

const (
	FieldName       Field = "name"
	FieldNationalID Field = "national_id"
	FieldEmail      Field = "email"
	FieldBirthDate  Field = "birth_date"
	FieldPhone      Field = "phone"
)

// Op is the comparison applied by a Condition.
type Op int

const (
	// OpTrue matches every record.
	OpTrue Op = iota
	// OpEqual matches an exact value.
	OpEqual
	// OpContainsFold matches a case-insensitive substring.
	OpContainsFold
)

// Condition is a single predicate over one field. Value is a string for every
// field except FieldBirthDate, which carries a time.Time.
type Condition struct {
	Field Field
	Op    Op
	Value any
}

// True is the tautological condition.
func True() Condition { return Condition{Op: OpTrue} }

// NameContains matches names containing s, ignoring case.
func NameContains(s string) Condition {
	if strings.TrimSpace(s) == "" {
		return True()
	}
	return Condition{Field: FieldName, Op: OpContainsFold, Value: s}
}

// NationalIDEquals matches an exact national ID.
func NationalIDEquals(s string) Condition { return equals(FieldNationalID, s) }

// EmailEquals matches an exact email.
func EmailEquals(s string) Condition { return equals(FieldEmail, s) }

// PhoneEquals matches an exact phone number.
func PhoneEquals(s string) Condition { return equals(FieldPhone, s) }

// BirthDateEquals matches an exact birth date. The zero time is a no-op.
func BirthDateEquals(t time.Time) Condition {
	if t.IsZero() {
		return True()
	}
	return Condition{Field: FieldBirthDate, Op: OpEqual, Value: t}
}

func equals(f Field, s string) Condition {
	if strings.TrimSpace(s) == "" {
		return True()
	}
	return Condition{Field: f, Op: OpEqual, Value: s}
}

// Predicate is the conjunction of its conditions. The zero value matches everything.
type Predicate struct {
	conds []Condition
}

// And combines conditions into a Predicate.
func And(conds ...Condition) Predicate {
	return Predicate{}.And(conds...)
}

// And returns a new predicate narrowed by conds. Tautologies are dropped.
func (p Predicate) And(conds ...Condition) Predicate {
	out := make([]Condition, 0, len(p.conds)+len(conds))
	out = append(out, p.conds...)
	for _, c := range conds {
		if c.Op == OpTrue {
			continue
		}
		out = append(out, c)
	}
	return Predicate{conds: out}
}

// Conditions returns the non-trivial conditions in insertion order.
func (p Predicate) Conditions() []Condition {
	return append([]Condition(nil), p.conds...)
}

// IsEmpty reports whether p matches every record.
func (p Predicate) IsEmpty() bool { return len(p.conds) == 0 }

// Match evaluates p against c.
func (p Predicate) Match(c *domain.Customer) bool {
	for _, cond := range p.conds {
		if !cond.Match(c) {
			return false
		}
	}
	return true
}

// Match evaluates a single condition against c.
func (cond Condition) Match(c *domain.Customer) bool {
	switch cond.Op {
	case OpTrue:
		return true
	case OpContainsFold:
		s, _ := cond.Value.(string)
		return strings.Contains(strings.ToLower(fieldString(c, cond.Field)), strings.ToLower(s))
	case OpEqual:
		if cond.Field == FieldBirthDate {
			t, _ := cond.Value.(time.Time)
			return c.BirthDate.Equal(t)
		}
		s, _ := cond.Value.(string)
		return fieldString(c, cond.Field) == s
	}
	return false
}

func fieldString(c *domain.Customer, f Field) string {
	switch f {
	case FieldName:
		return c.Name
	case FieldNationalID:
		return c.NationalID
	case FieldEmail:
		return c.Email
	case FieldPhone:
		return c.Phone
	case FieldBirthDate:
		return c.BirthDate.Format(domain.DateLayout)
	}
	return ""
}

// Params are the optional search inputs accepted by the customer listing.
type Params struct {
	Name       string
	NationalID string
	Email      string
	BirthDate  time.Time
	Phone      string
}

// Compose maps every parameter to its condition and joins them with AND.
func Compose(p Params) Predicate {
	return And(
		NameContains(p.Name),
		NationalIDEquals(p.NationalID),
		EmailEquals(p.Email),
		BirthDateEquals(p.BirthDate),
		PhoneEquals(p.Phone),
	)
}
