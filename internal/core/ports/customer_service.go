package ports

import (
	"context"
	"time"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/filter"
)

// CreateCustomerInput carries a validated registration request. Role is left
// zero by the public endpoint and defaults to domain.RoleCustomer.
type CreateCustomerInput struct {
	Name       string
	NationalID string
	Email      string
	BirthDate  time.Time
	Phone      string
	Password   string
	Role       domain.Role
}

// UpdateCustomerInput carries the mutable profile fields.
type UpdateCustomerInput struct {
	Name      string
	Email     string
	BirthDate time.Time
	Phone     string
	Password  string
}

// ListCustomersInput combines search filters with pagination.
type ListCustomersInput struct {
	Filter filter.Params
	Page   int
	Size   int
}

// CustomerPage is one page of a customer listing.
type CustomerPage struct {
	Customers  []*domain.Customer
	Total      int64
	Page       int
	Size       int
	TotalPages int
}

type CustomerService interface {
	Create(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error)
	Get(ctx context.Context, id int64) (*domain.Customer, error)
	Update(ctx context.Context, id int64, in UpdateCustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, in ListCustomersInput) (*CustomerPage, error)
}
