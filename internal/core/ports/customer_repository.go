package ports

import (
	"context"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/filter"
)

// Page selects a zero-based window of a sorted result set.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of records skipped before this page.
func (p Page) Offset() int { return p.Number * p.Size }

// CustomerRepository is the credential store. Implementations must enforce
// uniqueness of email and national ID and report violations as
// domain.ErrEmailExists or domain.ErrNationalIDExists.
type CustomerRepository interface {
	Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error

	// FindByID returns a *domain.NotFoundError when the ID is absent.
	FindByID(ctx context.Context, id int64) (*domain.Customer, error)
	// FindByEmail returns domain.ErrCustomerNotFound when no record matches.
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByNationalID(ctx context.Context, nationalID string) (bool, error)

	// Find returns the page of records matching pred sorted by ID, and the
	// total number of matches.
	Find(ctx context.Context, pred filter.Predicate, page Page) ([]*domain.Customer, int64, error)
}

// Pinger reports backend reachability for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}
