package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/filter"
	"github.com/99minutos/customer-api/internal/core/ports"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type CustomerService struct {
	repo   ports.CustomerRepository
	hasher ports.PasswordHasher
	events ports.EventRecorder
	now    func() time.Time
	logger zerolog.Logger
}

// NewCustomerService wires the record service. events may be nil, in which
// case lifecycle events are dropped.
func NewCustomerService(
	repo ports.CustomerRepository,
	hasher ports.PasswordHasher,
	events ports.EventRecorder,
	logger zerolog.Logger,
) *CustomerService {
	if events == nil {
		events = discardEvents{}
	}
	return &CustomerService{repo: repo, hasher: hasher, events: events, now: time.Now, logger: logger}
}

// Create registers a customer. National ID uniqueness is checked before email
// and the first violation is returned. The store's unique constraints remain
// the authoritative guard against concurrent registrations.
func (s *CustomerService) Create(ctx context.Context, in ports.CreateCustomerInput) (*domain.Customer, error) {
	taken, err := s.repo.ExistsByNationalID(ctx, in.NationalID)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	if taken {
		return nil, domain.ErrNationalIDExists
	}

	taken, err = s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	if taken {
		return nil, domain.ErrEmailExists
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create customer: hash password: %w", err)
	}

	role := in.Role
	if role == 0 {
		role = domain.RoleCustomer
	}

	created, err := s.repo.Create(ctx, &domain.Customer{
		Name:         in.Name,
		NationalID:   in.NationalID,
		Email:        in.Email,
		BirthDate:    in.BirthDate,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.EventCustomerCreated, created.ID)
	s.logger.Info().Int64("customer_id", created.ID).Str("role", role.String()).Msg("customer created")
	return created, nil
}

// EnsureAdmin provisions an administrator unless a customer with the same
// email already exists. It reports whether a record was created.
func (s *CustomerService) EnsureAdmin(ctx context.Context, in ports.CreateCustomerInput) (bool, error) {
	exists, err := s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return false, fmt.Errorf("ensure admin: %w", err)
	}
	if exists {
		return false, nil
	}

	in.Role = domain.RoleAdmin
	if _, err := s.Create(ctx, in); err != nil {
		return false, fmt.Errorf("ensure admin: %w", err)
	}
	return true, nil
}

func (s *CustomerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.repo.FindByID(ctx, id)
}

// Update replaces the mutable profile fields. National ID and role are kept.
func (s *CustomerService) Update(ctx context.Context, id int64, in ports.UpdateCustomerInput) (*domain.Customer, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	owner, err := s.repo.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && owner.ID != id:
		return nil, domain.ErrEmailExists
	case err != nil && !errors.Is(err, domain.ErrCustomerNotFound):
		return nil, fmt.Errorf("update customer: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("update customer: hash password: %w", err)
	}

	existing.Name = in.Name
	existing.Email = in.Email
	existing.BirthDate = in.BirthDate
	existing.Phone = in.Phone
	existing.PasswordHash = hash

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	s.record(ctx, domain.EventCustomerUpdated, id)
	s.logger.Info().Int64("customer_id", id).Msg("customer updated")
	return updated, nil
}

func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	exists, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if !exists {
		return &domain.NotFoundError{ID: id}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.record(ctx, domain.EventCustomerDeleted, id)
	s.logger.Info().Int64("customer_id", id).Msg("customer deleted")
	return nil
}

// List returns a page of customers matching every supplied filter.
func (s *CustomerService) List(ctx context.Context, in ports.ListCustomersInput) (*ports.CustomerPage, error) {
	page := ports.Page{Number: in.Page, Size: in.Size}
	if page.Number < 0 {
		page.Number = 0
	}
	if page.Size <= 0 {
		page.Size = defaultPageSize
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}

	customers, total, err := s.repo.Find(ctx, filter.Compose(in.Filter), page)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	totalPages := int((total + int64(page.Size) - 1) / int64(page.Size))
	return &ports.CustomerPage{
		Customers:  customers,
		Total:      total,
		Page:       page.Number,
		Size:       page.Size,
		TotalPages: totalPages,
	}, nil
}

func (s *CustomerService) record(ctx context.Context, typ domain.CustomerEventType, id int64) {
	var actor string
	if p, ok := domain.PrincipalFrom(ctx); ok {
		actor = p.Subject
	}
	s.events.Record(domain.CustomerEvent{
		Type:       typ,
		CustomerID: id,
		Actor:      actor,
		OccurredAt: s.now().UTC(),
	})
}

type discardEvents struct{}

func (discardEvents) Record(domain.CustomerEvent) {}
