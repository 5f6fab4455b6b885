package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/filter"
	"github.com/99minutos/customer-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCustomerRepo struct {
	mu        sync.Mutex
	customers map[int64]*domain.Customer
	nextID    int64
	writes    int
	findErr   error
}

func newStubCustomerRepo(seed ...*domain.Customer) *stubCustomerRepo {
	r := &stubCustomerRepo{customers: make(map[int64]*domain.Customer)}
	for _, c := range seed {
		clone := *c
		if clone.ID == 0 {
			r.nextID++
			clone.ID = r.nextID
		} else if clone.ID > r.nextID {
			r.nextID = clone.ID
		}
		r.customers[clone.ID] = &clone
	}
	return r
}

func cloneCustomer(c *domain.Customer) *domain.Customer {
	clone := *c
	return &clone
}

func (r *stubCustomerRepo) Create(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	r.nextID++
	stored := cloneCustomer(c)
	stored.ID = r.nextID
	r.customers[stored.ID] = stored
	return cloneCustomer(stored), nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *domain.Customer) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; !ok {
		return nil, &domain.NotFoundError{ID: c.ID}
	}
	r.writes++
	r.customers[c.ID] = cloneCustomer(c)
	return cloneCustomer(c), nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	delete(r.customers, id)
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id int64) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, &domain.NotFoundError{ID: id}
	}
	return cloneCustomer(c), nil
}

func (r *stubCustomerRepo) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, c := range r.customers {
		if c.Email == email {
			return cloneCustomer(c), nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *stubCustomerRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.customers[id]
	return ok, nil
}

func (r *stubCustomerRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCustomerRepo) ExistsByNationalID(_ context.Context, nationalID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.NationalID == nationalID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubCustomerRepo) Find(_ context.Context, pred filter.Predicate, page ports.Page) ([]*domain.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*domain.Customer
	for _, c := range r.customers {
		if pred.Match(c) {
			matched = append(matched, cloneCustomer(c))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := min(page.Offset(), len(matched))
	end := min(start+page.Size, len(matched))
	return matched[start:end], total, nil
}

// stubHasher marks hashes with a prefix so tests can tell them from plaintext.
type stubHasher struct{}

func (stubHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (stubHasher) Verify(hash, password string) bool { return hash == "hashed:"+password }

// stubCodec keeps issued claims in memory and hands out opaque tokens.
type stubCodec struct {
	mu     sync.Mutex
	issued map[string]domain.Claims
}

func newStubCodec() *stubCodec { return &stubCodec{issued: make(map[string]domain.Claims)} }

func (c *stubCodec) Sign(claims domain.Claims) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token := fmt.Sprintf("token-%d-%s", len(c.issued)+1, strings.ToLower(claims.Subject))
	c.issued[token] = claims
	return token, nil
}

func (c *stubCodec) Verify(token string) (*domain.Claims, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	claims, ok := c.issued[token]
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	return &claims, nil
}

type stubRecorder struct {
	mu     sync.Mutex
	events []domain.CustomerEvent
}

func (r *stubRecorder) Record(e domain.CustomerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}
