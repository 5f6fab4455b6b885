package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/filter"
	"github.com/99minutos/customer-api/internal/core/ports"
)

const (
	uniqueViolation = "23505"

	emailConstraint      = "customers_email_key"
	nationalIDConstraint = "customers_national_id_key"

	customerColumns = "id, name, national_id, email, birth_date, phone, password_hash, role"
)

var _ ports.CustomerRepository = (*CustomerRepository)(nil)

type CustomerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	query := `INSERT INTO customers (name, national_id, email, birth_date, phone, password_hash, role)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.NationalID, c.Email, c.BirthDate, c.Phone, c.PasswordHash, c.Role.Code(),
	).Scan(&id)
	if err != nil {
		if dup := uniqueConstraint(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	created := *c
	created.ID = id
	return &created, nil
}

func (r *CustomerRepository) Update(ctx context.Context, c *domain.Customer) (*domain.Customer, error) {
	query := `UPDATE customers
			  SET name = $1, email = $2, birth_date = $3, phone = $4, password_hash = $5, role = $6
			  WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query,
		c.Name, c.Email, c.BirthDate, c.Phone, c.PasswordHash, c.Role.Code(), c.ID,
	)
	if err != nil {
		if dup := uniqueConstraint(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, &domain.NotFoundError{ID: c.ID}
	}

	updated := *c
	return &updated, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := r.findOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if errors.Is(err, domain.ErrCustomerNotFound) {
		return nil, &domain.NotFoundError{ID: id}
	}
	return c, err
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.findOne(ctx, `SELECT `+customerColumns+` FROM customers WHERE email = $1`, email)
}

func (r *CustomerRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`, id)
}

func (r *CustomerRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1)`, email)
}

func (r *CustomerRepository) ExistsByNationalID(ctx context.Context, nationalID string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE national_id = $1)`, nationalID)
}

func (r *CustomerRepository) Find(ctx context.Context, pred filter.Predicate, page ports.Page) ([]*domain.Customer, int64, error) {
	where, args := whereClause(pred)

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	n := len(args)
	query := `SELECT ` + customerColumns + ` FROM customers` + where +
		` ORDER BY id LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find customers: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Customer, 0, page.Size)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return out, total, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomer(s scanner) (*domain.Customer, error) {
	var (
		c    domain.Customer
		role int
	)
	if err := s.Scan(&c.ID, &c.Name, &c.NationalID, &c.Email, &c.BirthDate, &c.Phone, &c.PasswordHash, &role); err != nil {
		return nil, err
	}
	var err error
	if c.Role, err = domain.RoleFromCode(role); err != nil {
		return nil, fmt.Errorf("customer %d: %w", c.ID, err)
	}
	c.BirthDate = c.BirthDate.UTC()
	return &c, nil
}

func (r *CustomerRepository) findOne(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	c, err := scanCustomer(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check customer: %w", err)
	}
	return ok, nil
}

// whereClause renders a predicate as a parameterised WHERE clause. An empty
// predicate yields no clause.
func whereClause(pred filter.Predicate) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for _, cond := range pred.Conditions() {
		switch cond.Op {
		case filter.OpEqual:
			args = append(args, cond.Value)
			parts = append(parts, string(cond.Field)+" = $"+strconv.Itoa(len(args)))
		case filter.OpContainsFold:
			s, _ := cond.Value.(string)
			args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
			parts = append(parts, "LOWER("+string(cond.Field)+") LIKE $"+strconv.Itoa(len(args))+` ESCAPE '\'`)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// uniqueConstraint maps a unique violation to the matching business error.
func uniqueConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case nationalIDConstraint:
		return domain.ErrNationalIDExists
	case emailConstraint:
		return domain.ErrEmailExists
	default:
		return fmt.Errorf("%w: %s", domain.ErrBusinessRule, pgErr.Message)
	}
}
