//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/filter"
	"github.com/99minutos/customer-api/internal/core/ports"
	repo "github.com/99minutos/customer-api/internal/infrastructure/db/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "customer_api_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/customer_api_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := repo.Open(ctx, repo.Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repo.EnsureSchema(ctx, db))
	require.NoError(t, repo.EnsureSchema(ctx, db))
	return db
}

func TestCustomerRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	customers := repo.NewCustomerRepository(db)

	birth := time.Date(1990, 1, 15, 0, 0, 0, 0, time.UTC)
	created, err := customers.Create(ctx, &domain.Customer{
		Name: "Maria Silva", NationalID: "52998224725", Email: "maria@example.com",
		BirthDate: birth, Phone: "11987654321", PasswordHash: "hash", Role: domain.RoleAdmin,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = customers.Create(ctx, &domain.Customer{
		Name: "Other", NationalID: "52998224725", Email: "other@example.com",
		BirthDate: birth, Phone: "11987654321", PasswordHash: "hash", Role: domain.RoleCustomer,
	})
	require.ErrorIs(t, err, domain.ErrNationalIDExists)

	_, err = customers.Create(ctx, &domain.Customer{
		Name: "Other", NationalID: "11144477735", Email: "maria@example.com",
		BirthDate: birth, Phone: "11987654321", PasswordHash: "hash", Role: domain.RoleCustomer,
	})
	require.ErrorIs(t, err, domain.ErrEmailExists)

	got, err := customers.FindByEmail(ctx, "maria@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.True(t, got.BirthDate.Equal(birth))

	page, total, err := customers.Find(ctx, filter.Compose(filter.Params{Name: "SILVA"}), ports.Page{Number: 0, Size: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, page, 1)

	got.Name = "Maria Souza"
	_, err = customers.Update(ctx, got)
	require.NoError(t, err)

	require.NoError(t, customers.Delete(ctx, created.ID))
	ok, err := customers.ExistsByID(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, ok)

	events := repo.NewEventRepository(db)
	require.NoError(t, events.InsertEvent(ctx, &domain.CustomerEvent{
		Type: domain.EventCustomerDeleted, CustomerID: created.ID, OccurredAt: time.Now(),
	}))
}
