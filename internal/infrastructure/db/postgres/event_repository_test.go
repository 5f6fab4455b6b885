package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/customer-api/internal/core/domain"
)

func TestEventRepository_InsertEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customer_events")).
		WithArgs("customer.created", int64(3), nil, at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO customer_events")).
		WithArgs("customer.deleted", int64(3), "admin@example.com", at).
		WillReturnResult(sqlmock.NewResult(2, 1))

	repo := NewEventRepository(db)
	require.NoError(t, repo.InsertEvent(context.Background(), &domain.CustomerEvent{
		Type: domain.EventCustomerCreated, CustomerID: 3, OccurredAt: at,
	}))
	require.NoError(t, repo.InsertEvent(context.Background(), &domain.CustomerEvent{
		Type: domain.EventCustomerDeleted, CustomerID: 3, Actor: "admin@example.com", OccurredAt: at,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
