package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/ports"
)

var _ ports.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.CustomerEvent) error {
	query := `INSERT INTO customer_events (type, customer_id, actor, occurred_at)
			  VALUES ($1, $2, $3, $4)`

	var actor sql.NullString
	if event.Actor != "" {
		actor = sql.NullString{String: event.Actor, Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, string(event.Type), event.CustomerID, actor, event.OccurredAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert customer event: %w", err)
	}
	return nil
}
