package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/ports"
)

const eventsCollection = "customer_events"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{coll: db.Collection(eventsCollection), now: time.Now}
}

// InsertEvent appends a lifecycle event to the customer_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.CustomerEvent) error {
	doc := bson.M{
		"type":         string(event.Type),
		"customer_id":  event.CustomerID,
		"occurred_at":  event.OccurredAt.UTC(),
		"processed_at": r.now().UTC(),
	}
	if event.Actor != "" {
		doc["actor"] = event.Actor
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert customer event: %w", err)
	}
	return nil
}
