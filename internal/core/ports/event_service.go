package ports

import (
	"context"

	"github.com/99minutos/customer-api/internal/core/domain"
)

// EventRepository appends lifecycle events to the store's audit log.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.CustomerEvent) error
}

// EventPublisher forwards lifecycle events to an external broker.
type EventPublisher interface {
	Publish(ctx context.Context, event *domain.CustomerEvent) error
}

// EventRecorder accepts lifecycle events for asynchronous handling. Record
// must not block the request path.
type EventRecorder interface {
	Record(event domain.CustomerEvent)
}

// EventService handles a single lifecycle event.
type EventService interface {
	Process(ctx context.Context, event domain.CustomerEvent) error
}
