package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/core/domain"
	"github.com/99minutos/customer-api/internal/core/ports"
)

type eventService struct {
	eventRepo ports.EventRepository
	publisher ports.EventPublisher
	log       zerolog.Logger
}

// NewEventService returns an EventService that appends each event to the audit
// log and, when publisher is non-nil, forwards it to the broker.
func NewEventService(eventRepo ports.EventRepository, publisher ports.EventPublisher, log zerolog.Logger) ports.EventService {
	return &eventService{eventRepo: eventRepo, publisher: publisher, log: log}
}

// Process persists a single lifecycle event. A broker failure is logged but
// does not fail the event, since the audit log is the system of record.
func (s *eventService) Process(ctx context.Context, event domain.CustomerEvent) error {
	if err := s.eventRepo.InsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("process event: insert: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, &event); err != nil {
			s.log.Warn().Err(err).
				Int64("customer_id", event.CustomerID).
				Str("type", string(event.Type)).
				Msg("failed to publish customer event")
		}
	}

	s.log.Debug().
		Int64("customer_id", event.CustomerID).
		Str("type", string(event.Type)).
		Msg("customer event processed")

	return nil
}
