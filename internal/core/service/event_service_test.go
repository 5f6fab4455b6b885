package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubEventRepo struct {
	insertErr error
	inserted  []*domain.CustomerEvent
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.CustomerEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

type stubPublisher struct {
	err       error
	published []*domain.CustomerEvent
}

func (p *stubPublisher) Publish(_ context.Context, e *domain.CustomerEvent) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, e)
	return nil
}

func sampleEvent() domain.CustomerEvent {
	return domain.CustomerEvent{
		Type:       domain.EventCustomerUpdated,
		CustomerID: 7,
		Actor:      "ana@example.com",
		OccurredAt: time.Date(2025, 9, 2, 12, 0, 0, 0, time.UTC),
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestEventService_Process_InsertsAndPublishes(t *testing.T) {
	repo := &stubEventRepo{}
	pub := &stubPublisher{}
	svc := NewEventService(repo, pub, zerolog.Nop())

	if err := svc.Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].CustomerID != 7 {
		t.Fatalf("expected event inserted, got %+v", repo.inserted)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected event published, got %d", len(pub.published))
	}
}

func TestEventService_Process_NilPublisher(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewEventService(repo, nil, zerolog.Nop())

	if err := svc.Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected event inserted")
	}
}

func TestEventService_Process_InsertFailure(t *testing.T) {
	repo := &stubEventRepo{insertErr: errors.New("disk full")}
	pub := &stubPublisher{}
	svc := NewEventService(repo, pub, zerolog.Nop())

	if err := svc.Process(context.Background(), sampleEvent()); err == nil {
		t.Fatalf("expected error")
	}
	if len(pub.published) != 0 {
		t.Fatalf("expected nothing published after insert failure")
	}
}

func TestEventService_Process_PublishFailureIsNotFatal(t *testing.T) {
	repo := &stubEventRepo{}
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := NewEventService(repo, pub, zerolog.Nop())

	if err := svc.Process(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
}
