package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/certchain/credential-service/internal/events"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/validator"
)

func newEventFixture() (EventService, *memoryRepository, *events.MockEventPublisher) {
	logger := testLogger()
	repo := newMemoryRepository()
	publisher := events.NewMockEventPublisher(logger)
	notifications := NewNotificationService(repo, publisher, logger)
	service := NewEventService(repo, publisher, notifications, logger, validator.New())
	return service, repo, publisher
}

func futureDate() string {
	return time.Now().AddDate(0, 0, 7).Format("2006-01-02")
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newEventFixture()

	t.Run("creates a future event", func(t *testing.T) {
		seats := 30
		event, err := service.CreateEvent(ctx, &models.CreateEventRequest{
			Title:    "Chain Workshop",
			Date:     futureDate(),
			Location: "Auditorium",
			MaxSeats: &seats,
		}, "admin")
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if event.ID == 0 {
			t.Error("Expected an ID after creation")
		}
		if event.CreatedBy != "admin" {
			t.Errorf("Expected creator admin, got %s", event.CreatedBy)
		}
	})

	t.Run("rejects past dates", func(t *testing.T) {
		_, err := service.CreateEvent(ctx, &models.CreateEventRequest{
			Title: "Retro Event",
			Date:  "2020-01-01",
		}, "admin")
		if !errors.Is(err, ErrValidationFailed) {
			t.Errorf("Expected ErrValidationFailed, got %v", err)
		}
	})
}

func TestEventService_RegisterStudent(t *testing.T) {
	ctx := context.Background()
	service, _, publisher := newEventFixture()

	seats := 1
	event, err := service.CreateEvent(ctx, &models.CreateEventRequest{
		Title:    "Limited Seminar",
		Date:     futureDate(),
		MaxSeats: &seats,
	}, "admin")
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	first := &models.RegisterForEventRequest{StudentID: "E-1", StudentName: "Alice"}
	if _, err := service.RegisterStudent(ctx, event.ID, first); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}

	t.Run("full event rejects further registrations", func(t *testing.T) {
		second := &models.RegisterForEventRequest{StudentID: "E-2", StudentName: "Bob"}
		_, err := service.RegisterStudent(ctx, event.ID, second)
		if !errors.Is(err, ErrEventFull) {
			t.Errorf("Expected ErrEventFull, got %v", err)
		}
	})

	t.Run("duplicate registration is rejected case-insensitively", func(t *testing.T) {
		dup := &models.RegisterForEventRequest{StudentID: "e-1", StudentName: "Alice"}
		_, err := service.RegisterStudent(ctx, event.ID, dup)
		if !errors.Is(err, ErrAlreadyRegistered) {
			t.Errorf("Expected ErrAlreadyRegistered, got %v", err)
		}
	})

	t.Run("unknown event is not found", func(t *testing.T) {
		req := &models.RegisterForEventRequest{StudentID: "E-3", StudentName: "Carol"}
		_, err := service.RegisterStudent(ctx, 9999, req)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("confirmation event is published", func(t *testing.T) {
		var saw bool
		for _, e := range publisher.GetPublishedEvents() {
			if e.Type == events.TypeEventRegistrationDone {
				saw = true
			}
		}
		if !saw {
			t.Error("Expected an event.registration_confirmed event")
		}
	})
}

func TestEventService_CancelRegistration(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newEventFixture()

	event, err := service.CreateEvent(ctx, &models.CreateEventRequest{
		Title: "Open Meetup",
		Date:  futureDate(),
	}, "admin")
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	req := &models.RegisterForEventRequest{StudentID: "C-1", StudentName: "Alice"}
	if _, err := service.RegisterStudent(ctx, event.ID, req); err != nil {
		t.Fatalf("RegisterStudent failed: %v", err)
	}

	if err := service.CancelRegistration(ctx, event.ID, "c-1"); err != nil {
		t.Fatalf("CancelRegistration failed: %v", err)
	}

	if err := service.CancelRegistration(ctx, event.ID, "C-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for a second cancellation, got %v", err)
	}
}

func TestEventService_DeleteEventKeepsRegistrations(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newEventFixture()

	event, err := service.CreateEvent(ctx, &models.CreateEventRequest{
		Title: "Doomed Event",
		Date:  futureDate(),
	}, "admin")
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	req := &models.RegisterForEventRequest{StudentID: "D-1", StudentName: "Alice"}
	if _, err := service.RegisterStudent(ctx, event.ID, req); err != nil {
		t.Fatalf("RegisterStudent failed: %v", err)
	}

	if err := service.DeleteEvent(ctx, event.ID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}

	count, _ := repo.EventRegistration().CountByEvent(ctx, event.ID)
	if count != 1 {
		t.Errorf("Expected registrations to survive deletion, got %d", count)
	}
}
