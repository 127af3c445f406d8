package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/certchain/credential-service/internal/events"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
	"github.com/certchain/credential-service/internal/validator"
)

// ===== SERVICE INTERFACE =====

type EventService interface {
	// Event management
	CreateEvent(ctx context.Context, req *models.CreateEventRequest, createdBy string) (*models.Event, error)
	DeleteEvent(ctx context.Context, id uint) error
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	ListEvents(ctx context.Context, upcomingOnly bool) ([]*models.Event, error)

	// Registrations
	RegisterStudent(ctx context.Context, eventID uint, req *models.RegisterForEventRequest) (*models.EventRegistration, error)
	CancelRegistration(ctx context.Context, eventID uint, studentID string) error
	Participants(ctx context.Context, eventID uint) ([]*models.EventRegistration, error)
	ExportParticipantsCSV(ctx context.Context, eventID uint) (*CSVExport, error)
}

// ===== SERVICE IMPLEMENTATION =====

type eventService struct {
	repo          repositories.Repository
	publisher     events.EventPublisher
	notifications NotificationService
	logger        *slog.Logger
	validator     *validator.Validator
	business      *validator.BusinessValidator
}

func NewEventService(repo repositories.Repository, publisher events.EventPublisher, notifications NotificationService, logger *slog.Logger, v *validator.Validator) EventService {
	return &eventService{
		repo:          repo,
		publisher:     publisher,
		notifications: notifications,
		logger:        logger,
		validator:     v,
		business:      validator.NewBusinessValidator(),
	}
}

func (s *eventService) CreateEvent(ctx context.Context, req *models.CreateEventRequest, createdBy string) (*models.Event, error) {
	s.logger.Info("Creating event", "title", req.Title, "created_by", createdBy)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrValidationFailed, req.Date)
	}
	if verrs := s.business.ValidateEventDate(date); len(verrs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, verrs)
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Time:        req.Time,
		Location:    req.Location,
		MaxSeats:    req.MaxSeats,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Event().Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event, nil
}

// DeleteEvent removes the event itself. Registration rows survive so
// attendance history stays queryable.
func (s *eventService) DeleteEvent(ctx context.Context, id uint) error {
	s.logger.Info("Deleting event", "event_id", id)

	if err := s.repo.Event().Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("event %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.repo.Event().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}

	count, err := s.repo.EventRegistration().CountByEvent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	event.RegisteredCount = count

	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, upcomingOnly bool) ([]*models.Event, error) {
	var (
		list []*models.Event
		err  error
	)
	if upcomingOnly {
		today := time.Now().Truncate(24 * time.Hour)
		list, err = s.repo.Event().ListUpcoming(ctx, today)
	} else {
		list, err = s.repo.Event().List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	for _, event := range list {
		count, err := s.repo.EventRegistration().CountByEvent(ctx, event.ID)
		if err != nil {
			s.logger.Error("Failed to count registrations", "error", err, "event_id", event.ID)
			continue
		}
		event.RegisteredCount = count
	}

	return list, nil
}

// RegisterStudent seats a student if the event exists, the student is
// not already registered and a seat is free. The capacity check and the
// insert run in one transaction so a full event never oversells.
func (s *eventService) RegisterStudent(ctx context.Context, eventID uint, req *models.RegisterForEventRequest) (*models.EventRegistration, error) {
	s.logger.Info("Registering for event", "event_id", eventID, "student_id", req.StudentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	var registration *models.EventRegistration
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		event, err := txRepo.Event().GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return fmt.Errorf("event %d: %w", eventID, ErrNotFound)
		}

		normalized := models.NormalizeStudentID(req.StudentID)
		exists, err := txRepo.EventRegistration().ExistsForStudent(ctx, eventID, normalized)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("student %s: %w", req.StudentID, ErrAlreadyRegistered)
		}

		registered, err := txRepo.EventRegistration().CountByEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if verrs := s.business.ValidateRegistrationCapacity(event.MaxSeats, registered); len(verrs) > 0 {
			return fmt.Errorf("event %d: %w", eventID, ErrEventFull)
		}

		contact, err := json.Marshal(req.Contact)
		if err != nil {
			return fmt.Errorf("failed to encode contact info: %w", err)
		}

		registration = &models.EventRegistration{
			EventID:     eventID,
			StudentID:   req.StudentID,
			StudentName: req.StudentName,
			Wallet:      req.Wallet,
			Contact:     contact,
		}
		return txRepo.EventRegistration().Create(ctx, registration)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrAlreadyRegistered) || errors.Is(err, ErrEventFull) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register for event: %w", err)
	}

	event := events.NewEvent(events.TypeEventRegistrationDone, map[string]interface{}{
		"event_id":   eventID,
		"student_id": req.StudentID,
	})
	if err := s.publisher.Publish(ctx, events.TypeEventRegistrationDone, event); err != nil {
		s.logger.Error("Failed to publish registration event", "error", err, "event_id", eventID)
	}
	s.notifications.Notify(ctx, models.NotificationInfo,
		fmt.Sprintf("%s registered for event %d", req.StudentName, eventID))

	return registration, nil
}

// CancelRegistration removes the caller's own registration. Cancelling
// a registration that does not exist is a not-found error.
func (s *eventService) CancelRegistration(ctx context.Context, eventID uint, studentID string) error {
	s.logger.Info("Cancelling event registration", "event_id", eventID, "student_id", studentID)

	affected, err := s.repo.EventRegistration().DeleteByEventAndStudent(ctx, eventID, models.NormalizeStudentID(studentID))
	if err != nil {
		return fmt.Errorf("failed to cancel registration: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("registration for event %d: %w", eventID, ErrNotFound)
	}

	return nil
}

func (s *eventService) Participants(ctx context.Context, eventID uint) ([]*models.EventRegistration, error) {
	event, err := s.repo.Event().GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}

	return s.repo.EventRegistration().ListByEvent(ctx, eventID)
}

func (s *eventService) ExportParticipantsCSV(ctx context.Context, eventID uint) (*CSVExport, error) {
	participants, err := s.Participants(ctx, eventID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"studentId", "name", "wallet", "registeredAt"}); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, p := range participants {
		record := []string{p.StudentID, p.StudentName, p.Wallet, p.RegisteredAt.Format(time.RFC3339)}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}

	return &CSVExport{
		Filename: fmt.Sprintf("event-%d-participants.csv", eventID),
		Content:  buf.Bytes(),
	}, nil
}
