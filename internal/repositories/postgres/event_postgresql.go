package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
)

type eventPostgreSQL struct {
	db *gorm.DB
}

func NewEventPostgreSQL(db *gorm.DB) repositories.EventRepository {
	return &eventPostgreSQL{db: db}
}

func (r *eventPostgreSQL) Create(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	return nil
}

func (r *eventPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).First(&event, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return &event, nil
}

func (r *eventPostgreSQL) List(ctx context.Context) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

func (r *eventPostgreSQL) ListUpcoming(ctx context.Context, from time.Time) ([]*models.Event, error) {
	var events []*models.Event
	err := r.db.WithContext(ctx).
		Where("date >= ?", from).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}

	return events, nil
}

// Delete removes the event only. Registrations are kept on purpose so
// attendance history survives.
func (r *eventPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Event{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *eventPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Event{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	return count, nil
}

// ===== REGISTRATIONS =====

type eventRegistrationPostgreSQL struct {
	db *gorm.DB
}

func NewEventRegistrationPostgreSQL(db *gorm.DB) repositories.EventRegistrationRepository {
	return &eventRegistrationPostgreSQL{db: db}
}

func (r *eventRegistrationPostgreSQL) Create(ctx context.Context, reg *models.EventRegistration) error {
	if reg.RegisteredAt.IsZero() {
		reg.RegisteredAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(reg).Error; err != nil {
		return fmt.Errorf("failed to create registration: %w", err)
	}

	return nil
}

func (r *eventRegistrationPostgreSQL) CountByEvent(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EventRegistration{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	return count, nil
}

func (r *eventRegistrationPostgreSQL) ExistsForStudent(ctx context.Context, eventID uint, normalizedStudentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.EventRegistration{}).
		Where("event_id = ? AND UPPER(student_id) = ?", eventID, normalizedStudentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}

	return count > 0, nil
}

func (r *eventRegistrationPostgreSQL) DeleteByEventAndStudent(ctx context.Context, eventID uint, normalizedStudentID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND UPPER(student_id) = ?", eventID, normalizedStudentID).
		Delete(&models.EventRegistration{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cancel registration: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *eventRegistrationPostgreSQL) ListByEvent(ctx context.Context, eventID uint) ([]*models.EventRegistration, error) {
	var regs []*models.EventRegistration
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("registered_at ASC").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}

	return regs, nil
}

func (r *eventRegistrationPostgreSQL) ListByStudent(ctx context.Context, normalizedStudentID string) ([]*models.EventRegistration, error) {
	var regs []*models.EventRegistration
	err := r.db.WithContext(ctx).
		Where("UPPER(student_id) = ?", normalizedStudentID).
		Order("registered_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list student registrations: %w", err)
	}

	return regs, nil
}

func (r *eventRegistrationPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EventRegistration{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	return count, nil
}

// HottestEvent returns the event with the most registrations. Zero ID
// means there are no registrations at all.
func (r *eventRegistrationPostgreSQL) HottestEvent(ctx context.Context) (uint, int64, error) {
	var row struct {
		EventID uint
		Total   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.EventRegistration{}).
		Select("event_id, COUNT(*) as total").
		Group("event_id").
		Order("total DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to find hottest event: %w", err)
	}

	return row.EventID, row.Total, nil
}
