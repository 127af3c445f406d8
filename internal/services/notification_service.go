package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/certchain/credential-service/internal/events"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
)

// ===== SERVICE INTERFACE =====

type NotificationService interface {
	// Notify records a notification and publishes the envelope. It
	// never fails the caller; delivery problems are logged.
	Notify(ctx context.Context, notificationType models.NotificationType, message string)

	List(ctx context.Context) ([]*models.Notification, error)
	UnreadCount(ctx context.Context) (int64, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id uint) error
	Clear(ctx context.Context) error
}

// ===== SERVICE IMPLEMENTATION =====

type notificationService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewNotificationService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, notificationType models.NotificationType, message string) {
	notification := &models.Notification{
		Message: message,
		Type:    notificationType,
	}
	if err := s.repo.Notification().Push(ctx, notification); err != nil {
		s.logger.Error("Failed to store notification", "error", err, "message", message)
		return
	}

	event := events.NewEvent(events.TypeSystemNotification, map[string]interface{}{
		"id":      notification.ID,
		"type":    string(notificationType),
		"message": message,
	})
	if err := s.publisher.Publish(ctx, events.TypeSystemNotification, event); err != nil {
		s.logger.Error("Failed to publish notification event", "error", err, "notification_id", notification.ID)
	}
}

func (s *notificationService) List(ctx context.Context) ([]*models.Notification, error) {
	return s.repo.Notification().List(ctx)
}

func (s *notificationService) UnreadCount(ctx context.Context) (int64, error) {
	return s.repo.Notification().CountUnread(ctx)
}

func (s *notificationService) MarkRead(ctx context.Context, id uint) error {
	if err := s.repo.Notification().MarkRead(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context) error {
	return s.repo.Notification().MarkAllRead(ctx)
}

func (s *notificationService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Notification().Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notification %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

func (s *notificationService) Clear(ctx context.Context) error {
	return s.repo.Notification().DeleteAll(ctx)
}
