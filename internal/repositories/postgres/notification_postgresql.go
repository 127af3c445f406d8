package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
)

type notificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &notificationPostgreSQL{db: db}
}

// Push inserts a notification and trims the feed back down to the cap,
// oldest rows first.
func (r *notificationPostgreSQL) Push(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(notification).Error; err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}

		var count int64
		if err := tx.Model(&models.Notification{}).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count notifications: %w", err)
		}

		if count > models.MaxNotifications {
			var victims []uint
			err := tx.Model(&models.Notification{}).
				Order("created_at ASC, id ASC").
				Limit(int(count - models.MaxNotifications)).
				Pluck("id", &victims).Error
			if err != nil {
				return fmt.Errorf("failed to select notifications to trim: %w", err)
			}
			if err := tx.Delete(&models.Notification{}, victims).Error; err != nil {
				return fmt.Errorf("failed to trim notifications: %w", err)
			}
		}

		return nil
	})
}

func (r *notificationPostgreSQL) List(ctx context.Context) ([]*models.Notification, error) {
	var notifications []*models.Notification
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

func (r *notificationPostgreSQL) MarkRead(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *notificationPostgreSQL) MarkAllRead(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("read = ?", false).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}

func (r *notificationPostgreSQL) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("read = ?", false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

func (r *notificationPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Notification{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *notificationPostgreSQL) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Notification{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}

	return nil
}
