package models

import "time"

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// MaxNotifications caps the feed; older rows are trimmed on insert.
const MaxNotifications = 50

type Notification struct {
	ID      uint             `json:"id" gorm:"primaryKey"`
	Message string           `json:"message" gorm:"not null;size:500" validate:"required,min=1,max=500"`
	Type    NotificationType `json:"type" gorm:"not null;size:16;default:info" validate:"omitempty,oneof=success info warning error"`
	Read    bool             `json:"read" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Notification) TableName() string {
	return "notifications"
}
