package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event is an institutional event (workshop, ceremony, hackathon) that
// students can register for. MaxSeats nil means unlimited capacity.
type Event struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string   `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Date        time.Time `json:"date" gorm:"not null;index" validate:"required"`
	Time        string    `json:"time" gorm:"size:16"`
	Location    string    `json:"location" gorm:"size:200"`
	MaxSeats    *int      `json:"max_seats" validate:"omitempty,min=1"`

	CreatedBy string         `json:"created_by" gorm:"size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Computed, not stored
	RegisteredCount int64 `json:"registered_count" gorm:"-"`
}

func (Event) TableName() string {
	return "events"
}

// EventRegistration records a student's seat at an event. Registrations
// survive event deletion so attendance history is never lost.
type EventRegistration struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	EventID      uint           `json:"event_id" gorm:"not null;index:idx_event_student,priority:1"`
	StudentID    string         `json:"student_id" gorm:"not null;size:64;index:idx_event_student,priority:2"`
	StudentName  string         `json:"student_name" gorm:"not null;size:200"`
	Wallet       string         `json:"wallet" gorm:"size:42"`
	Contact      datatypes.JSON `json:"contact"`
	RegisteredAt time.Time      `json:"registered_at"`

	CreatedAt time.Time `json:"created_at"`
}

func (EventRegistration) TableName() string {
	return "event_registrations"
}
