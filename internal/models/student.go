package models

import (
	"strings"
	"time"
)

const DefaultDepartment = "General"

// Student is a registry entry linking an institutional student ID to a
// display name, department and optional wallet address. Certificates on
// chain reference the student ID, not this row, so the registry can be
// rebuilt without touching issued credentials.
type Student struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	StudentID    string `json:"student_id" gorm:"not null;size:64" validate:"required,student_id"`
	NormalizedID string `json:"-" gorm:"not null;size:64;uniqueIndex"`
	Department   string `json:"department" gorm:"not null;size:100;default:General;index"`
	Wallet       string `json:"wallet" gorm:"size:42" validate:"omitempty,eth_address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Student) TableName() string {
	return "students"
}

// NormalizeStudentID is the canonical form used for duplicate detection
// and for matching registry rows against on-chain records.
func NormalizeStudentID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
