package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/certchain/credential-service/internal/models"
)

// ErrDuplicateKey is returned when a unique constraint rejects a write.
var ErrDuplicateKey = errors.New("duplicate key")

// StudentRepository manages the local student registry.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByNormalizedID(ctx context.Context, normalizedID string) (*models.Student, error)
	List(ctx context.Context) ([]*models.Student, error)
	ListByDepartment(ctx context.Context, department string) ([]*models.Student, error)
	Departments(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) error
}

// CertificateRepository is the append-only mirror of on-chain issuances.
type CertificateRepository interface {
	Append(ctx context.Context, cert *models.IssuedCertificate) error
	AppendBatch(ctx context.Context, certs []*models.IssuedCertificate) error
	List(ctx context.Context, limit int) ([]*models.IssuedCertificate, error)
	ListByStudentID(ctx context.Context, studentID string) ([]*models.IssuedCertificate, error)
	Count(ctx context.Context) (int64, error)
	CountByMode(ctx context.Context, mode models.IssuanceMode) (int64, error)
}

// EventRepository manages institutional events.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	ListUpcoming(ctx context.Context, from time.Time) ([]*models.Event, error)
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// EventRegistrationRepository manages event seats. Registrations are
// intentionally not cascaded when an event is deleted.
type EventRegistrationRepository interface {
	Create(ctx context.Context, reg *models.EventRegistration) error
	CountByEvent(ctx context.Context, eventID uint) (int64, error)
	ExistsForStudent(ctx context.Context, eventID uint, normalizedStudentID string) (bool, error)
	DeleteByEventAndStudent(ctx context.Context, eventID uint, normalizedStudentID string) (int64, error)
	ListByEvent(ctx context.Context, eventID uint) ([]*models.EventRegistration, error)
	ListByStudent(ctx context.Context, normalizedStudentID string) ([]*models.EventRegistration, error)
	Count(ctx context.Context) (int64, error)
	HottestEvent(ctx context.Context) (uint, int64, error)
}

// NotificationRepository manages the capped notification feed.
type NotificationRepository interface {
	Push(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id uint) error
	MarkAllRead(ctx context.Context) error
	CountUnread(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
	DeleteAll(ctx context.Context) error
}
