package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
)

type studentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &studentPostgreSQL{db: db}
}

func (r *studentPostgreSQL) Create(ctx context.Context, student *models.Student) error {
	student.NormalizedID = models.NormalizeStudentID(student.StudentID)
	if student.Department == "" {
		student.Department = models.DefaultDepartment
	}

	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("student %s: %w", student.StudentID, repositories.ErrDuplicateKey)
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

func (r *studentPostgreSQL) GetByNormalizedID(ctx context.Context, normalizedID string) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("normalized_id = ?", normalizedID).
		First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	return &student, nil
}

func (r *studentPostgreSQL) List(ctx context.Context) ([]*models.Student, error) {
	var students []*models.Student
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	return students, nil
}

func (r *studentPostgreSQL) ListByDepartment(ctx context.Context, department string) ([]*models.Student, error) {
	var students []*models.Student
	err := r.db.WithContext(ctx).
		Where("department = ?", department).
		Order("created_at DESC").
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list students by department: %w", err)
	}

	return students, nil
}

func (r *studentPostgreSQL) Departments(ctx context.Context) ([]string, error) {
	var departments []string
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Distinct("department").
		Order("department").
		Pluck("department", &departments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	return departments, nil
}

func (r *studentPostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Student{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}

	return count, nil
}

func (r *studentPostgreSQL) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.Student{}).Error
	if err != nil {
		return fmt.Errorf("failed to wipe registry: %w", err)
	}

	return nil
}

// isUniqueViolation detects unique constraint errors across drivers.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
