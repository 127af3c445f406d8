package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
)

type certificatePostgreSQL struct {
	db *gorm.DB
}

func NewCertificatePostgreSQL(db *gorm.DB) repositories.CertificateRepository {
	return &certificatePostgreSQL{db: db}
}

func (r *certificatePostgreSQL) Append(ctx context.Context, cert *models.IssuedCertificate) error {
	if err := r.db.WithContext(ctx).Create(cert).Error; err != nil {
		return fmt.Errorf("failed to record issuance: %w", err)
	}

	return nil
}

func (r *certificatePostgreSQL) AppendBatch(ctx context.Context, certs []*models.IssuedCertificate) error {
	if len(certs) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&certs).Error; err != nil {
		return fmt.Errorf("failed to record batch issuance: %w", err)
	}

	return nil
}

func (r *certificatePostgreSQL) List(ctx context.Context, limit int) ([]*models.IssuedCertificate, error) {
	query := r.db.WithContext(ctx).Order("issued_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var certs []*models.IssuedCertificate
	if err := query.Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("failed to list issuances: %w", err)
	}

	return certs, nil
}

func (r *certificatePostgreSQL) ListByStudentID(ctx context.Context, studentID string) ([]*models.IssuedCertificate, error) {
	var certs []*models.IssuedCertificate
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("issued_at DESC").
		Find(&certs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list issuances for student: %w", err)
	}

	return certs, nil
}

func (r *certificatePostgreSQL) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.IssuedCertificate{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count issuances: %w", err)
	}

	return count, nil
}

func (r *certificatePostgreSQL) CountByMode(ctx context.Context, mode models.IssuanceMode) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IssuedCertificate{}).
		Where("mode = ?", mode).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count issuances by mode: %w", err)
	}

	return count, nil
}
