package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/certchain/credential-service/internal/cache"
	"github.com/certchain/credential-service/internal/chain"
	"github.com/certchain/credential-service/internal/events"
	"github.com/certchain/credential-service/internal/importer"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/pinning"
	"github.com/certchain/credential-service/internal/repositories"
	"github.com/certchain/credential-service/internal/validator"
)

// ===== SERVICE INTERFACE =====

type IssuanceService interface {
	// Issuance operations
	IssueSingle(ctx context.Context, req *models.IssueCertificateRequest, filename string, document io.Reader) (*models.IssuanceReceipt, error)
	IssueBatch(ctx context.Context, rows []models.BatchIssueRow, filename string, document io.Reader) (*models.IssuanceReceipt, error)
	ParseBatchFile(filename string, file io.Reader) ([]models.BatchIssueRow, error)
	Revoke(ctx context.Context, certID string) (string, error)

	// Mirror listings
	ListIssued(ctx context.Context, limit int) ([]*models.IssuedCertificate, error)
}

// ===== SERVICE IMPLEMENTATION =====

type issuanceService struct {
	repo          repositories.Repository
	writer        chain.ContractWriter
	pinner        pinning.Pinner
	cache         *cache.CacheManager
	publisher     events.EventPublisher
	notifications NotificationService
	logger        *slog.Logger
	validator     *validator.Validator
	business      *validator.BusinessValidator
}

func NewIssuanceService(
	repo repositories.Repository,
	writer chain.ContractWriter,
	pinner pinning.Pinner,
	cacheManager *cache.CacheManager,
	publisher events.EventPublisher,
	notifications NotificationService,
	logger *slog.Logger,
	v *validator.Validator,
) IssuanceService {
	return &issuanceService{
		repo:          repo,
		writer:        writer,
		pinner:        pinner,
		cache:         cacheManager,
		publisher:     publisher,
		notifications: notifications,
		logger:        logger,
		validator:     v,
		business:      validator.NewBusinessValidator(),
	}
}

func (s *issuanceService) IssueSingle(ctx context.Context, req *models.IssueCertificateRequest, filename string, document io.Reader) (*models.IssuanceReceipt, error) {
	s.logger.Info("Issuing certificate", "cert_id", req.CertID, "student_id", req.StudentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	contentHash, err := s.pinner.PinFile(ctx, filename, document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinningFailed, err)
	}

	txHash, err := s.writer.IssueCertificate(ctx, req.CertID, contentHash, req.StudentName, req.StudentID, req.Recipient)
	if err != nil {
		return nil, s.wrapChainError(err)
	}

	issuedAt := time.Now()
	record := &models.IssuedCertificate{
		CertID:      req.CertID,
		StudentName: req.StudentName,
		StudentID:   req.StudentID,
		ContentHash: contentHash,
		Recipient:   req.Recipient,
		Mode:        models.IssuanceSingle,
		TxHash:      txHash,
		IssuedAt:    issuedAt,
	}
	if err := s.repo.Certificate().Append(ctx, record); err != nil {
		s.logger.Error("Issuance confirmed on chain but mirror write failed",
			"error", err, "cert_id", req.CertID, "tx_hash", txHash)
	}

	s.ensureRegistered(ctx, req.StudentID, req.StudentName, req.Recipient)

	s.publishIssued(ctx, req.CertID, req.StudentID, txHash, 1)
	s.notifications.Notify(ctx, models.NotificationSuccess,
		fmt.Sprintf("Certificate %s issued to %s", req.CertID, req.StudentName))
	cache.InvalidateRankings(ctx, s.cache)

	return &models.IssuanceReceipt{
		CertID:    req.CertID,
		TxHash:    txHash,
		Count:     1,
		StudentID: req.StudentID,
		IssuedAt:  issuedAt,
	}, nil
}

// IssueBatch issues all rows in one contract transaction. Every row is
// validated before the document is pinned or anything is signed; a
// single bad row aborts the whole batch with no side effects.
func (s *issuanceService) IssueBatch(ctx context.Context, rows []models.BatchIssueRow, filename string, document io.Reader) (*models.IssuanceReceipt, error) {
	s.logger.Info("Issuing certificate batch", "rows", len(rows))

	if verrs := s.business.ValidateBatchRows(rows); len(verrs) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, verrs)
	}

	contentHash, err := s.pinner.PinFile(ctx, filename, document)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPinningFailed, err)
	}

	txHash, err := s.writer.IssueBatch(ctx, rows, contentHash)
	if err != nil {
		return nil, s.wrapChainError(err)
	}

	issuedAt := time.Now()
	records := make([]*models.IssuedCertificate, 0, len(rows))
	for _, row := range rows {
		records = append(records, &models.IssuedCertificate{
			CertID:      row.CertID,
			StudentName: row.StudentName,
			StudentID:   row.StudentID,
			ContentHash: contentHash,
			Recipient:   row.Recipient,
			Mode:        models.IssuanceBatch,
			TxHash:      txHash,
			IssuedAt:    issuedAt,
		})
	}
	if err := s.repo.Certificate().AppendBatch(ctx, records); err != nil {
		s.logger.Error("Batch confirmed on chain but mirror write failed",
			"error", err, "tx_hash", txHash)
	}

	for _, row := range rows {
		s.ensureRegistered(ctx, row.StudentID, row.StudentName, row.Recipient)
	}

	s.publishIssued(ctx, "", "", txHash, len(rows))
	s.notifications.Notify(ctx, models.NotificationSuccess,
		fmt.Sprintf("Batch of %d certificates issued", len(rows)))
	cache.InvalidateRankings(ctx, s.cache)

	return &models.IssuanceReceipt{
		TxHash:   txHash,
		Count:    len(rows),
		IssuedAt: issuedAt,
	}, nil
}

// ParseBatchFile reads an issuance spreadsheet into batch rows. Column
// resolution errors surface as validation failures naming the column.
func (s *issuanceService) ParseBatchFile(filename string, file io.Reader) ([]models.BatchIssueRow, error) {
	parsed, err := importer.Read(file, filename, importer.IssuanceColumns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	rows := make([]models.BatchIssueRow, 0, len(parsed))
	for _, row := range parsed {
		rows = append(rows, models.BatchIssueRow{
			CertID:      row[importer.FieldCertID],
			StudentName: row[importer.FieldName],
			StudentID:   row[importer.FieldStudentID],
			Recipient:   row[importer.FieldWallet],
		})
	}

	return rows, nil
}

func (s *issuanceService) Revoke(ctx context.Context, certID string) (string, error) {
	s.logger.Info("Revoking certificate", "cert_id", certID)

	if strings.TrimSpace(certID) == "" {
		return "", fmt.Errorf("%w: certificate ID is required", ErrValidationFailed)
	}

	txHash, err := s.writer.RevokeCertificate(ctx, certID)
	if err != nil {
		return "", s.wrapChainError(err)
	}

	event := events.NewEvent(events.TypeCertificateRevoked, map[string]interface{}{
		"cert_id": certID,
		"tx_hash": txHash,
	})
	if err := s.publisher.Publish(ctx, events.TypeCertificateRevoked, event); err != nil {
		s.logger.Error("Failed to publish revocation event", "error", err, "cert_id", certID)
	}

	s.notifications.Notify(ctx, models.NotificationWarning,
		fmt.Sprintf("Certificate %s revoked", certID))
	cache.InvalidateCertificate(ctx, s.cache, certID)
	cache.InvalidateRankings(ctx, s.cache)

	return txHash, nil
}

func (s *issuanceService) ListIssued(ctx context.Context, limit int) ([]*models.IssuedCertificate, error) {
	return s.repo.Certificate().List(ctx, limit)
}

// ensureRegistered backfills the registry for students first seen via an
// issuance. Existing entries are left untouched.
func (s *issuanceService) ensureRegistered(ctx context.Context, studentID, studentName, wallet string) {
	existing, err := s.repo.Student().GetByNormalizedID(ctx, models.NormalizeStudentID(studentID))
	if err != nil {
		s.logger.Error("Failed to check registry", "error", err, "student_id", studentID)
		return
	}
	if existing != nil {
		return
	}

	student := &models.Student{
		Name:       studentName,
		StudentID:  studentID,
		Department: models.DefaultDepartment,
		Wallet:     wallet,
	}
	if err := s.repo.Student().Create(ctx, student); err != nil && !errors.Is(err, repositories.ErrDuplicateKey) {
		s.logger.Error("Failed to auto-register student", "error", err, "student_id", studentID)
	}
}

func (s *issuanceService) publishIssued(ctx context.Context, certID, studentID, txHash string, count int) {
	event := events.NewEvent(events.TypeCertificateIssued, map[string]interface{}{
		"cert_id":    certID,
		"student_id": studentID,
		"tx_hash":    txHash,
		"count":      count,
	})
	if err := s.publisher.Publish(ctx, events.TypeCertificateIssued, event); err != nil {
		s.logger.Error("Failed to publish issuance event", "error", err, "tx_hash", txHash)
	}
}

func (s *issuanceService) wrapChainError(err error) error {
	if errors.Is(err, chain.ErrChainUnavailable) || errors.Is(err, chain.ErrWrongNetwork) {
		return fmt.Errorf("%w: %v", ErrChainUnavailable, err)
	}
	return fmt.Errorf("contract call failed: %w", err)
}
