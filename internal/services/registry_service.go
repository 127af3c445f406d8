package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/certchain/credential-service/internal/cache"
	"github.com/certchain/credential-service/internal/events"
	"github.com/certchain/credential-service/internal/importer"
	"github.com/certchain/credential-service/internal/models"
	"github.com/certchain/credential-service/internal/repositories"
	"github.com/certchain/credential-service/internal/validator"
)

// ===== SERVICE INTERFACE =====

type RegistryService interface {
	// Core registry operations
	Register(ctx context.Context, req *models.RegisterStudentRequest) (*models.Student, error)
	BulkImport(ctx context.Context, filename string, file io.Reader) (*models.BulkImportResult, error)
	Get(ctx context.Context, studentID string) (*models.Student, error)
	List(ctx context.Context, department string) ([]*models.Student, error)
	Departments(ctx context.Context) ([]string, error)
	Wipe(ctx context.Context) error

	// Export
	ExportCSV(ctx context.Context) (*CSVExport, error)
	TemplateCSV() *CSVExport
}

// ===== SERVICE IMPLEMENTATION =====

type registryService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewRegistryService(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) RegistryService {
	return &registryService{
		repo:      repo,
		cache:     cacheManager,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

func (s *registryService) Register(ctx context.Context, req *models.RegisterStudentRequest) (*models.Student, error) {
	s.logger.Info("Registering student", "student_id", req.StudentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	student := &models.Student{
		Name:       req.Name,
		StudentID:  req.StudentID,
		Department: req.Department,
		Wallet:     req.Wallet,
	}

	if err := s.repo.Student().Create(ctx, student); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("student ID %s: %w", req.StudentID, ErrDuplicateStudent)
		}
		return nil, fmt.Errorf("failed to register student: %w", err)
	}

	s.publishRegistered(ctx, student)
	cache.InvalidateRankings(ctx, s.cache)

	return student, nil
}

// BulkImport merges a registry file into the store. Rows whose student
// ID is already registered are skipped, not errors; the whole file is
// applied in one transaction.
func (s *registryService) BulkImport(ctx context.Context, filename string, file io.Reader) (*models.BulkImportResult, error) {
	s.logger.Info("Importing registry file", "filename", filename)

	rows, err := importer.Read(file, filename, importer.RegistryColumns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	result := &models.BulkImportResult{TotalRows: len(rows)}
	var imported []*models.Student

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		for _, row := range rows {
			studentID := row[importer.FieldStudentID]
			if studentID == "" {
				result.Skipped++
				continue
			}

			existing, err := txRepo.Student().GetByNormalizedID(ctx, models.NormalizeStudentID(studentID))
			if err != nil {
				return err
			}
			if existing != nil {
				result.Skipped++
				continue
			}

			student := &models.Student{
				Name:       row[importer.FieldName],
				StudentID:  studentID,
				Department: row[importer.FieldDepartment],
				Wallet:     row[importer.FieldWallet],
			}
			if err := txRepo.Student().Create(ctx, student); err != nil {
				if errors.Is(err, repositories.ErrDuplicateKey) {
					result.Skipped++
					continue
				}
				return err
			}

			result.Imported++
			imported = append(imported, student)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import registry file: %w", err)
	}

	for _, student := range imported {
		s.publishRegistered(ctx, student)
	}
	if result.Imported > 0 {
		cache.InvalidateRankings(ctx, s.cache)
	}

	s.logger.Info("Registry import finished",
		"total", result.TotalRows, "imported", result.Imported, "skipped", result.Skipped)

	return result, nil
}

func (s *registryService) Get(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.repo.Student().GetByNormalizedID(ctx, models.NormalizeStudentID(studentID))
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}

	return student, nil
}

func (s *registryService) List(ctx context.Context, department string) ([]*models.Student, error) {
	if department != "" {
		return s.repo.Student().ListByDepartment(ctx, department)
	}
	return s.repo.Student().List(ctx)
}

func (s *registryService) Departments(ctx context.Context) ([]string, error) {
	return s.repo.Student().Departments(ctx)
}

func (s *registryService) Wipe(ctx context.Context) error {
	s.logger.Warn("Wiping student registry")

	if err := s.repo.Student().DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to wipe registry: %w", err)
	}

	cache.InvalidateRankings(ctx, s.cache)

	return nil
}

// ExportCSV writes the registry in the batch issuance layout, one
// generated certificate ID per student, ready to feed back into a
// batch issuance.
func (s *registryService) ExportCSV(ctx context.Context) (*CSVExport, error) {
	students, err := s.repo.Student().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export registry: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "name", "studentId", "recipient"}); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}

	now := time.Now()
	for i, student := range students {
		certID := fmt.Sprintf("CERT-%d-%03d", now.Unix(), i+1)
		record := []string{certID, student.Name, student.StudentID, student.Wallet}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}

	return &CSVExport{
		Filename: fmt.Sprintf("registry-export-%s.csv", now.Format("2006-01-02")),
		Content:  buf.Bytes(),
	}, nil
}

// TemplateCSV returns an example registry import file.
func (s *registryService) TemplateCSV() *CSVExport {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"name", "studentId", "department", "recipient"})
	_ = w.Write([]string{"Ada Lovelace", "STU-001", "Computer Science", models.ZeroAddress})
	_ = w.Write([]string{"Grace Hopper", "STU-002", "Mathematics", ""})
	w.Flush()

	return &CSVExport{
		Filename: "registry-template.csv",
		Content:  buf.Bytes(),
	}
}

func (s *registryService) publishRegistered(ctx context.Context, student *models.Student) {
	event := events.NewEvent(events.TypeStudentRegistered, map[string]interface{}{
		"student_id": student.StudentID,
		"name":       student.Name,
		"department": student.Department,
	})
	if err := s.publisher.Publish(ctx, events.TypeStudentRegistered, event); err != nil {
		s.logger.Error("Failed to publish registration event", "error", err, "student_id", student.StudentID)
	}
}
